package ident

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/roach88/ventsim/internal/breath"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainRun     = "ventsim/run/v1"
	DomainSamples = "ventsim/samples/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ParamsObject returns the canonical object form of p. Keys match the
// profile file keys; floats are FormatFloat strings.
func ParamsObject(p breath.Parameters) (map[string]any, error) {
	fields := []struct {
		key   string
		value float64
	}{
		{"tidal_volume_percent", p.TidalVolumePercent},
		{"breaths_per_minute", p.BreathsPerMinute},
		{"ie_ratio", p.InspExpRatio},
		{"trigger_pressure", p.TriggerPressure},
		{"peep", p.PEEP},
		{"hold_percent", p.HoldPercent},
		{"volume_conversion", p.VolumeConversion},
		{"time_step", p.TimeStep},
		{"compliance", p.Compliance},
		{"resistance", p.Resistance},
	}

	obj := make(map[string]any, len(fields)+1)
	for _, f := range fields {
		s, err := FormatFloat(f.value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.key, err)
		}
		obj[f.key] = s
	}
	obj["derivation"] = string(p.Derivation)
	return obj, nil
}

// CanonicalParams returns the canonical JSON bytes of p.
func CanonicalParams(p breath.Parameters) ([]byte, error) {
	obj, err := ParamsObject(p)
	if err != nil {
		return nil, err
	}
	return MarshalCanonical(obj)
}

// RunID computes the content-addressed ID of simulating p for the given
// number of breaths under the current ModelVersion.
func RunID(p breath.Parameters, breaths int) (string, error) {
	params, err := ParamsObject(p)
	if err != nil {
		return "", fmt.Errorf("RunID: %w", err)
	}

	canonical, err := MarshalCanonical(map[string]any{
		"params":        params,
		"breaths":       breaths,
		"model_version": ModelVersion,
	})
	if err != nil {
		return "", fmt.Errorf("RunID: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainRun, canonical), nil
}

// MustRunID is like RunID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustRunID(p breath.Parameters, breaths int) string {
	id, err := RunID(p, breaths)
	if err != nil {
		panic(err)
	}
	return id
}

// SamplesDigest hashes the exact bit patterns of a single-breath trace,
// column by column, with its phase tags. Two traces share a digest only if
// every sample is bit-identical.
func SamplesDigest(tr breath.Trace) string {
	buf := make([]byte, 0, tr.Len()*(4*8+1))
	for k := 0; k < tr.Len(); k++ {
		buf = append(buf, byte(tr.Phases[k]))
		for _, c := range breath.Columns {
			buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(tr.Column(c)[k]))
		}
	}
	return hashWithDomain(DomainSamples, buf)
}
