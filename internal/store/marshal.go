package store

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/roach88/ventsim/internal/breath"
	"github.com/roach88/ventsim/internal/ident"
)

// marshalParams converts parameters to canonical JSON TEXT for storage.
func marshalParams(p breath.Parameters) (string, error) {
	data, err := ident.CanonicalParams(p)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}
	return string(data), nil
}

// unmarshalParams parses the canonical params TEXT. Float strings parse
// back to the exact stored bits.
func unmarshalParams(data string) (breath.Parameters, error) {
	var obj map[string]string
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return breath.Parameters{}, fmt.Errorf("unmarshal params: %w", err)
	}

	var p breath.Parameters
	fields := []struct {
		key string
		dst *float64
	}{
		{"tidal_volume_percent", &p.TidalVolumePercent},
		{"breaths_per_minute", &p.BreathsPerMinute},
		{"ie_ratio", &p.InspExpRatio},
		{"trigger_pressure", &p.TriggerPressure},
		{"peep", &p.PEEP},
		{"hold_percent", &p.HoldPercent},
		{"volume_conversion", &p.VolumeConversion},
		{"time_step", &p.TimeStep},
		{"compliance", &p.Compliance},
		{"resistance", &p.Resistance},
	}
	for _, f := range fields {
		s, ok := obj[f.key]
		if !ok {
			return breath.Parameters{}, fmt.Errorf("unmarshal params: missing %s", f.key)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return breath.Parameters{}, fmt.Errorf("unmarshal params: %s: %w", f.key, err)
		}
		*f.dst = v
	}

	d, err := breath.ParseDerivation(obj["derivation"])
	if err != nil {
		return breath.Parameters{}, fmt.Errorf("unmarshal params: %w", err)
	}
	p.Derivation = d

	return p, nil
}
