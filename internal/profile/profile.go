// Package profile loads parameter profiles from YAML or CUE files.
//
// A profile names any subset of the breath parameters. Unset parameters keep
// their defaults; command-line flags are layered on top with
// breath.Overrides.Merge.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/ventsim/internal/breath"
)

// Profile is one parameter profile file.
type Profile struct {
	Name        string `yaml:"name,omitempty" json:"name,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Breaths is the default replication count for this profile.
	Breaths *int `yaml:"breaths,omitempty" json:"breaths,omitempty"`

	TidalVolumePercent *float64 `yaml:"tidal_volume_percent,omitempty" json:"tidal_volume_percent,omitempty"`
	BreathsPerMinute   *float64 `yaml:"breaths_per_minute,omitempty" json:"breaths_per_minute,omitempty"`
	InspExpRatio       *float64 `yaml:"ie_ratio,omitempty" json:"ie_ratio,omitempty"`
	TriggerPressure    *float64 `yaml:"trigger_pressure,omitempty" json:"trigger_pressure,omitempty"`
	PEEP               *float64 `yaml:"peep,omitempty" json:"peep,omitempty"`
	HoldPercent        *float64 `yaml:"hold_percent,omitempty" json:"hold_percent,omitempty"`
	VolumeConversion   *float64 `yaml:"volume_conversion,omitempty" json:"volume_conversion,omitempty"`
	TimeStep           *float64 `yaml:"time_step,omitempty" json:"time_step,omitempty"`
	Compliance         *float64 `yaml:"compliance,omitempty" json:"compliance,omitempty"`
	Resistance         *float64 `yaml:"resistance,omitempty" json:"resistance,omitempty"`
	Derivation         *string  `yaml:"derivation,omitempty" json:"derivation,omitempty"`

	// Path is the file the profile was loaded from.
	Path string `yaml:"-" json:"-"`
}

// Overrides returns the profile's settings as breath overrides.
func (p *Profile) Overrides() breath.Overrides {
	o := breath.Overrides{
		TidalVolumePercent: p.TidalVolumePercent,
		BreathsPerMinute:   p.BreathsPerMinute,
		InspExpRatio:       p.InspExpRatio,
		TriggerPressure:    p.TriggerPressure,
		PEEP:               p.PEEP,
		HoldPercent:        p.HoldPercent,
		VolumeConversion:   p.VolumeConversion,
		TimeStep:           p.TimeStep,
		Compliance:         p.Compliance,
		Resistance:         p.Resistance,
	}
	if p.Derivation != nil {
		o.Derivation = breath.Ptr(breath.Derivation(*p.Derivation))
	}
	return o
}

// BreathCount returns the profile's breath count, or fallback when unset.
func (p *Profile) BreathCount(fallback int) int {
	if p.Breaths != nil {
		return *p.Breaths
	}
	return fallback
}

// Parameters resolves the profile over the defaults and validates it.
func (p *Profile) Parameters() (breath.Parameters, error) {
	params, err := breath.Resolve(p.Overrides())
	if err != nil {
		return breath.Parameters{}, fmt.Errorf("profile %s: %w", p.Path, err)
	}
	return params, nil
}

// Error code constants for profile loading.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeReadFailed   = "E004" // File could not be read
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeParseFailed  = "E010" // YAML or CUE syntax error, unknown field
	ErrCodeSchema       = "E011" // Value outside the profile schema
	ErrCodeUnsupported  = "E012" // Unknown file extension
	ErrCodeInvalidValue = "E013" // Field value rejected after decoding
)

// LoadError is returned for any profile that cannot be loaded.
type LoadError struct {
	Code    string
	Message string
	Path    string
	Line    int // 0 if unknown
}

func (e *LoadError) Error() string {
	switch {
	case e.Path != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s: %s", e.Path, e.Line, e.Code, e.Message)
	case e.Path != "":
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Load reads a profile, choosing the decoder by file extension:
// .yaml/.yml or .cue.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: "profile not found", Path: path}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: err.Error(), Path: path}
	}

	var p *Profile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		p, err = DecodeYAML(data, path)
	case ".cue":
		p, err = DecodeCUE(data, path)
	default:
		return nil, &LoadError{
			Code:    ErrCodeUnsupported,
			Message: fmt.Sprintf("unsupported profile extension %q (want .yaml, .yml or .cue)", filepath.Ext(path)),
			Path:    path,
		}
	}
	if err != nil {
		return nil, err
	}

	p.Path = path
	return p, nil
}

// check rejects values both decoders must agree on.
func (p *Profile) check(path string) error {
	if p.Breaths != nil && *p.Breaths < 1 {
		return &LoadError{Code: ErrCodeInvalidValue, Message: fmt.Sprintf("breaths must be at least 1, got %d", *p.Breaths), Path: path}
	}
	if p.Derivation != nil {
		if _, err := breath.ParseDerivation(*p.Derivation); err != nil {
			return &LoadError{Code: ErrCodeInvalidValue, Message: err.Error(), Path: path}
		}
	}
	return nil
}

var lineRe = regexp.MustCompile(`line (\d+)`)

// lineOf extracts the first "line N" from a decoder message.
func lineOf(msg string) int {
	m := lineRe.FindStringSubmatch(msg)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}
