package breath

import "math"

// leakFactor scales the airway resistance into the leak path resistance.
const leakFactor = 100

// Parameters holds the ventilator settings and lung model constants for one
// simulated breath pattern.
//
// Use DefaultParameters or Resolve to build a validated value; a zero
// Parameters is not valid.
type Parameters struct {
	// TidalVolumePercent is the bag compression per breath, (0, 100].
	TidalVolumePercent float64

	// BreathsPerMinute is the respiratory rate, [8, 30].
	BreathsPerMinute float64

	// InspExpRatio is IE in the 1:IE ratio, [1, 4].
	InspExpRatio float64

	// TriggerPressure is the patient trigger threshold in cm H2O.
	// Accepted and persisted, but no phase consumes it.
	TriggerPressure float64

	// PEEP is the positive end-expiratory pressure in cm H2O.
	PEEP float64

	// HoldPercent is the inspiratory pause as a percentage, [0, 100).
	HoldPercent float64

	// VolumeConversion is liters delivered per percent of compression.
	VolumeConversion float64

	// TimeStep is the grid resolution in seconds.
	TimeStep float64

	// Compliance is the lung compliance C in L/cm H2O.
	Compliance float64

	// Resistance is the airway resistance R in cm H2O/(L/s).
	Resistance float64

	// Derivation selects how the hold is carved out of the inspiratory span.
	Derivation Derivation
}

// DefaultParameters returns the reference breath pattern: 75% compression at
// 20 BPM, 1:2, PEEP 10, 10% hold, C = 0.02, R = 20, 10 ms grid.
func DefaultParameters() Parameters {
	return Parameters{
		TidalVolumePercent: 75,
		BreathsPerMinute:   20,
		InspExpRatio:       2,
		TriggerPressure:    10,
		PEEP:               10,
		HoldPercent:        10,
		VolumeConversion:   0.5 / 75,
		TimeStep:           0.01,
		Compliance:         20e-3,
		Resistance:         20,
		Derivation:         DerivationInhaleHold,
	}
}

// LeakResistance returns Rleak = 100·R.
func (p Parameters) LeakResistance() float64 {
	return leakFactor * p.Resistance
}

// ParallelResistance returns Rleak·R/(Rleak+R), the resistance seen by a
// passive exhale.
func (p Parameters) ParallelResistance() float64 {
	rl := p.LeakResistance()
	return rl * p.Resistance / (rl + p.Resistance)
}

// DeliveredVolume returns the volume pushed during inspiration, in liters.
func (p Parameters) DeliveredVolume() float64 {
	return p.VolumeConversion * p.TidalVolumePercent
}

// Validate checks every parameter against its documented range.
// Returns the first violation as an INVALID_CONFIGURATION error.
func (p Parameters) Validate() error {
	checks := []struct {
		field string
		value float64
		ok    func(float64) bool
		want  string
	}{
		{"tidal_volume_percent", p.TidalVolumePercent, between(0, 100, false, true), "in (0, 100]"},
		{"breaths_per_minute", p.BreathsPerMinute, between(8, 30, true, true), "in [8, 30]"},
		{"ie_ratio", p.InspExpRatio, between(1, 4, true, true), "in [1, 4]"},
		{"trigger_pressure", p.TriggerPressure, nonNegative, ">= 0"},
		{"peep", p.PEEP, nonNegative, ">= 0"},
		{"hold_percent", p.HoldPercent, between(0, 100, true, false), "in [0, 100)"},
		{"volume_conversion", p.VolumeConversion, positive, "> 0"},
		{"time_step", p.TimeStep, positive, "> 0"},
		{"compliance", p.Compliance, positive, "> 0"},
		{"resistance", p.Resistance, positive, "> 0"},
	}

	for _, c := range checks {
		if !c.ok(c.value) {
			return newInvalidConfiguration(c.field, "%s must be %s, got %g", c.field, c.want, c.value)
		}
	}

	if !p.Derivation.Valid() {
		return newInvalidConfiguration("derivation", "unknown derivation %q", p.Derivation)
	}

	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}

// between builds a range check. NaN fails every comparison and is rejected.
func between(lo, hi float64, loInclusive, hiInclusive bool) func(float64) bool {
	return func(v float64) bool {
		if loInclusive && v < lo || !loInclusive && !(v > lo) {
			return false
		}
		if hiInclusive && v > hi || !hiInclusive && !(v < hi) {
			return false
		}
		return !math.IsNaN(v)
	}
}

// Overrides carries optional parameter values. A nil field keeps the default.
//
// Overrides replaces free-form key/value configuration: every option is a
// named, typed field and defaults are applied in one place.
type Overrides struct {
	TidalVolumePercent *float64
	BreathsPerMinute   *float64
	InspExpRatio       *float64
	TriggerPressure    *float64
	PEEP               *float64
	HoldPercent        *float64
	VolumeConversion   *float64
	TimeStep           *float64
	Compliance         *float64
	Resistance         *float64
	Derivation         *Derivation
}

// Apply returns p with every non-nil override substituted.
func (o Overrides) Apply(p Parameters) Parameters {
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.TidalVolumePercent, o.TidalVolumePercent)
	set(&p.BreathsPerMinute, o.BreathsPerMinute)
	set(&p.InspExpRatio, o.InspExpRatio)
	set(&p.TriggerPressure, o.TriggerPressure)
	set(&p.PEEP, o.PEEP)
	set(&p.HoldPercent, o.HoldPercent)
	set(&p.VolumeConversion, o.VolumeConversion)
	set(&p.TimeStep, o.TimeStep)
	set(&p.Compliance, o.Compliance)
	set(&p.Resistance, o.Resistance)
	if o.Derivation != nil {
		p.Derivation = *o.Derivation
	}
	return p
}

// Merge returns o layered under other: fields set in other win.
func (o Overrides) Merge(other Overrides) Overrides {
	pick := func(a, b *float64) *float64 {
		if b != nil {
			return b
		}
		return a
	}
	merged := Overrides{
		TidalVolumePercent: pick(o.TidalVolumePercent, other.TidalVolumePercent),
		BreathsPerMinute:   pick(o.BreathsPerMinute, other.BreathsPerMinute),
		InspExpRatio:       pick(o.InspExpRatio, other.InspExpRatio),
		TriggerPressure:    pick(o.TriggerPressure, other.TriggerPressure),
		PEEP:               pick(o.PEEP, other.PEEP),
		HoldPercent:        pick(o.HoldPercent, other.HoldPercent),
		VolumeConversion:   pick(o.VolumeConversion, other.VolumeConversion),
		TimeStep:           pick(o.TimeStep, other.TimeStep),
		Compliance:         pick(o.Compliance, other.Compliance),
		Resistance:         pick(o.Resistance, other.Resistance),
		Derivation:         o.Derivation,
	}
	if other.Derivation != nil {
		merged.Derivation = other.Derivation
	}
	return merged
}

// Resolve applies o over DefaultParameters and validates the result once.
func Resolve(o Overrides) (Parameters, error) {
	p := o.Apply(DefaultParameters())
	if err := p.Validate(); err != nil {
		return Parameters{}, err
	}
	return p, nil
}

// Ptr returns a pointer to v, for building Overrides literals.
func Ptr[T any](v T) *T {
	return &v
}
