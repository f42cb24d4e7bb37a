package breath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTiming_Defaults(t *testing.T) {
	tm, err := ResolveTiming(DefaultParameters())
	require.NoError(t, err)

	assert.Equal(t, 300, tm.Period)
	assert.Equal(t, 90, tm.Inhale)
	assert.Equal(t, 10, tm.Hold)
	assert.Equal(t, 200, tm.Exhale)
	assert.Equal(t, DerivationInhaleHold, tm.Derivation)
	assert.Equal(t, "T=3s Tin=0.9s Tho=0.1s Tex=2s (dt=0.01s)", tm.String())
}

func TestResolveTiming_EqualRatio(t *testing.T) {
	p := DefaultParameters()
	p.InspExpRatio = 1

	tm, err := ResolveTiming(p)
	require.NoError(t, err)

	assert.Equal(t, 300, tm.Period)
	assert.Equal(t, 135, tm.Inhale)
	assert.Equal(t, 15, tm.Hold)
	assert.Equal(t, 150, tm.Exhale)
	assert.InDelta(t, 1.35, tm.Seconds(tm.Inhale), 1e-9)
	assert.InDelta(t, 0.15, tm.Seconds(tm.Hold), 1e-9)
	assert.InDelta(t, 1.5, tm.Seconds(tm.Exhale), 1e-9)
}

func TestResolveTiming_InhaleDerivation(t *testing.T) {
	p := DefaultParameters()
	p.Derivation = DerivationInhale

	tm, err := ResolveTiming(p)
	require.NoError(t, err)

	// Tin = 1.0·0.9, Tho = 0.9·0.1; expiration absorbs the remainder.
	assert.Equal(t, 90, tm.Inhale)
	assert.Equal(t, 9, tm.Hold)
	assert.Equal(t, 201, tm.Exhale)
}

func TestSplits(t *testing.T) {
	s := InhaleHoldSplit(1.5, 10)
	assert.InDelta(t, 1.35, s.Inhale, 1e-12)
	assert.InDelta(t, 0.15, s.Hold, 1e-12)

	s = InhaleScaledSplit(1.5, 10)
	assert.InDelta(t, 1.35, s.Inhale, 1e-12)
	assert.InDelta(t, 0.135, s.Hold, 1e-12)

	assert.Equal(t, InhaleScaledSplit(1, 20), DerivationInhale.Split(1, 20))
	assert.Equal(t, InhaleHoldSplit(1, 20), DerivationInhaleHold.Split(1, 20))
}

func TestResolveTiming_InvariantAcrossRange(t *testing.T) {
	for bpm := 8.0; bpm <= 30; bpm++ {
		for _, ie := range []float64{1, 1.5, 2, 2.5, 3, 4} {
			for _, hold := range []float64{0, 5, 10, 33, 50} {
				for _, d := range []Derivation{DerivationInhaleHold, DerivationInhale} {
					p := DefaultParameters()
					p.BreathsPerMinute = bpm
					p.InspExpRatio = ie
					p.HoldPercent = hold
					p.Derivation = d

					tm, err := ResolveTiming(p)
					require.NoError(t, err, "bpm=%g ie=%g hold=%g %s", bpm, ie, hold, d)

					assert.Equal(t, tm.Period, tm.Inhale+tm.Hold+tm.Exhale)
					assert.LessOrEqual(t, math.Abs(tm.Seconds(tm.Period)-60/bpm), tm.Step/2+1e-12)
				}
			}
		}
	}
}

func TestResolveTiming_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Parameters)
		field string
	}{
		{"zero bpm", func(p *Parameters) { p.BreathsPerMinute = 0 }, "breaths_per_minute"},
		{"bpm above range", func(p *Parameters) { p.BreathsPerMinute = 31 }, "breaths_per_minute"},
		{"ie below one", func(p *Parameters) { p.InspExpRatio = 0.5 }, "ie_ratio"},
		{"negative hold", func(p *Parameters) { p.HoldPercent = -1 }, "hold_percent"},
		{"full hold", func(p *Parameters) { p.HoldPercent = 100 }, "hold_percent"},
		{"zero step", func(p *Parameters) { p.TimeStep = 0 }, "time_step"},
		{"negative compliance", func(p *Parameters) { p.Compliance = -0.02 }, "compliance"},
		{"zero resistance", func(p *Parameters) { p.Resistance = 0 }, "resistance"},
		{"nan peep", func(p *Parameters) { p.PEEP = math.NaN() }, "peep"},
		{"zero tidal volume", func(p *Parameters) { p.TidalVolumePercent = 0 }, "tidal_volume_percent"},
		{"unknown derivation", func(p *Parameters) { p.Derivation = "exhale" }, "derivation"},
		{"step coarser than inhale", func(p *Parameters) { p.TimeStep = 2.5 }, "time_step"},
		{"step leaves no expiration", func(p *Parameters) { p.TimeStep = 1.5 }, "time_step"},
		{"step too fine", func(p *Parameters) { p.TimeStep = 1e-13 }, "time_step"},
		{"step overflows sample count", func(p *Parameters) { p.TimeStep = 1e-300 }, "time_step"},
		{"subnormal step", func(p *Parameters) { p.TimeStep = 5e-324 }, "time_step"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParameters()
			tt.edit(&p)

			_, err := ResolveTiming(p)
			require.Error(t, err)
			assert.True(t, IsInvalidConfiguration(err))

			var e *Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.field, e.Field)
		})
	}
}

func TestResolveTiming_SampleLimit(t *testing.T) {
	p := DefaultParameters()
	p.TimeStep = 1e-6

	tm, err := ResolveTiming(p)
	require.NoError(t, err)
	assert.Equal(t, 3_000_000, tm.Period)

	p.TimeStep = 1e-7
	_, err = ResolveTiming(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit is 10000000")
}

func TestParseDerivation(t *testing.T) {
	d, err := ParseDerivation("inhale")
	require.NoError(t, err)
	assert.Equal(t, DerivationInhale, d)

	_, err = ParseDerivation("bogus")
	assert.True(t, IsInvalidConfiguration(err))
}

func TestTimingSpan(t *testing.T) {
	tm := Timing{Step: 0.01, Period: 300, Inhale: 90, Hold: 10, Exhale: 200}

	first, last := tm.Span(PhaseInspiration)
	assert.Equal(t, [2]int{0, 90}, [2]int{first, last})
	first, last = tm.Span(PhaseHold)
	assert.Equal(t, [2]int{91, 100}, [2]int{first, last})
	first, last = tm.Span(PhaseExpiration)
	assert.Equal(t, [2]int{101, 299}, [2]int{first, last})

	tm.Hold = 0
	first, last = tm.Span(PhaseHold)
	assert.Less(t, last, first)
}
