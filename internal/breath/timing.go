package breath

import (
	"fmt"
	"math"
)

// Derivation selects the formula that splits the inspiratory span into an
// inhale and a hold.
//
// The two formulas disagree on what the hold percentage is a percentage of.
// Both are kept as named, testable variants; acceptance scenarios pin the one
// a deployment uses.
type Derivation string

const (
	// DerivationInhaleHold takes the hold as a share of the whole
	// inspiratory span: Tho = Tinh·h/100, Tin = Tinh − Tho.
	DerivationInhaleHold Derivation = "inhale_hold"

	// DerivationInhale scales the inhale directly and takes the hold as a
	// share of the inhale: Tin = Tinh·(1 − h/100), Tho = Tin·h/100.
	// Expiration absorbs whatever the hold leaves uncovered.
	DerivationInhale Derivation = "inhale"
)

// Valid reports whether d is a known derivation.
func (d Derivation) Valid() bool {
	return d == DerivationInhaleHold || d == DerivationInhale
}

// ParseDerivation parses a derivation name.
func ParseDerivation(s string) (Derivation, error) {
	d := Derivation(s)
	if !d.Valid() {
		return "", newInvalidConfiguration("derivation", "unknown derivation %q (want %q or %q)",
			s, DerivationInhaleHold, DerivationInhale)
	}
	return d, nil
}

// Split is the inspiratory span divided into inhale and hold, in seconds.
type Split struct {
	Inhale float64
	Hold   float64
}

// InhaleHoldSplit computes Tho = Tinh·h/100 and Tin = Tinh − Tho.
func InhaleHoldSplit(inhaleHold, holdPercent float64) Split {
	hold := inhaleHold * holdPercent / 100
	return Split{Inhale: inhaleHold - hold, Hold: hold}
}

// InhaleScaledSplit computes Tin = Tinh·(1 − h/100) and Tho = Tin·h/100.
func InhaleScaledSplit(inhaleHold, holdPercent float64) Split {
	inhale := inhaleHold * (100 - holdPercent) / 100
	return Split{Inhale: inhale, Hold: inhale * holdPercent / 100}
}

// Split applies the formula selected by d.
func (d Derivation) Split(inhaleHold, holdPercent float64) Split {
	if d == DerivationInhale {
		return InhaleScaledSplit(inhaleHold, holdPercent)
	}
	return InhaleHoldSplit(inhaleHold, holdPercent)
}

// PeriodSeconds returns the breath period T = 60/BPM.
func PeriodSeconds(bpm float64) float64 {
	return 60 / bpm
}

// InhaleHoldSeconds returns the inspiratory span Tinh = T/(1+IE).
func InhaleHoldSeconds(period, ie float64) float64 {
	return period / (1 + ie)
}

// Timing is the resolved cycle timing of one breath in grid samples.
//
// Invariant: Inhale + Hold + Exhale == Period.
type Timing struct {
	// Step is the grid resolution in seconds.
	Step float64 `json:"step"`

	// Period is the number of rows in one breath.
	Period int `json:"period"`

	// Inhale, Hold and Exhale are phase durations in samples.
	Inhale int `json:"inhale"`
	Hold   int `json:"hold"`
	Exhale int `json:"exhale"`

	Derivation Derivation `json:"derivation"`
}

// Seconds converts a sample count to seconds.
func (t Timing) Seconds(samples int) float64 {
	return float64(samples) * t.Step
}

// Span returns the first and last row (inclusive) owned by phase ph.
// The span is empty when last < first.
func (t Timing) Span(ph Phase) (first, last int) {
	switch ph {
	case PhaseInspiration:
		return 0, t.Inhale
	case PhaseHold:
		return t.Inhale + 1, t.Inhale + t.Hold
	case PhaseExpiration:
		return t.Inhale + t.Hold + 1, t.Period - 1
	default:
		return 0, -1
	}
}

// String renders the timing in seconds.
func (t Timing) String() string {
	return fmt.Sprintf("T=%gs Tin=%gs Tho=%gs Tex=%gs (dt=%gs)",
		RoundToGrid(t.Seconds(t.Period), t.Step), RoundToGrid(t.Seconds(t.Inhale), t.Step),
		RoundToGrid(t.Seconds(t.Hold), t.Step), RoundToGrid(t.Seconds(t.Exhale), t.Step), t.Step)
}

// MaxSamples bounds the rows a trace may hold, per breath and after
// replication. 10M rows is about 400 MB across the four value columns.
const MaxSamples = 10_000_000

// ResolveTiming derives the cycle timing from p.
//
// Every duration becomes a sample count via math.Round(seconds/step), round
// half away from zero. For DerivationInhaleHold the inspiratory span is
// rounded first and the hold is taken out of it, so Exhale lands exactly on
// T − Tinh.
func ResolveTiming(p Parameters) (Timing, error) {
	if err := p.Validate(); err != nil {
		return Timing{}, err
	}

	period := PeriodSeconds(p.BreathsPerMinute)
	inhaleHold := InhaleHoldSeconds(period, p.InspExpRatio)
	split := p.Derivation.Split(inhaleHold, p.HoldPercent)

	// Checked in float space: a tiny step overflows int before any
	// allocation could fail.
	if n := period / p.TimeStep; math.IsNaN(n) || n > MaxSamples {
		return Timing{}, newInvalidConfiguration("time_step",
			"time step %gs gives %g samples per breath, limit is %d", p.TimeStep, n, MaxSamples)
	}

	tm := Timing{
		Step:       p.TimeStep,
		Period:     toSamples(period, p.TimeStep),
		Hold:       toSamples(split.Hold, p.TimeStep),
		Derivation: p.Derivation,
	}
	if p.Derivation == DerivationInhaleHold {
		tm.Inhale = toSamples(inhaleHold, p.TimeStep) - tm.Hold
	} else {
		tm.Inhale = toSamples(split.Inhale, p.TimeStep)
	}
	tm.Exhale = tm.Period - tm.Inhale - tm.Hold

	if tm.Inhale < 1 {
		return Timing{}, newInvalidConfiguration("time_step",
			"time step %gs leaves no inhale samples (inhale %gs)", p.TimeStep, split.Inhale)
	}
	// Inspiration owns row Inhale itself, so expiration needs Exhale >= 2.
	if tm.Exhale < 2 {
		return Timing{}, newInvalidConfiguration("time_step",
			"time step %gs leaves no expiration samples (period %gs)", p.TimeStep, period)
	}

	return tm, nil
}

func toSamples(seconds, step float64) int {
	return int(math.Round(seconds / step))
}

// RoundToGrid trims float noise from k·step to the grid's decimal precision.
// Use it for display only; sample times stay exact multiples of step.
func RoundToGrid(v, step float64) float64 {
	places := math.Max(0, math.Ceil(-math.Log10(step)))
	scale := math.Pow(10, places)
	return math.Round(v*scale) / scale
}
