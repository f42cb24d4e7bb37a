package harness

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/roach88/ventsim/internal/breath"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s: expected %s, actual %s", e.Type, e.Expected, e.Actual)
	return buf.String()
}

var timingFields = map[string]func(breath.Timing) int{
	"period": func(t breath.Timing) int { return t.Period },
	"inhale": func(t breath.Timing) int { return t.Inhale },
	"hold":   func(t breath.Timing) int { return t.Hold },
	"exhale": func(t breath.Timing) int { return t.Exhale },
}

var summaryFields = map[string]func(breath.Summary) float64{
	"peak_airway_pressure":     func(s breath.Summary) float64 { return s.PeakAirwayPressure },
	"plateau_pressure":         func(s breath.Summary) float64 { return s.PlateauPressure },
	"end_inspiratory_pressure": func(s breath.Summary) float64 { return s.EndInspiratoryPressure },
	"driving_pressure":         func(s breath.Summary) float64 { return s.DrivingPressure },
	"tidal_volume":             func(s breath.Summary) float64 { return s.TidalVolume },
	"inspiratory_flow":         func(s breath.Summary) float64 { return s.InspiratoryFlow },
	"peak_expiratory_flow":     func(s breath.Summary) float64 { return s.PeakExpiratoryFlow },
	"mean_airway_pressure":     func(s breath.Summary) float64 { return s.MeanAirwayPressure },
	"minute_volume":            func(s breath.Summary) float64 { return s.MinuteVolume },
}

// evaluate dispatches one assertion. Assertions are validated at load time,
// so parse errors here only arise for hand-built scenarios.
func (h *Harness) evaluate(ctx context.Context, a Assertion) error {
	switch a.Type {
	case AssertTiming:
		return assertTiming(h.trace.Timing, a)
	case AssertSample:
		return assertSample(h.multi, a)
	case AssertPhase:
		return assertPhase(h.multi, a)
	case AssertMonotonic:
		return assertMonotonic(h.trace, a)
	case AssertBounds:
		return assertBounds(h.multi, a)
	case AssertContinuity:
		return assertContinuity(h.trace)
	case AssertRowCount:
		return assertRowCount(h.multi, a)
	case AssertSummary:
		return assertSummary(h.summary, a)
	case AssertReplay:
		return h.assertReplay(ctx)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertTiming checks the expected sample counts (subset semantics).
func assertTiming(tm breath.Timing, a Assertion) error {
	keys := make([]string, 0, len(a.Expect))
	for k := range a.Expect {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		get, ok := timingFields[key]
		if !ok {
			return fmt.Errorf("unknown timing field %q", key)
		}
		if got := get(tm); got != a.Expect[key] {
			return &AssertionError{
				Type:     AssertTiming,
				Expected: fmt.Sprintf("%s = %d", key, a.Expect[key]),
				Actual:   fmt.Sprintf("%s = %d (%s)", key, got, tm),
			}
		}
	}
	return nil
}

func assertSample(mt breath.MultiTrace, a Assertion) error {
	c, err := breath.ParseColumn(a.Column)
	if err != nil {
		return err
	}
	row := *a.Row
	if row >= mt.Len() {
		return &AssertionError{
			Type:     AssertSample,
			Expected: fmt.Sprintf("row %d", row),
			Actual:   fmt.Sprintf("trace has %d rows", mt.Len()),
		}
	}

	got := mt.Column(c)[row]
	if !within(got, *a.Value, a.Tolerance) {
		return &AssertionError{
			Type:     AssertSample,
			Expected: fmt.Sprintf("%s[%d] = %g +/- %g", c, row, *a.Value, a.Tolerance),
			Actual:   fmt.Sprintf("%s[%d] = %g", c, row, got),
		}
	}
	return nil
}

func assertPhase(mt breath.MultiTrace, a Assertion) error {
	want, err := breath.ParsePhase(a.Phase)
	if err != nil {
		return err
	}
	row := *a.Row
	if row >= mt.Len() {
		return &AssertionError{
			Type:     AssertPhase,
			Expected: fmt.Sprintf("row %d", row),
			Actual:   fmt.Sprintf("trace has %d rows", mt.Len()),
		}
	}
	if got := mt.Phases[row]; got != want {
		return &AssertionError{
			Type:     AssertPhase,
			Expected: fmt.Sprintf("row %d in %s", row, want),
			Actual:   fmt.Sprintf("row %d in %s", row, got),
		}
	}
	return nil
}

// assertMonotonic checks one phase of the first breath. Increasing and
// decreasing are non-strict.
func assertMonotonic(tr breath.Trace, a Assertion) error {
	c, err := breath.ParseColumn(a.Column)
	if err != nil {
		return err
	}
	ph, err := breath.ParsePhase(a.Phase)
	if err != nil {
		return err
	}

	first, last := tr.Timing.Span(ph)
	values := tr.Column(c)
	for k := first + 1; k <= last; k++ {
		prev, cur := values[k-1], values[k]
		var ok bool
		switch a.Direction {
		case DirectionIncreasing:
			ok = cur >= prev-a.Tolerance
		case DirectionDecreasing:
			ok = cur <= prev+a.Tolerance
		case DirectionConstant:
			ok = within(cur, values[first], a.Tolerance)
		default:
			return fmt.Errorf("unknown direction %q", a.Direction)
		}
		if !ok {
			return &AssertionError{
				Type:     AssertMonotonic,
				Expected: fmt.Sprintf("%s %s over %s rows [%d, %d]", c, a.Direction, ph, first, last),
				Actual:   fmt.Sprintf("%s[%d] = %g after %g", c, k, cur, prev),
			}
		}
	}
	return nil
}

func assertBounds(mt breath.MultiTrace, a Assertion) error {
	c, err := breath.ParseColumn(a.Column)
	if err != nil {
		return err
	}
	var only breath.Phase
	if a.Phase != "" {
		if only, err = breath.ParsePhase(a.Phase); err != nil {
			return err
		}
	}

	lo, hi := math.Inf(-1), math.Inf(1)
	if a.Min != nil {
		lo = *a.Min
	}
	if a.Max != nil {
		hi = *a.Max
	}

	for i, v := range mt.Column(c) {
		if only != breath.PhaseNone && mt.Phases[i] != only {
			continue
		}
		if v < lo || v > hi || math.IsNaN(v) {
			return &AssertionError{
				Type:     AssertBounds,
				Expected: fmt.Sprintf("%s in [%g, %g]", c, lo, hi),
				Actual:   fmt.Sprintf("%s[%d] = %g", c, i, v),
			}
		}
	}
	return nil
}

// assertContinuity checks that lung pressure and volume carry across each
// phase boundary unchanged.
func assertContinuity(tr breath.Trace) error {
	type boundary struct{ from, to breath.Phase }

	tm := tr.Timing
	boundaries := []boundary{
		{breath.PhaseInspiration, breath.PhaseHold},
		{breath.PhaseHold, breath.PhaseExpiration},
	}
	if tm.Hold == 0 {
		boundaries = []boundary{{breath.PhaseInspiration, breath.PhaseExpiration}}
	}

	for _, b := range boundaries {
		_, end := tm.Span(b.from)
		start, _ := tm.Span(b.to)
		for _, c := range []breath.Column{breath.ColumnLungPressure, breath.ColumnVolume} {
			values := tr.Column(c)
			if values[start] != values[end] {
				return &AssertionError{
					Type:     AssertContinuity,
					Expected: fmt.Sprintf("%s[%d] = %s[%d] = %g at %s/%s", c, start, c, end, values[end], b.from, b.to),
					Actual:   fmt.Sprintf("%s[%d] = %g", c, start, values[start]),
				}
			}
		}
	}
	return nil
}

func assertRowCount(mt breath.MultiTrace, a Assertion) error {
	if mt.Len() != *a.Count {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("%d rows", *a.Count),
			Actual:   fmt.Sprintf("%d rows", mt.Len()),
		}
	}
	return nil
}

func assertSummary(s breath.Summary, a Assertion) error {
	get, ok := summaryFields[a.Field]
	if !ok {
		return fmt.Errorf("unknown summary field %q", a.Field)
	}
	if got := get(s); !within(got, *a.Value, a.Tolerance) {
		return &AssertionError{
			Type:     AssertSummary,
			Expected: fmt.Sprintf("%s = %g +/- %g", a.Field, *a.Value, a.Tolerance),
			Actual:   fmt.Sprintf("%s = %g", a.Field, got),
		}
	}
	return nil
}

func (h *Harness) assertReplay(ctx context.Context) error {
	res, err := h.replay(ctx)
	if err != nil {
		return err
	}
	if !res.Identical() {
		return &AssertionError{
			Type:     AssertReplay,
			Expected: "bit-identical replay",
			Actual:   fmt.Sprintf("%d mismatched rows (timing match %t, digest match %t)", res.MismatchRows, res.TimingMatch, res.DigestMatch),
		}
	}
	return nil
}

func within(got, want, tol float64) bool {
	return math.Abs(got-want) <= tol
}
