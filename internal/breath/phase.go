package breath

import (
	"fmt"
	"log/slog"
	"math"
)

// PhaseEnd is the terminal state of a phase. It is the initial condition
// handed to the next phase.
type PhaseEnd struct {
	// Phase is the phase that wrote row Index.
	Phase Phase

	// Index is the last row the phase wrote.
	Index int

	// LungPressure is the lung pressure at Index.
	LungPressure float64
}

// sample is what a phase computes for one row, given the phase-local time.
type sample func(t float64) (flow, paw, plung float64)

// Inspire evaluates constant-flow inspiration over rows [0, Inhale].
//
// Lung pressure charges toward Flow·Rleak + PEEP with time constant Rleak·C.
func Inspire(tr Trace, p Parameters) (Trace, PhaseEnd, error) {
	first, last := tr.Timing.Span(PhaseInspiration)
	flow := p.DeliveredVolume() / tr.Timing.Seconds(tr.Timing.Inhale)
	rleak := p.LeakResistance()
	tau := rleak * p.Compliance

	return evaluate(tr, p, PhaseInspiration, first, last, func(t float64) (float64, float64, float64) {
		plung := flow*rleak*(1-math.Exp(-t/tau)) + p.PEEP
		return flow, flow*p.Resistance + plung, plung
	})
}

// Hold evaluates the inspiratory pause over rows [Inhale+1, Inhale+Hold].
//
// Flow is zero and lung pressure decays through the leak path only. An empty
// hold writes nothing and passes prev through unchanged.
func Hold(tr Trace, p Parameters, prev PhaseEnd) (Trace, PhaseEnd, error) {
	first, last := tr.Timing.Span(PhaseHold)
	plung0, err := handoff(tr, PhaseHold, first, prev)
	if err != nil {
		return Trace{}, PhaseEnd{}, err
	}
	if last < first {
		return tr, prev, nil
	}

	tau := p.LeakResistance() * p.Compliance
	return evaluate(tr, p, PhaseHold, first, last, func(t float64) (float64, float64, float64) {
		plung := (plung0-p.PEEP)*math.Exp(-t/tau) + p.PEEP
		return 0, plung, plung
	})
}

// Expire evaluates passive expiration over rows [Inhale+Hold+1, Period-1].
//
// Lung pressure decays through Rleak ∥ R; flow is -(Plung - PEEP)/R.
func Expire(tr Trace, p Parameters, prev PhaseEnd) (Trace, PhaseEnd, error) {
	first, last := tr.Timing.Span(PhaseExpiration)
	plung0, err := handoff(tr, PhaseExpiration, first, prev)
	if err != nil {
		return Trace{}, PhaseEnd{}, err
	}

	tau := p.ParallelResistance() * p.Compliance
	return evaluate(tr, p, PhaseExpiration, first, last, func(t float64) (float64, float64, float64) {
		plung := (plung0-p.PEEP)*math.Exp(-t/tau) + p.PEEP
		return -(plung - p.PEEP) / p.Resistance, plung, plung
	})
}

// handoff reads the initial lung pressure for a phase starting at row first.
// The previous phase must have ended on exactly row first-1.
func handoff(tr Trace, ph Phase, first int, prev PhaseEnd) (float64, error) {
	want := first - 1
	if prev.Index != want {
		return 0, NewGridAlignmentError(ph, want,
			fmt.Sprintf("%s expects its initial condition at row %d, previous phase ended at row %d", ph, want, prev.Index))
	}
	if want < 0 || want >= tr.Len() || tr.Phases[want] == PhaseNone || tr.Phases[want] != prev.Phase {
		return 0, NewGridAlignmentError(ph, want,
			fmt.Sprintf("%s initial condition row %d was not written by %s", ph, want, prev.Phase))
	}
	return tr.LungPressure[want], nil
}

// evaluate writes rows [first, last] of a copy of tr. Phase-local time is 0
// on row first.
func evaluate(tr Trace, p Parameters, ph Phase, first, last int, f sample) (Trace, PhaseEnd, error) {
	if first < 0 || last >= tr.Len() || last < first {
		return Trace{}, PhaseEnd{}, NewGridAlignmentError(ph, first,
			fmt.Sprintf("%s span [%d, %d] does not fit a %d-row grid", ph, first, last, tr.Len()))
	}

	out := tr.clone()
	for k := first; k <= last; k++ {
		if out.Phases[k] != PhaseNone {
			return Trace{}, PhaseEnd{}, NewGridAlignmentError(ph, k,
				fmt.Sprintf("row %d already written by %s", k, out.Phases[k]))
		}
		flow, paw, plung := f(tr.Timing.Seconds(k - first))
		out.Flow[k] = flow
		out.AirwayPressure[k] = paw
		out.LungPressure[k] = plung
		out.Volume[k] = p.Compliance * (plung - p.PEEP)
		out.Phases[k] = ph
	}

	return out, PhaseEnd{Phase: ph, Index: last, LungPressure: out.LungPressure[last]}, nil
}

// Simulate runs one breath: resolve timing, allocate the grid, then
// inspiration, hold and expiration in order.
func Simulate(p Parameters) (Trace, error) {
	tm, err := ResolveTiming(p)
	if err != nil {
		return Trace{}, err
	}

	tr := NewTrace(tm)
	tr, end, err := Inspire(tr, p)
	if err != nil {
		return Trace{}, err
	}
	tr, end, err = Hold(tr, p, end)
	if err != nil {
		return Trace{}, err
	}
	tr, _, err = Expire(tr, p, end)
	if err != nil {
		return Trace{}, err
	}

	if k, missing := tr.firstUnwritten(); missing {
		return Trace{}, NewGridAlignmentError(PhaseNone, k, fmt.Sprintf("row %d left unwritten", k))
	}

	slog.Debug("breath simulated",
		"period", tm.Period,
		"inhale", tm.Inhale,
		"hold", tm.Hold,
		"exhale", tm.Exhale,
		"derivation", tm.Derivation,
	)
	return tr, nil
}

// Run simulates one breath and replicates it n times.
func Run(p Parameters, n int) (MultiTrace, error) {
	if n < 1 {
		return MultiTrace{}, NewReplicationError(n)
	}
	tr, err := Simulate(p)
	if err != nil {
		return MultiTrace{}, err
	}
	return Replicate(tr, n)
}
