// Package sweep simulates one breath per value of a parameter axis, in
// parallel, and collects the summaries in axis order.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/ventsim/internal/breath"
)

// MaxPoints bounds the number of values one axis may expand to.
const MaxPoints = 10000

// setters maps a profile key to the Parameters field it sweeps.
var setters = map[string]func(*breath.Parameters, float64){
	"tidal_volume_percent": func(p *breath.Parameters, v float64) { p.TidalVolumePercent = v },
	"breaths_per_minute":   func(p *breath.Parameters, v float64) { p.BreathsPerMinute = v },
	"ie_ratio":             func(p *breath.Parameters, v float64) { p.InspExpRatio = v },
	"trigger_pressure":     func(p *breath.Parameters, v float64) { p.TriggerPressure = v },
	"peep":                 func(p *breath.Parameters, v float64) { p.PEEP = v },
	"hold_percent":         func(p *breath.Parameters, v float64) { p.HoldPercent = v },
	"volume_conversion":    func(p *breath.Parameters, v float64) { p.VolumeConversion = v },
	"time_step":            func(p *breath.Parameters, v float64) { p.TimeStep = v },
	"compliance":           func(p *breath.Parameters, v float64) { p.Compliance = v },
	"resistance":           func(p *breath.Parameters, v float64) { p.Resistance = v },
}

// Params lists the sweepable parameter names in sorted order.
func Params() []string {
	names := make([]string, 0, len(setters))
	for name := range setters {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Axis is an inclusive arithmetic range over one parameter.
type Axis struct {
	Param string
	From  float64
	To    float64
	Step  float64
}

// Values expands the axis. The last value is To whenever (To-From)/Step is
// within rounding of an integer. Values are computed as From + i·Step so
// error does not accumulate.
func (a Axis) Values() ([]float64, error) {
	if _, ok := setters[a.Param]; !ok {
		return nil, fmt.Errorf("unknown sweep parameter %q (want one of %v)", a.Param, Params())
	}
	for _, v := range []float64{a.From, a.To, a.Step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("sweep bounds must be finite")
		}
	}
	if a.Step <= 0 {
		return nil, fmt.Errorf("sweep step must be > 0, got %g", a.Step)
	}
	if a.To < a.From {
		return nil, fmt.Errorf("sweep range is empty: from %g > to %g", a.From, a.To)
	}

	// Bound in float space; a huge span overflows int.
	span := math.Floor((a.To-a.From)/a.Step + 1e-9)
	if span+1 > MaxPoints {
		return nil, fmt.Errorf("sweep expands to %.0f points, limit is %d", span+1, MaxPoints)
	}
	n := int(span) + 1

	values := make([]float64, n)
	for i := range values {
		values[i] = a.From + float64(i)*a.Step
	}
	values[n-1] = math.Min(values[n-1], a.To)
	return values, nil
}

// Point is the outcome of one axis value.
type Point struct {
	Index  int
	Value  float64
	Params breath.Parameters

	// Timing and Summary are set when Err is nil.
	Timing  breath.Timing
	Summary breath.Summary

	// Err is the simulation error for this value, typically an invalid
	// configuration. One failing point does not stop the sweep.
	Err error
}

// Run simulates base with the axis parameter set to each value, using at most
// workers goroutines. Points are returned in axis order. Only cancellation of
// ctx aborts the sweep.
func Run(ctx context.Context, base breath.Parameters, axis Axis, workers int) ([]Point, error) {
	values, err := axis.Values()
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		return nil, fmt.Errorf("workers must be >= 1, got %d", workers)
	}

	set := setters[axis.Param]
	points := make([]Point, len(values))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, v := range values {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p := base
			set(&p, v)
			points[i] = evaluate(i, v, p)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slog.Debug("sweep finished", "param", axis.Param, "points", len(points), "workers", workers)
	return points, nil
}

func evaluate(i int, v float64, p breath.Parameters) Point {
	pt := Point{Index: i, Value: v, Params: p}

	tr, err := breath.Simulate(p)
	if err != nil {
		pt.Err = err
		return pt
	}
	summary, err := breath.Summarize(tr, p)
	if err != nil {
		pt.Err = err
		return pt
	}

	pt.Timing = tr.Timing
	pt.Summary = summary
	return pt
}
