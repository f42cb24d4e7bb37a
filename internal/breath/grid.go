package breath

import (
	"fmt"
	"math"
)

// Phase tags the part of the breath a row belongs to.
type Phase uint8

const (
	// PhaseNone marks a row no phase has written yet.
	PhaseNone Phase = iota
	PhaseInspiration
	PhaseHold
	PhaseExpiration
)

// String returns the phase name.
func (ph Phase) String() string {
	switch ph {
	case PhaseNone:
		return "none"
	case PhaseInspiration:
		return "inspiration"
	case PhaseHold:
		return "hold"
	case PhaseExpiration:
		return "expiration"
	default:
		return fmt.Sprintf("phase(%d)", uint8(ph))
	}
}

// ParsePhase parses a phase name as produced by Phase.String.
func ParsePhase(s string) (Phase, error) {
	for _, ph := range []Phase{PhaseInspiration, PhaseHold, PhaseExpiration} {
		if ph.String() == s {
			return ph, nil
		}
	}
	return PhaseNone, fmt.Errorf("unknown phase %q", s)
}

// Column names one output column of a trace.
type Column string

const (
	ColumnFlow           Column = "flow"
	ColumnAirwayPressure Column = "airway_pressure"
	ColumnLungPressure   Column = "lung_pressure"
	ColumnVolume         Column = "volume"
)

// Columns lists the output columns in table order.
var Columns = []Column{ColumnFlow, ColumnAirwayPressure, ColumnLungPressure, ColumnVolume}

// ParseColumn parses a column name.
func ParseColumn(s string) (Column, error) {
	for _, c := range Columns {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown column %q (want one of %v)", s, Columns)
}

// Unit returns the physical unit of the column.
func (c Column) Unit() string {
	switch c {
	case ColumnFlow:
		return "L/s"
	case ColumnVolume:
		return "L"
	default:
		return "cm H2O"
	}
}

// Row is one sample of a trace.
type Row struct {
	Time           float64 `json:"time"`
	Flow           float64 `json:"flow"`
	AirwayPressure float64 `json:"airway_pressure"`
	LungPressure   float64 `json:"lung_pressure"`
	Volume         float64 `json:"volume"`
	Phase          Phase   `json:"-"`
}

// Trace is the time-indexed table of one breath over [0, T).
//
// Row k sits at t = k·Timing.Step. Unwritten rows hold NaN and PhaseNone.
// Phase functions never modify a Trace they are given; they return a copy.
type Trace struct {
	Timing         Timing
	Flow           []float64
	AirwayPressure []float64
	LungPressure   []float64
	Volume         []float64
	Phases         []Phase
}

// NewTrace allocates an empty trace with one row per grid sample.
func NewTrace(tm Timing) Trace {
	n := tm.Period
	tr := Trace{
		Timing:         tm,
		Flow:           make([]float64, n),
		AirwayPressure: make([]float64, n),
		LungPressure:   make([]float64, n),
		Volume:         make([]float64, n),
		Phases:         make([]Phase, n),
	}
	nan := math.NaN()
	for k := 0; k < n; k++ {
		tr.Flow[k] = nan
		tr.AirwayPressure[k] = nan
		tr.LungPressure[k] = nan
		tr.Volume[k] = nan
	}
	return tr
}

// Len returns the number of rows.
func (tr Trace) Len() int {
	return len(tr.Phases)
}

// Time returns the time of row k in seconds.
func (tr Trace) Time(k int) float64 {
	return tr.Timing.Seconds(k)
}

// Row returns row k.
func (tr Trace) Row(k int) Row {
	return Row{
		Time:           tr.Time(k),
		Flow:           tr.Flow[k],
		AirwayPressure: tr.AirwayPressure[k],
		LungPressure:   tr.LungPressure[k],
		Volume:         tr.Volume[k],
		Phase:          tr.Phases[k],
	}
}

// Column returns the backing slice for c. Callers must not modify it.
func (tr Trace) Column(c Column) []float64 {
	return column(c, tr.Flow, tr.AirwayPressure, tr.LungPressure, tr.Volume)
}

// Complete reports whether every row has been written.
func (tr Trace) Complete() bool {
	_, missing := tr.firstUnwritten()
	return !missing
}

// firstUnwritten returns the first row a complete trace would need but tr
// lacks. An empty trace, or one whose columns are shorter than the period,
// is missing its first absent row.
func (tr Trace) firstUnwritten() (int, bool) {
	n := min(len(tr.Phases), len(tr.Flow), len(tr.AirwayPressure), len(tr.LungPressure), len(tr.Volume))
	if n == 0 || n != tr.Timing.Period || n != len(tr.Phases) {
		return n, true
	}
	if n != max(len(tr.Flow), len(tr.AirwayPressure), len(tr.LungPressure), len(tr.Volume)) {
		return n, true
	}
	for k, ph := range tr.Phases {
		if ph == PhaseNone {
			return k, true
		}
	}
	return 0, false
}

func (tr Trace) clone() Trace {
	return Trace{
		Timing:         tr.Timing,
		Flow:           append([]float64(nil), tr.Flow...),
		AirwayPressure: append([]float64(nil), tr.AirwayPressure...),
		LungPressure:   append([]float64(nil), tr.LungPressure...),
		Volume:         append([]float64(nil), tr.Volume...),
		Phases:         append([]Phase(nil), tr.Phases...),
	}
}

func column(c Column, flow, paw, plung, vol []float64) []float64 {
	switch c {
	case ColumnFlow:
		return flow
	case ColumnAirwayPressure:
		return paw
	case ColumnLungPressure:
		return plung
	case ColumnVolume:
		return vol
	default:
		return nil
	}
}
