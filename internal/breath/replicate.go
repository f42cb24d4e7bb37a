package breath

// MultiTrace is a single-breath trace tiled end to end.
//
// Row i sits at t = i·Step for i in [0, Breaths·Period). Breath b occupies
// rows [b·Period, (b+1)·Period) and its values equal the source trace's.
type MultiTrace struct {
	Step    float64
	Breaths int
	Period  int

	// Timing is the source breath's timing.
	Timing Timing

	Flow           []float64
	AirwayPressure []float64
	LungPressure   []float64
	Volume         []float64
	Phases         []Phase
}

// Replicate tiles tr n times, re-basing time so row i of the result sits at
// i·Step. tr must be complete.
func Replicate(tr Trace, n int) (MultiTrace, error) {
	if n < 1 {
		return MultiTrace{}, NewReplicationError(n)
	}
	if k, missing := tr.firstUnwritten(); missing {
		return MultiTrace{}, NewGridAlignmentError(PhaseNone, k, "cannot replicate a trace with unwritten rows")
	}
	if n > MaxSamples/tr.Len() {
		return MultiTrace{}, NewReplicationLimitError(n, tr.Len())
	}

	tile := func(src []float64) []float64 {
		out := make([]float64, 0, len(src)*n)
		for b := 0; b < n; b++ {
			out = append(out, src...)
		}
		return out
	}
	phases := make([]Phase, 0, tr.Len()*n)
	for b := 0; b < n; b++ {
		phases = append(phases, tr.Phases...)
	}

	return MultiTrace{
		Step:           tr.Timing.Step,
		Breaths:        n,
		Period:         tr.Timing.Period,
		Timing:         tr.Timing,
		Flow:           tile(tr.Flow),
		AirwayPressure: tile(tr.AirwayPressure),
		LungPressure:   tile(tr.LungPressure),
		Volume:         tile(tr.Volume),
		Phases:         phases,
	}, nil
}

// Len returns the number of rows.
func (m MultiTrace) Len() int {
	return len(m.Phases)
}

// Time returns the time of row i in seconds.
func (m MultiTrace) Time(i int) float64 {
	return float64(i) * m.Step
}

// Times returns the time axis.
func (m MultiTrace) Times() []float64 {
	out := make([]float64, m.Len())
	for i := range out {
		out[i] = m.Time(i)
	}
	return out
}

// Breath returns the breath index row i belongs to.
func (m MultiTrace) Breath(i int) int {
	return i / m.Period
}

// Row returns row i.
func (m MultiTrace) Row(i int) Row {
	return Row{
		Time:           m.Time(i),
		Flow:           m.Flow[i],
		AirwayPressure: m.AirwayPressure[i],
		LungPressure:   m.LungPressure[i],
		Volume:         m.Volume[i],
		Phase:          m.Phases[i],
	}
}

// Column returns the backing slice for c. Callers must not modify it.
func (m MultiTrace) Column(c Column) []float64 {
	return column(c, m.Flow, m.AirwayPressure, m.LungPressure, m.Volume)
}
