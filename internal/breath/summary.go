package breath

import "math"

// Summary holds the clinical readouts of one simulated breath.
type Summary struct {
	// PeakAirwayPressure is max Paw over the breath, cm H2O.
	PeakAirwayPressure float64 `json:"peak_airway_pressure"`

	// PlateauPressure is Plung on the last hold row, or on the last
	// inspiration row when the hold is empty.
	PlateauPressure float64 `json:"plateau_pressure"`

	// EndInspiratoryPressure is Plung on the last inspiration row.
	EndInspiratoryPressure float64 `json:"end_inspiratory_pressure"`

	// DrivingPressure is PlateauPressure - PEEP.
	DrivingPressure float64 `json:"driving_pressure"`

	// TidalVolume is the largest lung volume above PEEP, L.
	TidalVolume float64 `json:"tidal_volume"`

	// InspiratoryFlow is the constant delivered flow, L/s.
	InspiratoryFlow float64 `json:"inspiratory_flow"`

	// PeakExpiratoryFlow is the largest outflow magnitude, L/s.
	PeakExpiratoryFlow float64 `json:"peak_expiratory_flow"`

	// MeanAirwayPressure is the row average of Paw, cm H2O.
	MeanAirwayPressure float64 `json:"mean_airway_pressure"`

	// MinuteVolume is TidalVolume·BPM, L/min.
	MinuteVolume float64 `json:"minute_volume"`
}

// Summarize computes the readouts of a complete trace.
func Summarize(tr Trace, p Parameters) (Summary, error) {
	if k, missing := tr.firstUnwritten(); missing {
		return Summary{}, NewGridAlignmentError(PhaseNone, k, "cannot summarize a trace with unwritten rows")
	}

	tm := tr.Timing
	if tm.Inhale < 1 || tm.Inhale+tm.Hold >= tr.Len() {
		return Summary{}, NewGridAlignmentError(PhaseHold, tm.Inhale+tm.Hold, "timing does not fit inside the trace")
	}
	s := Summary{
		PeakAirwayPressure:     math.Inf(-1),
		EndInspiratoryPressure: tr.LungPressure[tm.Inhale],
		PlateauPressure:        tr.LungPressure[tm.Inhale+tm.Hold],
		InspiratoryFlow:        tr.Flow[0],
	}
	s.DrivingPressure = s.PlateauPressure - p.PEEP

	var sum float64
	for k := 0; k < tr.Len(); k++ {
		s.PeakAirwayPressure = math.Max(s.PeakAirwayPressure, tr.AirwayPressure[k])
		s.TidalVolume = math.Max(s.TidalVolume, tr.Volume[k])
		if tr.Flow[k] < 0 {
			s.PeakExpiratoryFlow = math.Max(s.PeakExpiratoryFlow, -tr.Flow[k])
		}
		sum += tr.AirwayPressure[k]
	}
	s.MeanAirwayPressure = sum / float64(tr.Len())
	s.MinuteVolume = s.TidalVolume * p.BreathsPerMinute

	return s, nil
}
