package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/roach88/ventsim/internal/breath"
)

// Header is the CSV header row.
var Header = []string{"time", "flow", "airway_pressure", "lung_pressure", "volume"}

// WriteTable writes mt in format f.
func WriteTable(w io.Writer, f Format, mt breath.MultiTrace) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, mt)
	case FormatJSON:
		return WriteJSON(w, mt)
	default:
		return fmt.Errorf("unknown table format %q", f)
	}
}

// WriteCSV writes one row per sample. Values use the shortest decimal form
// that parses back to the same float64; time is trimmed to the grid precision.
func WriteCSV(w io.Writer, mt breath.MultiTrace) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(Header))
	for i := 0; i < mt.Len(); i++ {
		row := mt.Row(i)
		record[0] = formatFloat(breath.RoundToGrid(row.Time, mt.Step))
		record[1] = formatFloat(row.Flow)
		record[2] = formatFloat(row.AirwayPressure)
		record[3] = formatFloat(row.LungPressure)
		record[4] = formatFloat(row.Volume)
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

type jsonRow struct {
	breath.Row
	Breath int    `json:"breath"`
	Phase  string `json:"phase"`
}

type jsonTable struct {
	Step    float64       `json:"step"`
	Breaths int           `json:"breaths"`
	Timing  breath.Timing `json:"timing"`
	Rows    []jsonRow     `json:"rows"`
}

// WriteJSON writes {step, breaths, timing, rows}.
func WriteJSON(w io.Writer, mt breath.MultiTrace) error {
	table := jsonTable{
		Step:    mt.Step,
		Breaths: mt.Breaths,
		Timing:  mt.Timing,
		Rows:    make([]jsonRow, mt.Len()),
	}
	for i := range table.Rows {
		row := mt.Row(i)
		row.Time = breath.RoundToGrid(row.Time, mt.Step)
		table.Rows[i] = jsonRow{Row: row, Breath: mt.Breath(i), Phase: row.Phase.String()}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(table); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
