package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/roach88/ventsim/internal/breath"
	"github.com/roach88/ventsim/internal/export"
	"github.com/roach88/ventsim/internal/ident"
)

// Terminal plot size.
const (
	plotWidth  = 80
	plotHeight = 12
)

// openBrowser opens a rendered chart. Tests replace it.
var openBrowser = browser.OpenFile

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	*RootOptions
	ParamOptions

	Breaths int
	Out     string // table file, or a directory for a generated name
	Table   string // csv|json
	HTML    string // chart file, or a directory for a generated name
	Open    bool
	Plot    string // column to plot in the terminal
	Save    bool
	DB      string
	Label   string
}

// SavedRun reports a run written to the store.
type SavedRun struct {
	RunID    string `json:"run_id"`
	Seq      int64  `json:"seq"`
	Inserted bool   `json:"inserted"`
	Database string `json:"database"`

	// Label is the stored label. A re-save keeps the label of the first save.
	Label string `json:"label,omitempty"`
	// LabelIgnored is set when a re-save asked for a different label.
	LabelIgnored bool `json:"label_ignored,omitempty"`
}

// SimulateReport is the simulate command's result.
type SimulateReport struct {
	Params  map[string]any `json:"params"`
	Breaths int            `json:"breaths"`
	Rows    int            `json:"rows"`
	Timing  breath.Timing  `json:"timing"`
	Summary breath.Summary `json:"summary"`
	RunID   string         `json:"run_id"`
	Files   []string       `json:"files,omitempty"`
	Saved   *SavedRun      `json:"saved,omitempty"`
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate breaths and export the trace",
		Long: `Simulate one breath and replicate it end to end.

Parameters come from the defaults, then --profile (or VENTSIM_PROFILE), then
explicit flags. The trace can be written as a CSV or JSON table, rendered as
an HTML chart, plotted in the terminal and saved to the run store.

Exit codes:
  0 - Simulation succeeded
  1 - Invalid parameters
  2 - Command error (unreadable profile, unwritable output, etc.)

Examples:
  ventsim simulate --bpm 15 --peep 5
  ventsim simulate --profile adult.yaml --breaths 4 --table csv > breath.csv
  ventsim simulate --html . --open
  ventsim simulate --plot volume --save --label baseline`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(opts, cmd)
		},
	}

	addParamFlags(cmd, &opts.ParamOptions)
	cmd.Flags().IntVarP(&opts.Breaths, "breaths", "n", 1, "number of breaths (defaults to the profile's count)")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "write the table to a file, or a generated name in a directory")
	cmd.Flags().StringVar(&opts.Table, "table", "", "table format (csv|json); without --out the table goes to stdout")
	cmd.Flags().StringVar(&opts.HTML, "html", "", "write an HTML chart to a file, or a generated name in a directory")
	cmd.Flags().BoolVar(&opts.Open, "open", false, "open the HTML chart in a browser")
	cmd.Flags().StringVar(&opts.Plot, "plot", "", "plot a column in the terminal (flow|airway_pressure|lung_pressure|volume)")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "save the run to the store")
	cmd.Flags().StringVar(&opts.DB, "db", "", "path to SQLite database (defaults to VENTSIM_DB)")
	cmd.Flags().StringVar(&opts.Label, "label", "", "label for the saved run")

	return cmd
}

func runSimulate(opts *SimulateOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout())

	err := simulate(opts, cmd, formatter)
	if err != nil && opts.Format == "json" {
		_ = formatter.Error(errorCode(err), err.Error(), nil)
	}
	return err
}

func simulate(opts *SimulateOptions, cmd *cobra.Command, formatter *OutputFormatter) error {
	res, err := resolveParams(cmd, opts.RootOptions, &opts.ParamOptions)
	if err != nil {
		return err
	}
	breaths := res.Breaths
	if cmd.Flags().Changed("breaths") {
		breaths = opts.Breaths
	}

	tableFormat, err := opts.tableFormat()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --table", err)
	}
	var plotColumn breath.Column
	if opts.Plot != "" {
		if plotColumn, err = breath.ParseColumn(opts.Plot); err != nil {
			return WrapExitError(ExitCommandError, "invalid --plot", err)
		}
	}

	tr, err := breath.Simulate(res.Params)
	if err != nil {
		return WrapExitError(ExitFailure, "simulation failed", err)
	}
	mt, err := breath.Replicate(tr, breaths)
	if err != nil {
		return WrapExitError(ExitFailure, "replication failed", err)
	}
	summary, err := breath.Summarize(tr, res.Params)
	if err != nil {
		return WrapExitError(ExitFailure, "summary failed", err)
	}
	params, err := ident.ParamsObject(res.Params)
	if err != nil {
		return WrapExitError(ExitFailure, "invalid parameters", err)
	}

	report := SimulateReport{
		Params:  params,
		Breaths: breaths,
		Rows:    mt.Len(),
		Timing:  tr.Timing,
		Summary: summary,
		RunID:   ident.MustRunID(res.Params, breaths),
	}
	slog.Debug("simulated", "timing", tr.Timing.String(), "breaths", breaths, "rows", mt.Len())

	w := cmd.OutOrStdout()
	tableToStdout := opts.Table != "" && opts.Out == ""

	if tableToStdout {
		if err := export.WriteTable(w, tableFormat, mt); err != nil {
			return WrapExitError(ExitCommandError, "failed to write table", err)
		}
	}

	if opts.Out != "" {
		path, err := writeFile(opts.Out, string(tableFormat), func(f io.Writer) error {
			return export.WriteTable(f, tableFormat, mt)
		})
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to write table", err)
		}
		report.Files = append(report.Files, path)
	}

	if opts.HTML != "" || opts.Open {
		target := opts.HTML
		if target == "" {
			target = os.TempDir()
		}
		title := "ventsim breath"
		if res.Profile != nil && res.Profile.Name != "" {
			title = res.Profile.Name
		}
		path, err := writeFile(target, "html", func(f io.Writer) error {
			return export.RenderHTML(f, mt, title)
		})
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to write chart", err)
		}
		report.Files = append(report.Files, path)

		if opts.Open {
			if err := openBrowser(path); err != nil {
				slog.Warn("failed to open browser", "path", path, "error", err)
			}
		}
	}

	if opts.Save {
		saved, err := saveRun(cmd, opts, res.Params, breaths, tr)
		if err != nil {
			return err
		}
		report.Saved = saved
	}

	if tableToStdout {
		return nil
	}

	return formatter.Success(report, func(w io.Writer) {
		if opts.Plot != "" {
			fmt.Fprintln(w, export.Plot(mt, plotColumn, plotWidth, plotHeight))
			fmt.Fprintln(w)
		}
		writeSimulateText(w, report)
	})
}

// tableFormat resolves --table, falling back to the --out extension, then csv.
func (o *SimulateOptions) tableFormat() (export.Format, error) {
	if o.Table != "" {
		return export.ParseFormat(o.Table)
	}
	if ext := strings.TrimPrefix(filepath.Ext(o.Out), "."); ext != "" {
		if f, err := export.ParseFormat(ext); err == nil {
			return f, nil
		}
	}
	return export.FormatCSV, nil
}

// writeFile creates target, or a generated file inside target when it is an
// existing directory, and fills it with write.
func writeFile(target, ext string, write func(io.Writer) error) (string, error) {
	path := target
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		path = filepath.Join(target, export.DefaultName(ext))
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := write(f); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	slog.Info("wrote file", "path", path)
	return path, nil
}

func saveRun(cmd *cobra.Command, opts *SimulateOptions, p breath.Parameters, breaths int, tr breath.Trace) (*SavedRun, error) {
	st, path, err := openStore(opts.RootOptions, opts.DB, true)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	run, inserted, err := st.SaveRun(cmd.Context(), p, breaths, opts.Label, tr, opts.tokens().Generate())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to save run", err)
	}
	slog.Info("run saved", "id", run.ID, "seq", run.Seq, "inserted", inserted)

	saved := &SavedRun{RunID: run.ID, Seq: run.Seq, Inserted: inserted, Database: path, Label: run.Label}
	if !inserted && cmd.Flags().Changed("label") && opts.Label != run.Label {
		saved.LabelIgnored = true
		slog.Warn("run already stored, label not changed", "id", run.ID, "label", run.Label, "requested", opts.Label)
	}
	return saved, nil
}

func writeSimulateText(w io.Writer, r SimulateReport) {
	s := r.Summary
	fmt.Fprintf(w, "Timing:   %s\n", r.Timing)
	fmt.Fprintf(w, "Samples:  inhale=%d hold=%d exhale=%d period=%d (%s)\n",
		r.Timing.Inhale, r.Timing.Hold, r.Timing.Exhale, r.Timing.Period, r.Timing.Derivation)
	fmt.Fprintf(w, "Breaths:  %d (%d rows)\n", r.Breaths, r.Rows)
	fmt.Fprintf(w, "Run ID:   %s\n", r.RunID)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Peak airway pressure:     %8.3f cm H2O\n", s.PeakAirwayPressure)
	fmt.Fprintf(w, "Plateau pressure:         %8.3f cm H2O\n", s.PlateauPressure)
	fmt.Fprintf(w, "End-inspiratory pressure: %8.3f cm H2O\n", s.EndInspiratoryPressure)
	fmt.Fprintf(w, "Driving pressure:         %8.3f cm H2O\n", s.DrivingPressure)
	fmt.Fprintf(w, "Mean airway pressure:     %8.3f cm H2O\n", s.MeanAirwayPressure)
	fmt.Fprintf(w, "Tidal volume:             %8.4f L\n", s.TidalVolume)
	fmt.Fprintf(w, "Minute volume:            %8.3f L/min\n", s.MinuteVolume)
	fmt.Fprintf(w, "Inspiratory flow:         %8.4f L/s\n", s.InspiratoryFlow)
	fmt.Fprintf(w, "Peak expiratory flow:     %8.4f L/s\n", s.PeakExpiratoryFlow)

	for _, f := range r.Files {
		fmt.Fprintf(w, "Wrote %s\n", f)
	}
	if r.Saved != nil {
		state := "saved"
		if !r.Saved.Inserted {
			state = "already stored"
		}
		fmt.Fprintf(w, "Run %s (seq %d) %s in %s\n", shortID(r.Saved.RunID), r.Saved.Seq, state, r.Saved.Database)
		if r.Saved.LabelIgnored {
			fmt.Fprintf(w, "  label %q kept from the first save\n", r.Saved.Label)
		}
	}
}

// shortID abbreviates a run ID for display.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
