package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/ventsim/internal/breath"
	"github.com/roach88/ventsim/internal/ident"
	"github.com/roach88/ventsim/internal/store"
)

// RunsOptions holds flags for the runs command group.
type RunsOptions struct {
	*RootOptions
	Database string
}

// RunDetail is a stored run with its parameters and summary.
type RunDetail struct {
	store.Run
	Params  map[string]any `json:"params"`
	Summary breath.Summary `json:"summary"`
}

// NewRunsCommand creates the runs command group.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored runs",
		Long: `List and inspect runs saved with "ventsim simulate --save".

Exit codes:
  0 - Success
  2 - Command error (database not found, unknown run id, etc.)`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (defaults to VENTSIM_DB)")

	cmd.AddCommand(newRunsListCommand(opts))
	cmd.AddCommand(newRunsShowCommand(opts))

	return cmd
}

func newRunsListCommand(opts *RunsOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored runs in save order",
		Example: `  ventsim runs list --db ./ventsim.db
  ventsim runs list --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunsList(opts, cmd)
		},
	}
}

func newRunsShowCommand(opts *RunsOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one stored run",
		Long: `Show one stored run with its parameters and breath summary.

The run id may be abbreviated to any unique prefix.`,
		Example:       `  ventsim runs show 3f9a1c`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunsShow(opts, args[0], cmd)
		},
	}
}

func runRunsList(opts *RunsOptions, cmd *cobra.Command) error {
	st, _, err := openStore(opts.RootOptions, opts.Database, false)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout())
	return formatter.Success(runs, func(w io.Writer) {
		writeRunsText(w, runs)
	})
}

func writeRunsText(w io.Writer, runs []store.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tID\tBREATHS\tINHALE\tHOLD\tEXHALE\tDERIVATION\tDIGEST\tLABEL")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%s\t%s\t%s\n",
			r.Seq, shortID(r.ID), r.Breaths, r.Timing.Inhale, r.Timing.Hold, r.Timing.Exhale,
			r.Timing.Derivation, shortID(r.Digest), r.Label)
	}
	tw.Flush()
}

func runRunsShow(opts *RunsOptions, prefix string, cmd *cobra.Command) error {
	ctx := cmd.Context()

	st, _, err := openStore(opts.RootOptions, opts.Database, false)
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := st.ResolveID(ctx, prefix)
	if errors.Is(err, sql.ErrNoRows) {
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", prefix))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to resolve run id", err)
	}

	run, err := st.ReadRun(ctx, id)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	tr, err := st.ReadTrace(ctx, run)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read samples", err)
	}
	params, err := ident.ParamsObject(run.Params)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode parameters", err)
	}

	summary, err := breath.Summarize(tr, run.Params)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to summarize run", err)
	}

	detail := RunDetail{Run: run, Params: params, Summary: summary}

	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout())
	return formatter.Success(detail, func(w io.Writer) {
		writeRunText(w, detail)
	})
}

func writeRunText(w io.Writer, d RunDetail) {
	fmt.Fprintf(w, "Run:      %s\n", d.ID)
	fmt.Fprintf(w, "Seq:      %d\n", d.Seq)
	if d.Label != "" {
		fmt.Fprintf(w, "Label:    %s\n", d.Label)
	}
	fmt.Fprintf(w, "Token:    %s\n", d.Token)
	fmt.Fprintf(w, "Versions: model %s, engine %s\n", d.ModelVersion, d.EngineVersion)
	fmt.Fprintf(w, "Digest:   %s\n", d.Digest)
	fmt.Fprintf(w, "Timing:   %s\n", d.Timing)
	fmt.Fprintf(w, "Breaths:  %d\n", d.Breaths)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Parameters:")
	for _, name := range slices.Sorted(maps.Keys(d.Params)) {
		fmt.Fprintf(w, "  %-20s %v\n", name, d.Params[name])
	}
	fmt.Fprintln(w)

	s := d.Summary
	fmt.Fprintf(w, "Peak airway pressure: %.3f cm H2O\n", s.PeakAirwayPressure)
	fmt.Fprintf(w, "Plateau pressure:     %.3f cm H2O\n", s.PlateauPressure)
	fmt.Fprintf(w, "Tidal volume:         %.4f L\n", s.TidalVolume)
	fmt.Fprintf(w, "Minute volume:        %.3f L/min\n", s.MinuteVolume)
}
