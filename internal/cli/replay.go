package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/ventsim/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// ReplayReport holds the overall replay result.
type ReplayReport struct {
	Runs         []store.ReplayResult `json:"runs"`
	TotalRuns    int                  `json:"total_runs"`
	AllIdentical bool                 `json:"all_identical"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-simulate stored runs and verify reproducibility",
		Long: `Re-simulate stored runs from their saved parameters and compare every
sample with the stored breath, bit for bit.

Exit codes:
  0 - All runs reproduced exactly
  1 - At least one run differs
  2 - Command error (database not found, unknown run id, etc.)

Examples:
  ventsim replay --db ./ventsim.db
  ventsim replay --db ./ventsim.db --run 3f9a1c
  ventsim replay --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (defaults to VENTSIM_DB)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay one run only (id or unique prefix)")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	st, _, err := openStore(opts.RootOptions, opts.Database, false)
	if err != nil {
		return err
	}
	defer st.Close()

	var results []store.ReplayResult
	if opts.RunID != "" {
		id, err := st.ResolveID(ctx, opts.RunID)
		if errors.Is(err, sql.ErrNoRows) {
			return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunID))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to resolve run id", err)
		}
		res, err := st.Replay(ctx, id)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to replay run", err)
		}
		results = []store.ReplayResult{res}
	} else {
		results, err = st.ReplayAll(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to replay runs", err)
		}
	}

	report := ReplayReport{Runs: results, TotalRuns: len(results), AllIdentical: true}
	for _, r := range results {
		if !r.Identical() {
			report.AllIdentical = false
		}
	}

	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout())
	text := func(w io.Writer) { writeReplayText(w, report, opts.Verbose) }

	if report.AllIdentical {
		return formatter.Success(report, text)
	}
	if err := formatter.Failure("REPLAY_MISMATCH", "replay differs from stored samples", report, text); err != nil {
		return err
	}
	// Mismatch = exit code 1
	return NewExitError(ExitFailure, "replay differs from stored samples")
}

func writeReplayText(w io.Writer, r ReplayReport, verbose bool) {
	if r.TotalRuns == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return
	}

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", r.TotalRuns)
	fmt.Fprintln(w)

	for _, run := range r.Runs {
		status := "✓"
		if !run.Identical() {
			status = "✗"
		}
		fmt.Fprintf(w, "%s Run %s (seq %d): %d rows\n", status, shortID(run.RunID), run.Seq, run.Rows)

		if run.VersionDrift {
			fmt.Fprintln(w, "  Stored under a different model version")
		}
		if !run.TimingMatch {
			fmt.Fprintln(w, "  Timing differs from the stored run")
		}
		if !run.DigestMatch {
			fmt.Fprintln(w, "  Sample digest differs")
		}
		if run.MismatchRows > 0 {
			fmt.Fprintf(w, "  %d row(s) differ\n", run.MismatchRows)
			if verbose {
				for _, m := range run.Mismatches {
					fmt.Fprintf(w, "    row %d %s: stored %v, replayed %v\n", m.Index, m.Column, m.Stored, m.Replayed)
				}
			}
		}
	}
	fmt.Fprintln(w)

	if r.AllIdentical {
		fmt.Fprintln(w, "✓ All runs reproduced exactly")
		return
	}
	fmt.Fprintln(w, "✗ Replay verification failed")
}
