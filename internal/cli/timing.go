package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/ventsim/internal/breath"
)

// TimingOptions holds flags for the timing command.
type TimingOptions struct {
	*RootOptions
	ParamOptions
}

// TimingReport is the timing command's result.
type TimingReport struct {
	breath.Timing
	Seconds map[string]float64 `json:"seconds"`
}

// NewTimingCommand creates the timing command.
func NewTimingCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TimingOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "timing",
		Short: "Print the resolved breath timing",
		Long: `Resolve the cycle timing for a parameter set without simulating.

Prints the period and the inspiration, hold and expiration durations in
seconds and in grid samples.

Examples:
  ventsim timing
  ventsim timing --bpm 12 --ie 3 --hold 0
  ventsim timing --profile child.cue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTiming(opts, cmd)
		},
	}

	addParamFlags(cmd, &opts.ParamOptions)

	return cmd
}

func runTiming(opts *TimingOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout())

	tm, err := resolveTiming(opts, cmd)
	if err != nil {
		if opts.Format == "json" {
			_ = formatter.Error(errorCode(err), err.Error(), nil)
		}
		return err
	}

	return formatter.Success(newTimingReport(tm), func(w io.Writer) {
		writeTimingText(w, tm)
	})
}

func resolveTiming(opts *TimingOptions, cmd *cobra.Command) (breath.Timing, error) {
	res, err := resolveParams(cmd, opts.RootOptions, &opts.ParamOptions)
	if err != nil {
		return breath.Timing{}, err
	}
	tm, err := breath.ResolveTiming(res.Params)
	if err != nil {
		return breath.Timing{}, WrapExitError(ExitFailure, "invalid timing", err)
	}
	return tm, nil
}

func newTimingReport(tm breath.Timing) TimingReport {
	return TimingReport{
		Timing: tm,
		Seconds: map[string]float64{
			"period": breath.RoundToGrid(tm.Seconds(tm.Period), tm.Step),
			"inhale": breath.RoundToGrid(tm.Seconds(tm.Inhale), tm.Step),
			"hold":   breath.RoundToGrid(tm.Seconds(tm.Hold), tm.Step),
			"exhale": breath.RoundToGrid(tm.Seconds(tm.Exhale), tm.Step),
		},
	}
}

func writeTimingText(w io.Writer, tm breath.Timing) {
	fmt.Fprintln(w, tm)
	fmt.Fprintf(w, "  %-11s %5d samples\n", "period", tm.Period)

	samples := map[breath.Phase]int{
		breath.PhaseInspiration: tm.Inhale,
		breath.PhaseHold:        tm.Hold,
		breath.PhaseExpiration:  tm.Exhale,
	}
	for _, ph := range []breath.Phase{breath.PhaseInspiration, breath.PhaseHold, breath.PhaseExpiration} {
		first, last := tm.Span(ph)
		if last < first {
			fmt.Fprintf(w, "  %-11s %5d samples (no rows)\n", ph, samples[ph])
			continue
		}
		fmt.Fprintf(w, "  %-11s %5d samples rows [%d, %d]\n", ph, samples[ph], first, last)
	}
}
