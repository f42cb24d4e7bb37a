package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/ventsim/internal/breath"
	"github.com/roach88/ventsim/internal/sweep"
)

// SweepOptions holds flags for the sweep command.
type SweepOptions struct {
	*RootOptions
	ParamOptions

	Param   string
	From    float64
	To      float64
	By      float64
	Workers int
}

// SweepPoint is one row of the sweep command's result.
type SweepPoint struct {
	Value   float64         `json:"value"`
	Timing  *breath.Timing  `json:"timing,omitempty"`
	Summary *breath.Summary `json:"summary,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// SweepResult is the sweep command's result.
type SweepResult struct {
	Param  string       `json:"param"`
	Points []SweepPoint `json:"points"`
	Failed int          `json:"failed"`
}

// NewSweepCommand creates the sweep command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SweepOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Sweep one parameter and summarize each breath",
		Long: `Simulate one breath per value of a parameter range, in parallel.

The range is inclusive: --from, --from+--step, ... up to --to. Every other
parameter comes from the defaults, the profile and the parameter flags.
Values that produce an invalid configuration are reported, not fatal.

Sweepable parameters: ` + strings.Join(sweep.Params(), ", ") + `

Examples:
  ventsim sweep --param breaths_per_minute --from 10 --to 30 --step 2
  ventsim sweep --param compliance --from 0.01 --to 0.1 --step 0.01 --peep 5
  ventsim sweep --param hold_percent --from 0 --to 30 --step 5 --workers 4`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(opts, cmd)
		},
	}

	addParamFlags(cmd, &opts.ParamOptions)
	cmd.Flags().StringVar(&opts.Param, "param", "", "parameter to sweep (required)")
	cmd.Flags().Float64Var(&opts.From, "from", 0, "first value")
	cmd.Flags().Float64Var(&opts.To, "to", 0, "last value")
	cmd.Flags().Float64Var(&opts.By, "step", 1, "increment between values")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "parallel simulations (defaults to VENTSIM_WORKERS or the CPU count)")
	_ = cmd.MarkFlagRequired("param")
	cmd.MarkFlagsRequiredTogether("from", "to")

	return cmd
}

func runSweep(opts *SweepOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout())

	result, err := sweepPoints(opts, cmd)
	if err != nil {
		if opts.Format == "json" {
			_ = formatter.Error(errorCode(err), err.Error(), nil)
		}
		return err
	}

	return formatter.Success(result, func(w io.Writer) {
		writeSweepText(w, result)
	})
}

func sweepPoints(opts *SweepOptions, cmd *cobra.Command) (SweepResult, error) {
	res, err := resolveParams(cmd, opts.RootOptions, &opts.ParamOptions)
	if err != nil {
		return SweepResult{}, err
	}

	workers := opts.Workers
	if workers == 0 {
		cfg, err := opts.config()
		if err != nil {
			return SweepResult{}, WrapExitError(ExitCommandError, "failed to load configuration", err)
		}
		workers = cfg.Workers
	}

	axis := sweep.Axis{Param: opts.Param, From: opts.From, To: opts.To, Step: opts.By}
	if _, err := axis.Values(); err != nil {
		return SweepResult{}, WrapExitError(ExitCommandError, "invalid sweep", err)
	}

	points, err := sweep.Run(cmd.Context(), res.Params, axis, workers)
	if err != nil {
		return SweepResult{}, WrapExitError(ExitCommandError, "sweep failed", err)
	}

	result := SweepResult{Param: opts.Param, Points: make([]SweepPoint, len(points))}
	for i, pt := range points {
		out := SweepPoint{Value: pt.Value}
		if pt.Err != nil {
			out.Error = pt.Err.Error()
			result.Failed++
		} else {
			out.Timing = &pt.Timing
			out.Summary = &pt.Summary
		}
		result.Points[i] = out
	}
	return result, nil
}

func writeSweepText(w io.Writer, r SweepResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%s\tinhale\thold\texhale\tPIP\tPplat\tVt\tMV\t\n", r.Param)
	for _, pt := range r.Points {
		if pt.Error != "" {
			fmt.Fprintf(tw, "%g\t-\t-\t-\t-\t-\t-\t-\t\n", pt.Value)
			continue
		}
		s := pt.Summary
		fmt.Fprintf(tw, "%g\t%d\t%d\t%d\t%.2f\t%.2f\t%.4f\t%.3f\t\n",
			pt.Value, pt.Timing.Inhale, pt.Timing.Hold, pt.Timing.Exhale,
			s.PeakAirwayPressure, s.PlateauPressure, s.TidalVolume, s.MinuteVolume)
	}
	tw.Flush()

	for _, pt := range r.Points {
		if pt.Error != "" {
			fmt.Fprintf(w, "%s=%g: %s\n", r.Param, pt.Value, pt.Error)
		}
	}
}
