package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/ventsim/internal/breath"
	"github.com/roach88/ventsim/internal/ident"
	"github.com/roach88/ventsim/internal/profile"
)

// ValidateResult is the validate command's result.
type ValidateResult struct {
	Path    string         `json:"path"`
	Name    string         `json:"name,omitempty"`
	Breaths int            `json:"breaths"`
	Params  map[string]any `json:"params"`
	Timing  breath.Timing  `json:"timing"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <profile>",
		Short: "Validate a parameter profile",
		Long: `Validate a YAML or CUE parameter profile.

The profile is decoded strictly (unknown keys are errors), resolved over the
defaults and checked for a feasible breath timing.

Exit codes:
  0 - Profile is valid
  1 - Parameters are out of range or the timing is infeasible
  2 - Profile cannot be loaded (missing file, syntax or schema error)

Examples:
  ventsim validate adult.yaml
  ventsim validate child.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout())

	p, err := profile.Load(path)
	if err != nil {
		return reportValidateError(formatter, path, WrapExitError(ExitCommandError, "failed to load profile", err))
	}

	params, err := p.Parameters()
	var tm breath.Timing
	if err == nil {
		tm, err = breath.ResolveTiming(params)
	}
	if err != nil {
		return reportValidateError(formatter, path, WrapExitError(ExitFailure, "invalid profile", err))
	}

	obj, err := ident.ParamsObject(params)
	if err != nil {
		return reportValidateError(formatter, path, WrapExitError(ExitFailure, "invalid profile", err))
	}

	result := ValidateResult{
		Path:    path,
		Name:    p.Name,
		Breaths: p.BreathCount(1),
		Params:  obj,
		Timing:  tm,
	}
	return formatter.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ %s is valid\n", path)
		fmt.Fprintf(w, "  %s, %d breath(s)\n", tm, result.Breaths)
	})
}

func reportValidateError(formatter *OutputFormatter, path string, err *ExitError) error {
	if formatter.Format == "json" {
		details := map[string]any{"path": path}
		var le *profile.LoadError
		if errors.As(err, &le) && le.Line > 0 {
			details["line"] = le.Line
		}
		var be *breath.Error
		if errors.As(err, &be) && be.Field != "" {
			details["field"] = be.Field
		}
		_ = formatter.Error(errorCode(err), err.Err.Error(), details)
		return err
	}

	fmt.Fprintf(formatter.Writer, "✗ %s\n", path)
	fmt.Fprintf(formatter.Writer, "  %v\n", err.Err)
	return err
}
