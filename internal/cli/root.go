// Package cli implements the ventsim command tree.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/ventsim/internal/config"
	"github.com/roach88/ventsim/internal/ident"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Config is loaded on first use when nil. Tests set it directly.
	Config *config.Config

	// Tokens overrides the run token generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	Tokens ident.TokenGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the ventsim CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ventsim",
		Short: "ventsim - single-compartment ventilator breath simulator",
		Long: `Simulate volume-controlled breaths through an RC lung model.

Each breath is split into inspiration, an inspiratory hold and passive
expiration on a fixed time grid, then replicated end to end.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			cfg, err := opts.config()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load configuration", err)
			}
			setupLogging(cmd.ErrOrStderr(), cfg.LogLevel, opts.Verbose)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewSimulateCommand(opts))
	cmd.AddCommand(NewTimingCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewSweepCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// config returns the process configuration, loading it once.
func (o *RootOptions) config() (*config.Config, error) {
	if o.Config == nil {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		o.Config = cfg
	}
	return o.Config, nil
}

// tokens returns the run token generator.
func (o *RootOptions) tokens() ident.TokenGenerator {
	if o.Tokens == nil {
		return ident.UUIDv7Generator{}
	}
	return o.Tokens
}

// setupLogging installs a text handler on w. --verbose forces debug.
func setupLogging(w io.Writer, level slog.Level, verbose bool) {
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
