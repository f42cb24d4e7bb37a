package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/ventsim/internal/ident"
)

// VersionInfo is the version command's result.
type VersionInfo struct {
	Engine string `json:"engine_version"`
	Model  string `json:"model_version"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "version",
		Short:         "Print the engine and model versions",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := VersionInfo{Engine: ident.EngineVersion, Model: ident.ModelVersion}
			return newFormatter(rootOpts, cmd.OutOrStdout()).Success(info, func(w io.Writer) {
				fmt.Fprintf(w, "ventsim %s (model %s)\n", info.Engine, info.Model)
			})
		},
	}
}
