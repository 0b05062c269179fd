// Package version provides the version command.
package version

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/fieldmap/cmd/application"
	"github.com/agentstation/fieldmap/internal/cmd/output"
	"github.com/agentstation/fieldmap/internal/cmd/table"
)

// Info is the build information of the binary.
type Info struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Date    string `json:"date" yaml:"date"`
	BuiltBy string `json:"builtBy" yaml:"built_by"`
}

// NewCommand creates the version command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := Info{
				Version: app.Version(),
				Commit:  app.Commit(),
				Date:    app.Date(),
				BuiltBy: app.BuiltBy(),
			}

			format := output.DetectFormat(app.OutputFormat())
			if format.IsTable() {
				cmd.Printf("fieldmap %s\n", info.Version)
				cmd.Printf("  commit:   %s\n", info.Commit)
				cmd.Printf("  built:    %s\n", info.Date)
				cmd.Printf("  built by: %s\n", info.BuiltBy)
				return nil
			}
			return output.NewPrinter(cmd.OutOrStdout(), format).Print(info, func(bool) table.Data {
				return table.Data{}
			})
		},
	}
}
