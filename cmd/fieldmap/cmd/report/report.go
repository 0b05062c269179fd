// Package report provides the command that renders a progress report.
package report

import (
	"bytes"

	"github.com/spf13/cobra"

	"github.com/agentstation/fieldmap/cmd/application"
	"github.com/agentstation/fieldmap/internal/fsutil"
	"github.com/agentstation/fieldmap/pkg/constants"
	"github.com/agentstation/fieldmap/pkg/report"
)

// NewCommand creates the report command.
func NewCommand(app application.Application) *cobra.Command {
	var (
		opts report.Options
		file string
	)

	cmd := &cobra.Command{
		Use:     "report",
		GroupID: "core",
		Short:   "Write a markdown progress report",
		Args:    cobra.NoArgs,
		Example: `  fieldmap report
  fieldmap report --classifications --skip-empty -f PROGRESS.md`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client(cmd.Context())
			if err != nil {
				return err
			}

			if file == "" {
				return report.Write(cmd.OutOrStdout(), client.Progress(), opts)
			}

			var buf bytes.Buffer
			if err := report.Write(&buf, client.Progress(), opts); err != nil {
				return err
			}
			if err := fsutil.WriteFileAtomic(file, buf.Bytes(), constants.FilePermissions); err != nil {
				return err
			}
			app.Logger().Info().Str("path", file).Msg("Report written")
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "write to this file instead of stdout")
	cmd.Flags().StringVar(&opts.Title, "title", report.DefaultTitle, "report title")
	cmd.Flags().BoolVar(&opts.Classifications, "classifications", false, "add per-classification tables for each area")
	cmd.Flags().BoolVar(&opts.SkipEmpty, "skip-empty", false, "leave out areas without items")
	return cmd
}
