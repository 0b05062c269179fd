// Package update provides the command that refreshes the local catalog.
package update

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agentstation/fieldmap/cmd/application"
	"github.com/agentstation/fieldmap/internal/cmd/output"
	"github.com/agentstation/fieldmap/internal/cmd/table"
	"github.com/agentstation/fieldmap/pkg/catalogs"
	"github.com/agentstation/fieldmap/pkg/constants"
)

// NewCommand creates the update command.
func NewCommand(app application.Application) *cobra.Command {
	return newCommand(app, nil)
}

func newCommand(app application.Application, hc *http.Client) *cobra.Command {
	var (
		dataURL string
		pageURL string
		path    string
	)

	cmd := &cobra.Command{
		Use:     "update",
		GroupID: "management",
		Short:   "Download the latest catalog into a local file",
		Long: `Update downloads the map catalog and replaces the local file when its
content changed. The catalog is validated before anything is written.

Pass the data URL directly with --url, or the map page with --page to
look the data URL up from the page.`,
		Example: `  fieldmap update --url https://example.com/api/tool_structural_mappings/1.json
  fieldmap update --page https://example.com/games/map/archives/1 -f data/map.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (dataURL == "") == (pageURL == "") {
				return fmt.Errorf("exactly one of --url or --page is required")
			}
			if path == "" {
				path = app.CatalogPath()
			}
			if path == "" {
				path = constants.DefaultCatalogFile
			}

			ctx := cmd.Context()
			updater := catalogs.NewUpdater(hc, app.Logger())
			if pageURL != "" {
				resolved, err := updater.ResolveDataURL(ctx, pageURL)
				if err != nil {
					return err
				}
				app.Logger().Debug().Str("url", resolved).Msg("Resolved catalog data URL")
				dataURL = resolved
			}

			result, err := updater.Update(ctx, dataURL, path)
			if err != nil {
				return err
			}

			p := output.NewPrinter(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()))
			return p.Print(result, func(bool) table.Data {
				return table.KeyValue([][2]string{
					{"Path", result.Path},
					{"Changed", strconv.FormatBool(result.Changed)},
					{"Areas", strconv.Itoa(result.Areas)},
					{"Items", strconv.Itoa(result.Items)},
					{"Hash", result.NewHash},
				})
			})
		},
	}

	cmd.Flags().StringVar(&dataURL, "url", "", "catalog data URL")
	cmd.Flags().StringVar(&pageURL, "page", "", "map page URL to resolve the data URL from")
	cmd.Flags().StringVarP(&path, "file", "f", "", "catalog file to write (default: configured catalog or map.json)")
	return cmd
}
