// Package collect provides commands that read and change collection state.
package collect

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agentstation/fieldmap"
	"github.com/agentstation/fieldmap/cmd/application"
	"github.com/agentstation/fieldmap/internal/cmd/output"
	"github.com/agentstation/fieldmap/internal/cmd/table"
	"github.com/agentstation/fieldmap/pkg/catalogs"
	"github.com/agentstation/fieldmap/pkg/errors"
)

// NewCommand creates the collect command with its subcommands.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collect",
		GroupID: "core",
		Short:   "Show and change what has been collected",
		Long: `Collect reads and changes the collection state.

Commands that work on one area take --area; without it the area from the
configuration (or the default area) is used.`,
		Example: `  fieldmap collect show --area "Valley IV:The Hub"
  fieldmap collect toggle hub-001 hub-002
  fieldmap collect uncollected -c "Treasure Chest"
  fieldmap collect hide "Originium Ore"
  fieldmap collect unhide "Originium Ore"
  fieldmap collect reset --area "Valley IV:The Hub"
  fieldmap collect progress`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(NewShowCommand(app))
	cmd.AddCommand(NewToggleCommand(app))
	cmd.AddCommand(NewUncollectedCommand(app))
	cmd.AddCommand(NewVisibilityCommand(app, "hide", false))
	cmd.AddCommand(NewVisibilityCommand(app, "unhide", true))
	cmd.AddCommand(NewResetCommand(app))
	cmd.AddCommand(NewProgressCommand(app))
	cmd.AddCommand(NewStatusCommand(app))
	return cmd
}

// NewShowCommand prints the classification counts of an area.
func NewShowCommand(app application.Application) *cobra.Command {
	var area string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show classification counts of an area",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := clientForArea(cmd, app, area)
			if err != nil {
				return err
			}
			view := client.View()
			return printer(cmd, app).Print(view, func(bool) table.Data {
				return table.SummariesToTableData(view.Summaries, view.Visibility)
			})
		},
	}
	addAreaFlag(cmd, &area)
	return cmd
}

// NewToggleCommand flips the collected state of items.
func NewToggleCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <item-id>...",
		Short: "Toggle items between collected and not collected",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client(cmd.Context())
			if err != nil {
				return err
			}
			warnUnsaved(cmd, client)

			results := make([]fieldmap.ToggleResult, 0, len(args))
			for _, id := range args {
				r, err := client.ToggleItem(id)
				if err != nil {
					return err
				}
				app.Logger().Debug().
					Str("item", r.ItemID).
					Bool("collected", r.Collected).
					Msg("Item toggled")
				results = append(results, *r)
			}

			return printer(cmd, app).Print(results, func(bool) table.Data {
				rows := make([][]string, len(results))
				for i, r := range results {
					mark := table.Uncollected
					if r.Collected {
						mark = table.Collected
					}
					rows[i] = []string{mark, r.ItemID, r.Classification, catalogs.AreaNameOf(r.Area)}
				}
				return table.Data{Headers: []string{"", "ID", "Classification", "Area"}, Rows: rows}
			})
		},
	}
}

// NewUncollectedCommand lists the items of an area still to collect.
func NewUncollectedCommand(app application.Application) *cobra.Command {
	var (
		area            string
		classifications []string
	)
	cmd := &cobra.Command{
		Use:     "uncollected",
		Aliases: []string{"todo"},
		Short:   "List items of an area that are not collected",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := clientForArea(cmd, app, area)
			if err != nil {
				return err
			}

			items := client.UncollectedItems()
			if len(classifications) > 0 {
				keep := make(map[string]bool, len(classifications))
				for _, c := range classifications {
					keep[catalogs.Classify(c)] = true
				}
				filtered := items[:0]
				for _, item := range items {
					if keep[item.Classification] {
						filtered = append(filtered, item)
					}
				}
				items = filtered
			}

			return printer(cmd, app).Print(items, func(wide bool) table.Data {
				return table.ItemsToTableData(items, nil, wide)
			})
		},
	}
	addAreaFlag(cmd, &area)
	cmd.Flags().StringSliceVarP(&classifications, "classification", "c", nil, "only these classifications (comma-separated)")
	return cmd
}

// NewVisibilityCommand hides or shows a classification in an area.
func NewVisibilityCommand(app application.Application, use string, visible bool) *cobra.Command {
	var area string
	short := "Hide a classification in an area"
	if visible {
		short = "Show a hidden classification in an area"
	}
	cmd := &cobra.Command{
		Use:   use + " <classification>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientForArea(cmd, app, area)
			if err != nil {
				return err
			}
			current := client.CurrentArea()
			if err := client.ToggleClassificationVisibility(current, args[0], visible); err != nil {
				return err
			}

			view := client.View()
			return printer(cmd, app).Print(view.Visibility, func(bool) table.Data {
				return table.SummariesToTableData(view.Summaries, view.Visibility)
			})
		},
	}
	addAreaFlag(cmd, &area)
	return cmd
}

// NewResetCommand uncollects every item of an area.
func NewResetCommand(app application.Application) *cobra.Command {
	var area string
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Mark every item of an area as not collected",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := clientForArea(cmd, app, area)
			if err != nil {
				return err
			}
			removed, err := client.ResetCurrentArea()
			if err != nil {
				return err
			}

			result := struct {
				Area    string `json:"area" yaml:"area"`
				Removed int    `json:"removed" yaml:"removed"`
			}{client.CurrentArea(), removed}
			return printer(cmd, app).Print(result, func(bool) table.Data {
				return table.KeyValue([][2]string{
					{"Area", result.Area},
					{"Removed", strconv.Itoa(result.Removed)},
				})
			})
		},
	}
	addAreaFlag(cmd, &area)
	return cmd
}

// NewProgressCommand prints per-area progress across the catalog.
func NewProgressCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show collected counts for every area",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client(cmd.Context())
			if err != nil {
				return err
			}
			progress := client.Progress()
			return printer(cmd, app).Print(progress, func(bool) table.Data {
				return table.ProgressToTableData(progress)
			})
		},
	}
}

// NewStatusCommand reports the storage backend health.
func NewStatusCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the storage backend and its health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client(cmd.Context())
			if err != nil {
				return err
			}
			status := client.Storage(cmd.Context())
			return printer(cmd, app).Print(status, func(bool) table.Data {
				return table.KeyValue([][2]string{
					{output.Label("backend"), status.Backend},
					{output.Label("reachable"), strconv.FormatBool(status.Reachable)},
					{output.Label("collected"), strconv.Itoa(status.Collected)},
					{output.Label("failures"), strconv.Itoa(status.Failures)},
					{output.Label("last_error"), status.LastError},
				})
			})
		},
	}
}

// clientForArea returns the client with area selected. An empty area
// keeps the area selected at startup.
func clientForArea(cmd *cobra.Command, app application.Application, area string) (fieldmap.Client, error) {
	client, err := app.Client(cmd.Context())
	if err != nil {
		return nil, err
	}
	if area != "" {
		if _, err := client.SelectArea(area); err != nil {
			return nil, err
		}
	}
	if client.CurrentArea() == "" {
		return nil, fmt.Errorf("%w: pass --area", errors.ErrNoAreaSelected)
	}
	warnUnsaved(cmd, client)
	return client, nil
}

// warnUnsaved tells the user on stderr when a change was applied but
// could not be written to storage.
func warnUnsaved(cmd *cobra.Command, client fieldmap.Client) {
	client.OnStorageWarning(func(err error) {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: change applied but not saved: %v\n", err)
	})
}

func addAreaFlag(cmd *cobra.Command, area *string) {
	cmd.Flags().StringVarP(area, "area", "a", "", "area title, e.g. \"Valley IV:The Hub\"")
}

func printer(cmd *cobra.Command, app application.Application) *output.Printer {
	return output.NewPrinter(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()))
}
