// Package list provides commands for browsing the catalog.
package list

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/fieldmap/cmd/application"
	"github.com/agentstation/fieldmap/internal/cmd/output"
	"github.com/agentstation/fieldmap/internal/cmd/table"
	"github.com/agentstation/fieldmap/internal/server/filter"
	"github.com/agentstation/fieldmap/pkg/catalogs"
	"github.com/agentstation/fieldmap/pkg/errors"
)

// NewCommand creates the list command with its subcommands.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list [resource]",
		GroupID: "core",
		Short:   "Browse regions, areas and items of the catalog",
		Example: `  fieldmap list regions
  fieldmap list areas "Valley IV"
  fieldmap list items "Valley IV:The Hub" --classification Ore --uncollected
  fieldmap list images`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return fmt.Errorf("unknown resource: %s", args[0])
		},
	}

	cmd.AddCommand(NewRegionsCommand(app))
	cmd.AddCommand(NewAreasCommand(app))
	cmd.AddCommand(NewItemsCommand(app))
	cmd.AddCommand(NewImagesCommand(app))
	return cmd
}

// NewRegionsCommand lists regions in catalog order.
func NewRegionsCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "List regions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client(cmd.Context())
			if err != nil {
				return err
			}
			regions := client.Regions()
			return printer(cmd, app).Print(regions, func(bool) table.Data {
				return table.List("Region", regions)
			})
		},
	}
}

// NewAreasCommand lists the areas of one region, or of every region.
func NewAreasCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "areas [region]",
		Short: "List areas with their images",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client(cmd.Context())
			if err != nil {
				return err
			}
			cat := client.Catalog()

			var areas []catalogs.Area
			if len(args) == 1 {
				titles := client.Areas(args[0])
				if len(titles) == 0 {
					return fmt.Errorf("region %q has no areas", args[0])
				}
				for _, title := range titles {
					area, err := cat.Area(title)
					if err != nil {
						return err
					}
					areas = append(areas, area)
				}
			} else {
				areas = cat.Areas()
			}

			return printer(cmd, app).Print(areas, func(bool) table.Data {
				return table.AreasToTableData(areas)
			})
		},
	}
}

// NewImagesCommand lists every area image reference.
func NewImagesCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "images",
		Short: "List area image references for prefetching",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client(cmd.Context())
			if err != nil {
				return err
			}
			refs := client.ImageRefs()
			return printer(cmd, app).Print(refs, func(bool) table.Data {
				return table.List("Image", refs)
			})
		},
	}
}

// NewItemsCommand lists the items of an area.
func NewItemsCommand(app application.Application) *cobra.Command {
	var (
		f           filter.ItemFilter
		collected   bool
		uncollected bool
		visibleOnly bool
	)

	cmd := &cobra.Command{
		Use:   "items [area]",
		Short: "List items of an area (default: the current area)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if collected && uncollected {
				return fmt.Errorf("--collected and --uncollected are mutually exclusive")
			}
			client, err := app.Client(cmd.Context())
			if err != nil {
				return err
			}

			area := client.CurrentArea()
			if len(args) == 1 {
				area = args[0]
			}
			if area == "" {
				return errors.ErrNoAreaSelected
			}
			if _, err := client.Catalog().Area(area); err != nil {
				return err
			}

			switch {
			case collected:
				f.Collected = &collected
			case uncollected:
				no := false
				f.Collected = &no
			}

			if visibleOnly {
				f.Visible = &visibleOnly
			}
			items := f.Apply(client.Catalog().ItemsOf(area), filter.State{
				IsCollected: client.IsCollected,
				IsVisible:   client.IsVisible,
			})
			return printer(cmd, app).Print(items, func(wide bool) table.Data {
				return table.ItemsToTableData(items, client.IsCollected, wide)
			})
		},
	}

	cmd.Flags().StringSliceVarP(&f.Classifications, "classification", "c", nil, "only these classifications (comma-separated)")
	cmd.Flags().StringVar(&f.Category, "category", "", "only items of this category")
	cmd.Flags().StringVarP(&f.TitleContains, "search", "s", "", "only items whose title contains this text")
	cmd.Flags().BoolVar(&collected, "collected", false, "only collected items")
	cmd.Flags().BoolVar(&uncollected, "uncollected", false, "only items not yet collected")
	cmd.Flags().BoolVar(&visibleOnly, "visible", false, "skip items whose classification is hidden")
	cmd.Flags().StringVar(&f.Sort, "sort", "", "sort by id, title or classification")
	cmd.Flags().StringVar(&f.Order, "order", "asc", "sort order: asc or desc")
	cmd.Flags().IntVarP(&f.Limit, "limit", "l", 0, "maximum number of items (0 for all)")
	return cmd
}

func printer(cmd *cobra.Command, app application.Application) *output.Printer {
	return output.NewPrinter(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()))
}
