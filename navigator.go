package fieldmap

import (
	"github.com/agentstation/fieldmap/pkg/aggregator"
	"github.com/agentstation/fieldmap/pkg/catalogs"
)

// Compile-time interface check to ensure proper implementation.
var _ Navigator = (*client)(nil)

// Navigator answers catalog queries and tracks the selected area.
type Navigator interface {
	// Catalog returns the underlying catalog
	Catalog() *catalogs.Catalog

	// Regions returns region names in first-seen order
	Regions() []string

	// Areas returns the area titles of a region
	Areas(region string) []string

	// ImageRefs returns every area image reference
	ImageRefs() []string

	// SelectArea makes title the current area and returns its view
	SelectArea(title string) (*AreaView, error)

	// CurrentArea returns the selected area title, or "" when none is
	CurrentArea() string

	// View returns the view of the current area, or nil when none is selected
	View() *AreaView
}

// AreaView is everything needed to render one area.
type AreaView struct {
	Area       catalogs.Area        `json:"area" yaml:"area"`
	Region     string               `json:"region" yaml:"region"`
	ImageRef   string               `json:"imageRef" yaml:"image_ref"`
	Items      []catalogs.Item      `json:"items" yaml:"items"`
	Collected  []string             `json:"collected" yaml:"collected"`
	Summaries  []aggregator.Summary `json:"summaries" yaml:"summaries"`
	Visibility map[string]bool      `json:"visibility" yaml:"visibility"`
}

// Regions returns region names in first-seen order.
func (c *client) Regions() []string {
	return c.catalog.Regions()
}

// Areas returns the area titles of a region. An unknown region has none.
func (c *client) Areas(region string) []string {
	return c.catalog.AreasOf(region)
}

// ImageRefs returns one image reference per area.
func (c *client) ImageRefs() []string {
	return c.catalog.AllImageRefs()
}

// SelectArea makes title the current area, summarizes its items and
// returns the view. An unknown title is NotFound and leaves the
// selection unchanged.
func (c *client) SelectArea(title string) (*AreaView, error) {
	area, err := c.catalog.Area(title)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = area.Title
	c.items = c.catalog.ItemsOf(area.Title)
	c.summaries = aggregator.Summarize(c.items, c.isCollected)

	c.logger.Debug().
		Str("area", area.Title).
		Int("items", len(c.items)).
		Int("classifications", len(c.summaries)).
		Msg("Area selected")

	return c.viewLocked(area), nil
}

// CurrentArea returns the selected area title.
func (c *client) CurrentArea() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// View returns the current area view.
func (c *client) View() *AreaView {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == "" {
		return nil
	}
	area, err := c.catalog.Area(c.current)
	if err != nil {
		return nil
	}
	return c.viewLocked(area)
}

func (c *client) viewLocked(area catalogs.Area) *AreaView {
	collected := make([]string, 0)
	for _, item := range c.items {
		if c.isCollected(item.ID) {
			collected = append(collected, item.ID)
		}
	}
	items := make([]catalogs.Item, len(c.items))
	copy(items, c.items)
	return &AreaView{
		Area:       area,
		Region:     area.Region(),
		ImageRef:   area.ImageRef,
		Items:      items,
		Collected:  collected,
		Summaries:  aggregator.Clone(c.summaries),
		Visibility: c.store.Visibility(area.Title),
	}
}
