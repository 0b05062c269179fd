package fieldmap

import (
	"github.com/agentstation/fieldmap/pkg/aggregator"
	"github.com/agentstation/fieldmap/pkg/catalogs"
	"github.com/agentstation/fieldmap/pkg/errors"
)

// Compile-time interface check to ensure proper implementation.
var _ Collector = (*client)(nil)

// Collector mutates collection state.
type Collector interface {
	// IsCollected reports whether an item is collected
	IsCollected(id string) bool

	// IsVisible reports whether a classification is shown in an area
	IsVisible(area, classification string) bool

	// ToggleItem flips the collected state of an item
	ToggleItem(id string) (*ToggleResult, error)

	// ToggleClassificationVisibility shows or hides a classification in an area
	ToggleClassificationVisibility(area, classification string, visible bool) error

	// UncollectedItems lists current area items that are not collected
	UncollectedItems() []catalogs.Item

	// ResetCurrentArea uncollects every item of the current area
	ResetCurrentArea() (int, error)

	// Summaries returns the classification counts of the current area
	Summaries() []aggregator.Summary

	// Progress returns per-area counts over the whole catalog
	Progress() []AreaProgress
}

// ToggleResult describes one toggle.
type ToggleResult struct {
	ItemID         string              `json:"itemId" yaml:"item_id"`
	Area           string              `json:"area" yaml:"area"`
	Classification string              `json:"classification" yaml:"classification"`
	Collected      bool                `json:"collected" yaml:"collected"`
	Summary        *aggregator.Summary `json:"summary,omitempty" yaml:"summary,omitempty"` // nil unless the item is in the current area
}

// AreaProgress is the collected count of one area.
type AreaProgress struct {
	Region    string               `json:"region" yaml:"region"`
	Area      string               `json:"area" yaml:"area"`
	Collected int                  `json:"collected" yaml:"collected"`
	Total     int                  `json:"total" yaml:"total"`
	Summaries []aggregator.Summary `json:"summaries" yaml:"summaries"`
}

// IsVisible reports whether a classification is shown in an area. Nothing
// is hidden until ToggleClassificationVisibility says so.
func (c *client) IsVisible(area, classification string) bool {
	return c.store.IsVisible(area, classification)
}

// IsCollected reports whether an item is collected. Unknown ids are not.
func (c *client) IsCollected(id string) bool {
	return c.store.IsCollected(id)
}

// ToggleItem flips the collected state of a catalog item and patches the
// current area summary when the item belongs to it.
func (c *client) ToggleItem(id string) (*ToggleResult, error) {
	item, ok := c.catalog.Item(id)
	if !ok {
		return nil, errors.NewNotFoundError("item", id)
	}

	c.mu.Lock()
	collected := !c.store.IsCollected(id)
	c.store.SetCollected(id, collected)

	result := ToggleResult{
		ItemID:         id,
		Area:           item.AreaID,
		Classification: item.Classification,
		Collected:      collected,
	}
	if item.AreaID == c.current {
		if s := aggregator.ApplyToggle(c.summaries, item.Classification, collected); s != nil {
			patched := *s
			patched.ItemIDs = append([]string(nil), s.ItemIDs...)
			result.Summary = &patched
		}
	}
	c.mu.Unlock()

	c.logger.Debug().
		Str("item_id", id).
		Str("area", item.AreaID).
		Bool("collected", collected).
		Msg("Item toggled")

	c.flushWarnings()
	c.hooks.itemToggled(result)
	return &result, nil
}

// ToggleClassificationVisibility records whether a classification is shown
// in an area. Counts are unaffected.
func (c *client) ToggleClassificationVisibility(area, classification string, visible bool) error {
	if !c.catalog.HasArea(area) {
		return errors.NewNotFoundError("area", area)
	}

	c.mu.Lock()
	c.store.SetVisibility(area, classification, visible)
	c.mu.Unlock()

	c.flushWarnings()
	c.hooks.visibilityChanged(area, classification, visible)
	return nil
}

// UncollectedItems returns the current area items not yet collected, in
// catalog order. It is empty when no area is selected.
func (c *client) UncollectedItems() []catalogs.Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]catalogs.Item, 0, len(c.items))
	for _, item := range c.items {
		if !c.store.IsCollected(item.ID) {
			out = append(out, item)
		}
	}
	return out
}

// ResetCurrentArea uncollects every item of the current area and returns
// how many were removed.
func (c *client) ResetCurrentArea() (int, error) {
	c.mu.Lock()
	if c.current == "" {
		c.mu.Unlock()
		return 0, errors.ErrNoAreaSelected
	}

	area := c.current
	ids := make([]string, len(c.items))
	for i, item := range c.items {
		ids[i] = item.ID
	}
	removed := c.store.ResetArea(ids)
	aggregator.ApplyReset(c.summaries)
	c.mu.Unlock()

	c.logger.Info().
		Str("area", area).
		Int("removed", removed).
		Msg("Area reset")

	c.flushWarnings()
	c.hooks.areaReset(area, removed)
	return removed, nil
}

// Summaries returns a copy of the current area summaries.
func (c *client) Summaries() []aggregator.Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return aggregator.Clone(c.summaries)
}

// Progress summarizes every area in catalog order.
func (c *client) Progress() []AreaProgress {
	c.mu.Lock()
	defer c.mu.Unlock()

	areas := c.catalog.Areas()
	out := make([]AreaProgress, 0, len(areas))
	for _, area := range areas {
		summaries := aggregator.Summarize(c.catalog.ItemsOf(area.Title), c.isCollected)
		collected, total := aggregator.Totals(summaries)
		out = append(out, AreaProgress{
			Region:    area.Region(),
			Area:      area.Title,
			Collected: collected,
			Total:     total,
			Summaries: summaries,
		})
	}
	return out
}
