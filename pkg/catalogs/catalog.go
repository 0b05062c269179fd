// Package catalogs holds the immutable index of map areas and items.
//
// A Catalog is built once from decoded map data and never changes
// afterwards. Regions are derived from area titles of the form
// "<region>:<area name>" and keep the order in which they were first seen.
//
//	data, err := catalogs.Decode(r, "map.json")
//	if err != nil {
//	    return err
//	}
//	cat, err := catalogs.New(data, catalogs.WithOverlay(overlay))
//	if err != nil {
//	    return err
//	}
//	for _, region := range cat.Regions() {
//	    fmt.Println(region, cat.AreasOf(region))
//	}
package catalogs

import (
	"fmt"

	"github.com/agentstation/fieldmap/pkg/errors"
)

// Coordinate is a marker position on an area image.
type Coordinate struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Item is a collectible point of interest. Items are immutable.
type Item struct {
	ID             string     `json:"id" yaml:"id"`
	AreaID         string     `json:"area" yaml:"area"`
	Title          string     `json:"title" yaml:"title"`
	Classification string     `json:"classification" yaml:"classification"` // grouping key, see Classify
	Category       string     `json:"category,omitempty" yaml:"category,omitempty"`
	Coordinate     Coordinate `json:"coordinate" yaml:"coordinate"`
	IconRef        string     `json:"iconRef,omitempty" yaml:"icon_ref,omitempty"`
	PopupImageRef  string     `json:"popupImageRef,omitempty" yaml:"popup_image_ref,omitempty"`
	Description    string     `json:"description,omitempty" yaml:"description,omitempty"`
}

// Area is one map image. Titles are unique across the catalog.
type Area struct {
	Title    string `json:"title" yaml:"title"`
	ImageRef string `json:"imageRef" yaml:"image_ref"`
}

// Region returns the region prefix of the area title.
func (a Area) Region() string {
	return RegionOf(a.Title)
}

// Catalog is the read-only index over areas and items.
type Catalog struct {
	areas       []Area
	areaIndex   map[string]int
	regions     []string
	regionAreas map[string][]string
	items       []Item
	itemIndex   map[string]int
	areaItems   map[string][]int
}

// New builds a Catalog from decoded map data.
//
// It fails with ErrEmptyDataset when there are no areas and with
// ErrMalformedData when an area title is empty or repeated, an item id is
// empty or repeated, or an item references an unknown area.
func New(data *MapData, opts ...Option) (*Catalog, error) {
	return build(data, defaults().apply(opts...))
}

func build(data *MapData, options *options) (*Catalog, error) {
	if data == nil || len(data.Areas) == 0 {
		return nil, &errors.EmptyDatasetError{Source: options.sourceName}
	}

	c := &Catalog{
		areas:       make([]Area, 0, len(data.Areas)),
		areaIndex:   make(map[string]int, len(data.Areas)),
		regionAreas: make(map[string][]string),
		itemIndex:   make(map[string]int, len(data.CoordinateArraySchema.Coordinates)),
		areaItems:   make(map[string][]int, len(data.Areas)),
	}

	for i, rec := range data.Areas {
		field := fmt.Sprintf("areas[%d].title", i)
		if rec.Title == "" {
			return nil, errors.NewMalformedDataError(options.sourceName, field, "area title is empty")
		}
		if _, dup := c.areaIndex[rec.Title]; dup {
			return nil, errors.NewMalformedDataError(options.sourceName, field, fmt.Sprintf("duplicate area title %q", rec.Title))
		}
		c.areaIndex[rec.Title] = len(c.areas)
		c.areas = append(c.areas, Area{Title: rec.Title, ImageRef: rec.URL})

		region := RegionOf(rec.Title)
		if _, seen := c.regionAreas[region]; !seen {
			c.regions = append(c.regions, region)
		}
		c.regionAreas[region] = append(c.regionAreas[region], rec.Title)
	}

	coords := data.CoordinateArraySchema.Coordinates
	c.items = make([]Item, 0, len(coords))
	for i, rec := range coords {
		field := fmt.Sprintf("coordinates[%d]", i)
		id := string(rec.ID)
		if id == "" {
			return nil, errors.NewMalformedDataError(options.sourceName, field+".id", "item id is empty")
		}
		if _, dup := c.itemIndex[id]; dup {
			return nil, errors.NewMalformedDataError(options.sourceName, field+".id", fmt.Sprintf("duplicate item id %q", id))
		}
		if _, ok := c.areaIndex[rec.Area]; !ok {
			return nil, errors.NewMalformedDataError(options.sourceName, field+".area",
				fmt.Sprintf("item %q references unknown area %q", id, rec.Area))
		}

		c.itemIndex[id] = len(c.items)
		c.areaItems[rec.Area] = append(c.areaItems[rec.Area], len(c.items))
		c.items = append(c.items, Item{
			ID:             id,
			AreaID:         rec.Area,
			Title:          rec.Title,
			Classification: Classify(rec.Title),
			Category:       rec.Classification,
			Coordinate:     ParseCoordinate(rec.Coordinate),
			IconRef:        rec.PinIcon,
			PopupImageRef:  rec.PopupImage,
			Description:    rec.Description,
		})
	}

	if options.overlay != nil {
		applied := c.applyOverlay(options.overlay)
		options.logger.Debug().
			Int("descriptions", applied).
			Msg("Applied description overlay")
	}

	options.logger.Debug().
		Str("source", options.sourceName).
		Int("regions", len(c.regions)).
		Int("areas", len(c.areas)).
		Int("items", len(c.items)).
		Msg("Catalog built")

	return c, nil
}

// applyOverlay overwrites item descriptions and returns how many items
// changed. Later entries win; unknown ids are ignored.
func (c *Catalog) applyOverlay(o *DescriptionOverlay) int {
	translated := make(map[string]string)
	for _, entry := range o.Descriptions {
		if entry.Translated == "" || len(entry.IDs) == 0 {
			continue
		}
		for _, id := range entry.IDs {
			translated[string(id)] = entry.Translated
		}
	}

	applied := 0
	for id, text := range translated {
		if idx, ok := c.itemIndex[id]; ok {
			c.items[idx].Description = text
			applied++
		}
	}
	return applied
}

// Regions returns region names in first-seen order.
func (c *Catalog) Regions() []string {
	return append([]string(nil), c.regions...)
}

// AreasOf returns the area titles of a region in load order.
// An unknown region yields an empty slice.
func (c *Catalog) AreasOf(region string) []string {
	return append([]string{}, c.regionAreas[region]...)
}

// HasArea reports whether title names a known area.
func (c *Catalog) HasArea(title string) bool {
	_, ok := c.areaIndex[title]
	return ok
}

// Area returns the area with the given title.
func (c *Catalog) Area(title string) (Area, error) {
	idx, ok := c.areaIndex[title]
	if !ok {
		return Area{}, errors.NewNotFoundError("area", title)
	}
	return c.areas[idx], nil
}

// Areas returns every area in load order.
func (c *Catalog) Areas() []Area {
	return append([]Area(nil), c.areas...)
}

// ImageOf returns the image reference of an area.
func (c *Catalog) ImageOf(title string) (string, error) {
	area, err := c.Area(title)
	if err != nil {
		return "", err
	}
	return area.ImageRef, nil
}

// ItemsOf returns the items of an area in load order. An area without
// items, or an unknown area, yields an empty slice.
func (c *Catalog) ItemsOf(title string) []Item {
	idxs := c.areaItems[title]
	items := make([]Item, len(idxs))
	for i, idx := range idxs {
		items[i] = c.items[idx]
	}
	return items
}

// Item looks up an item by id.
func (c *Catalog) Item(id string) (Item, bool) {
	idx, ok := c.itemIndex[id]
	if !ok {
		return Item{}, false
	}
	return c.items[idx], true
}

// ClassificationOf returns the grouping key of an item.
func (c *Catalog) ClassificationOf(id string) (string, bool) {
	item, ok := c.Item(id)
	return item.Classification, ok
}

// AllImageRefs returns one image reference per area, in area load order.
func (c *Catalog) AllImageRefs() []string {
	refs := make([]string, len(c.areas))
	for i, a := range c.areas {
		refs[i] = a.ImageRef
	}
	return refs
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	return len(c.items)
}
