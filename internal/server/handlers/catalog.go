package handlers

import (
	"net/http"

	"github.com/agentstation/fieldmap/internal/server/filter"
	"github.com/agentstation/fieldmap/internal/server/response"
	"github.com/agentstation/fieldmap/pkg/catalogs"
	"github.com/agentstation/fieldmap/pkg/errors"
)

// HandleListRegions handles GET /api/v1/regions.
func (h *Handlers) HandleListRegions(w http.ResponseWriter, _ *http.Request) {
	regions, _ := h.Cache.GetOrLoad("regions", func() (any, error) {
		return h.Client.Regions(), nil
	})
	response.OK(w, map[string]any{"regions": regions})
}

// HandleListAreas handles GET /api/v1/regions/{region}/areas. An unknown
// region has no areas.
func (h *Handlers) HandleListAreas(w http.ResponseWriter, r *http.Request) {
	region := r.PathValue("region")
	areas, _ := h.Cache.GetOrLoad("areas:"+region, func() (any, error) {
		return h.Client.Areas(region), nil
	})
	response.OK(w, map[string]any{"region": region, "areas": areas})
}

// HandleGetArea handles GET /api/v1/areas/{area}.
func (h *Handlers) HandleGetArea(w http.ResponseWriter, r *http.Request) {
	title := r.PathValue("area")
	area, err := h.Cache.GetOrLoad("area:"+title, func() (any, error) {
		return h.Client.Catalog().Area(title)
	})
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, area)
}

// HandleListAreaItems handles GET /api/v1/areas/{area}/items. Query
// parameters filter the items, see filter.ParseItemFilter.
func (h *Handlers) HandleListAreaItems(w http.ResponseWriter, r *http.Request) {
	title := r.PathValue("area")
	cat := h.Client.Catalog()
	if !cat.HasArea(title) {
		response.ErrorFromType(w, errors.NewNotFoundError("area", title))
		return
	}

	cached, _ := h.Cache.GetOrLoad("items:"+title, func() (any, error) {
		return cat.ItemsOf(title), nil
	})
	items := filter.ParseItemFilter(r).Apply(cached.([]catalogs.Item), filter.State{
		IsCollected: h.Client.IsCollected,
		IsVisible:   h.Client.IsVisible,
	})

	response.OK(w, map[string]any{
		"area":  title,
		"items": items,
		"count": len(items),
	})
}

// HandleListImages handles GET /api/v1/images.
func (h *Handlers) HandleListImages(w http.ResponseWriter, _ *http.Request) {
	refs, _ := h.Cache.GetOrLoad("images", func() (any, error) {
		return h.Client.ImageRefs(), nil
	})
	response.OK(w, map[string]any{"images": refs})
}
