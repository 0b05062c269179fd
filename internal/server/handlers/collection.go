package handlers

import (
	"net/http"

	"github.com/agentstation/fieldmap/internal/server/events"
	"github.com/agentstation/fieldmap/internal/server/filter"
	"github.com/agentstation/fieldmap/internal/server/response"
	"github.com/agentstation/fieldmap/pkg/collection"
	"github.com/agentstation/fieldmap/pkg/errors"
	"github.com/agentstation/fieldmap/pkg/logging"
)

// SelectRequest is the body of POST /api/v1/areas/select.
type SelectRequest struct {
	Area string `json:"area"`
}

// VisibilityRequest is the body of PUT /api/v1/visibility.
type VisibilityRequest struct {
	Area           string `json:"area"`
	Classification string `json:"classification"`
	Visible        *bool  `json:"visible"`
}

// HandleSelectArea handles POST /api/v1/areas/select.
func (h *Handlers) HandleSelectArea(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.ErrorFromType(w, err)
		return
	}
	if req.Area == "" {
		response.ErrorFromType(w, errors.NewValidationError("area", req.Area, "area is required"))
		return
	}

	view, err := h.Client.SelectArea(req.Area)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	h.Broker.Publish(events.AreaSelected, events.AreaSelectedData{Area: view.Area.Title})
	response.OK(w, view)
}

// HandleCurrent handles GET /api/v1/current.
func (h *Handlers) HandleCurrent(w http.ResponseWriter, _ *http.Request) {
	view := h.Client.View()
	if view == nil {
		response.ErrorFromType(w, errors.ErrNoAreaSelected)
		return
	}
	response.OK(w, view)
}

// HandleToggleItem handles POST /api/v1/items/{id}/toggle.
func (h *Handlers) HandleToggleItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	result, err := h.Client.ToggleItem(id)
	if err != nil {
		logging.FromContext(logging.WithItem(r.Context(), id)).Debug().Err(err).Msg("Toggle rejected")
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, result)
}

// HandleSetVisibility handles PUT /api/v1/visibility.
func (h *Handlers) HandleSetVisibility(w http.ResponseWriter, r *http.Request) {
	var req VisibilityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.ErrorFromType(w, err)
		return
	}
	switch {
	case req.Area == "":
		response.ErrorFromType(w, errors.NewValidationError("area", req.Area, "area is required"))
		return
	case req.Classification == "":
		response.ErrorFromType(w, errors.NewValidationError("classification", req.Classification, "classification is required"))
		return
	case req.Visible == nil:
		response.ErrorFromType(w, errors.NewValidationError("visible", nil, "visible is required"))
		return
	}

	if err := h.Client.ToggleClassificationVisibility(req.Area, req.Classification, *req.Visible); err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, map[string]any{
		"area":           req.Area,
		"classification": req.Classification,
		"visible":        *req.Visible,
	})
}

// HandleUncollected handles GET /api/v1/uncollected. Item filter query
// parameters narrow the result further.
func (h *Handlers) HandleUncollected(w http.ResponseWriter, r *http.Request) {
	if h.Client.CurrentArea() == "" {
		response.ErrorFromType(w, errors.ErrNoAreaSelected)
		return
	}

	items := filter.ParseItemFilter(r).Apply(h.Client.UncollectedItems(), filter.State{IsVisible: h.Client.IsVisible})
	response.OK(w, map[string]any{
		"area":  h.Client.CurrentArea(),
		"items": items,
		"count": len(items),
	})
}

// HandleReset handles POST /api/v1/reset.
func (h *Handlers) HandleReset(w http.ResponseWriter, _ *http.Request) {
	area := h.Client.CurrentArea()
	removed, err := h.Client.ResetCurrentArea()
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, map[string]any{
		"area":      area,
		"removed":   removed,
		"summaries": h.Client.Summaries(),
	})
}

// HandleSummaries handles GET /api/v1/summaries.
func (h *Handlers) HandleSummaries(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"area":      h.Client.CurrentArea(),
		"summaries": h.Client.Summaries(),
	})
}

// HandleProgress handles GET /api/v1/progress.
func (h *Handlers) HandleProgress(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{"areas": h.Client.Progress()})
}

// HandleExportBackup handles GET /api/v1/backup. The body is the backup
// document itself so it can be saved and posted back unchanged.
func (h *Handlers) HandleExportBackup(w http.ResponseWriter, _ *http.Request) {
	b := h.Client.ExportBackup()
	data, err := collection.MarshalBackup(b)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+collection.BackupFilename(b.ExportDate)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HandleImportBackup handles POST /api/v1/backup.
func (h *Handlers) HandleImportBackup(w http.ResponseWriter, r *http.Request) {
	var b collection.Backup
	if err := decodeJSON(w, r, &b); err != nil {
		response.ErrorFromType(w, err)
		return
	}
	if err := h.Client.ImportBackup(b); err != nil {
		response.ErrorFromType(w, err)
		return
	}

	warnings := b.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	response.OK(w, map[string]any{
		"imported": len(b.Collected),
		"warnings": warnings,
	})
}
