package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/agentstation/fieldmap/internal/server/response"
	"github.com/agentstation/fieldmap/pkg/constants"
)

// HandleReload handles POST /api/v1/reload. It re-reads collection state
// from the storage backend, which matters when the backend is shared.
func (h *Handlers) HandleReload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.StorageTimeout)
	defer cancel()

	h.Client.Reload(ctx)
	status := h.Client.Storage(ctx)

	h.Logger.Info().
		Str("backend", status.Backend).
		Int("collected", status.Collected).
		Msg("Collection reloaded")

	response.OK(w, map[string]any{
		"status":    "reloaded",
		"storage":   status,
		"summaries": h.Client.Summaries(),
	})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	cat := h.Client.Catalog()
	collected, total := 0, 0
	for _, p := range h.Client.Progress() {
		collected += p.Collected
		total += p.Total
	}

	response.OK(w, map[string]any{
		"runtime": map[string]any{
			"uptime_seconds": int64(time.Since(h.started).Seconds()),
			"goroutines":     runtime.NumGoroutine(),
			"memory_mb":      memStats.Alloc / 1024 / 1024,
			"memory_sys_mb":  memStats.Sys / 1024 / 1024,
		},
		"catalog": map[string]any{
			"regions_total": len(cat.Regions()),
			"areas_total":   len(cat.Areas()),
			"items_total":   cat.Len(),
		},
		"collection": map[string]any{
			"current_area": h.Client.CurrentArea(),
			"collected":    collected,
			"total":        total,
			"storage":      h.Client.Storage(r.Context()),
		},
		"events": map[string]any{
			"published_total": h.Broker.EventsPublished(),
			"dropped_total":   h.Broker.EventsDropped(),
			"queue_depth":     h.Broker.QueueDepth(),
		},
		"realtime": map[string]any{
			"websocket_clients": h.Hub.ClientCount(),
			"sse_clients":       h.Stream.ClientCount(),
		},
		"cache": h.Cache.GetStats(),
	})
}
