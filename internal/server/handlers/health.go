package handlers

import (
	"net/http"

	"github.com/agentstation/fieldmap/internal/server/response"
)

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":  "healthy",
		"service": "fieldmap-api",
		"version": "v1",
	})
}

// HandleReady handles GET /api/v1/ready. It is not ready while the
// storage backend cannot be reached.
func (h *Handlers) HandleReady(w http.ResponseWriter, r *http.Request) {
	status := h.Client.Storage(r.Context())
	if !status.Reachable {
		response.ServiceUnavailable(w, "Storage backend "+status.Backend+" is not reachable")
		return
	}

	response.OK(w, map[string]any{
		"status":            "ready",
		"storage":           status,
		"cache":             h.Cache.GetStats(),
		"websocket_clients": h.Hub.ClientCount(),
		"sse_clients":       h.Stream.ClientCount(),
	})
}
