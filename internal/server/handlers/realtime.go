package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/agentstation/fieldmap/internal/server/middleware"
	ws "github.com/agentstation/fieldmap/internal/server/websocket"
)

// HandleWebSocket upgrades the connection and attaches it to the hub.
// The request id, when present, names the client in logs.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := w.Header().Get(middleware.RequestIDHeader)
	if id == "" {
		id = r.RemoteAddr + "-" + strconv.FormatInt(time.Now().UnixNano(), 36)
	}

	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.Logger.Warn().Err(err).Str("client_id", id).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(id, h.Hub, conn)
	h.Hub.Register(client)
	go client.WritePump()
	go client.ReadPump()
}

// HandleSSE streams events, replaying from Last-Event-ID when sent.
func (h *Handlers) HandleSSE(w http.ResponseWriter, r *http.Request) {
	h.Stream.ServeHTTP(w, r)
}
