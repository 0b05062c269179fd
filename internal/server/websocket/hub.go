// Package websocket pushes collection events to WebSocket clients.
package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Message is one WebSocket frame.
type Message struct {
	Seq       uint64    `json:"seq"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Hub tracks connected clients. A client that cannot keep up is dropped
// rather than stalling the others.
type Hub struct {
	logger *zerolog.Logger

	mu      sync.Mutex
	clients map[*Client]struct{}
	stopped bool
}

// NewHub creates a hub.
func NewHub(logger *zerolog.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*Client]struct{}),
	}
}

// Run blocks until ctx is cancelled, then closes every client send channel.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	for c := range h.clients {
		close(c.send)
	}
	clear(h.clients)
	h.stopped = true
	h.mu.Unlock()
	h.logger.Info().Msg("WebSocket hub shut down")
}

// Register adds a client. After shutdown the client is closed immediately.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		close(c.send)
		return
	}
	h.clients[c] = struct{}{}
	h.logger.Debug().
		Str("client_id", c.id).
		Int("total_clients", len(h.clients)).
		Msg("WebSocket client connected")
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(c)
}

// drop must be called with mu held.
func (h *Hub) drop(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.logger.Debug().
		Str("client_id", c.id).
		Int("total_clients", len(h.clients)).
		Msg("WebSocket client disconnected")
}

// Broadcast queues msg for every client.
func (h *Hub) Broadcast(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn().Str("client_id", c.id).Uint64("seq", msg.Seq).Msg("WebSocket client too slow, dropping")
			h.drop(c)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
