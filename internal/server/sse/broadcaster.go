// Package sse streams collection events as Server-Sent Events.
//
// Every frame carries the event sequence number as its id. A client that
// reconnects with a Last-Event-ID header first receives the remembered
// events it missed, then the live stream.
package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/fieldmap/pkg/constants"
)

// Event is one SSE frame.
type Event struct {
	Event string `json:"event,omitempty"`
	ID    string `json:"id,omitempty"`
	Data  any    `json:"data"`
}

// ReplayFunc returns the events numbered after seq.
type ReplayFunc func(seq uint64) []Event

// Broadcaster tracks stream clients and copies each event to all of them.
type Broadcaster struct {
	logger    *zerolog.Logger
	keepAlive time.Duration

	mu      sync.RWMutex
	clients map[chan Event]struct{}
	stopped bool
	replay  ReplayFunc
}

// NewBroadcaster creates a broadcaster.
func NewBroadcaster(logger *zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		logger:    logger,
		keepAlive: constants.SSEKeepAlive,
		clients:   make(map[chan Event]struct{}),
	}
}

// SetReplay installs the source of missed events for resuming clients.
func (b *Broadcaster) SetReplay(fn ReplayFunc) {
	b.mu.Lock()
	b.replay = fn
	b.mu.Unlock()
}

// Run blocks until ctx is cancelled, then closes every client channel.
// Clients connecting afterwards get a closed channel.
func (b *Broadcaster) Run(ctx context.Context) {
	<-ctx.Done()

	b.mu.Lock()
	for client := range b.clients {
		close(client)
	}
	clear(b.clients)
	b.stopped = true
	b.mu.Unlock()
	b.logger.Info().Msg("SSE broadcaster shut down")
}

// Broadcast copies event to every client. A client whose buffer is full
// misses the event; it can recover it with Last-Event-ID.
func (b *Broadcaster) Broadcast(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for client := range b.clients {
		select {
		case client <- event:
		default:
			b.logger.Warn().Str("id", event.ID).Msg("SSE client buffer full, event skipped")
		}
	}
}

// Connect registers a client and returns its channel.
func (b *Broadcaster) Connect() chan Event {
	client := make(chan Event, constants.ChannelBufferSize)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		close(client)
		return client
	}
	b.clients[client] = struct{}{}
	b.logger.Debug().Int("total_clients", len(b.clients)).Msg("SSE client connected")
	return client
}

// Disconnect unregisters a client and closes its channel.
func (b *Broadcaster) Disconnect(client chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[client]; ok {
		delete(b.clients, client)
		close(client)
	}
	b.logger.Debug().Int("total_clients", len(b.clients)).Msg("SSE client disconnected")
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// ServeHTTP streams events until the request ends or the broadcaster stops.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := b.Connect()
	defer b.Disconnect(client)

	b.write(w, flusher, Event{
		Event: "connected",
		Data:  map[string]any{"timestamp": time.Now().UTC()},
	})

	// frames at or below last were already sent by the replay
	var last uint64
	for _, e := range b.missed(r.Header.Get("Last-Event-ID")) {
		b.write(w, flusher, e)
		if seq, err := strconv.ParseUint(e.ID, 10, 64); err == nil {
			last = seq
		}
	}

	ticker := time.NewTicker(b.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-client:
			if !ok {
				return
			}
			if seq, err := strconv.ParseUint(event.ID, 10, 64); err == nil && seq <= last {
				continue
			}
			b.write(w, flusher, event)
		case <-ticker.C:
			_, _ = fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (b *Broadcaster) missed(lastEventID string) []Event {
	if lastEventID == "" {
		return nil
	}
	seq, err := strconv.ParseUint(lastEventID, 10, 64)
	if err != nil {
		return nil
	}

	b.mu.RLock()
	replay := b.replay
	b.mu.RUnlock()
	if replay == nil {
		return nil
	}
	return replay(seq)
}

func (b *Broadcaster) write(w http.ResponseWriter, flusher http.Flusher, event Event) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		b.logger.Error().Err(err).Str("event", event.Event).Msg("Failed to marshal SSE event data")
		return
	}

	if event.Event != "" {
		_, _ = fmt.Fprintf(w, "event: %s\n", event.Event)
	}
	if event.ID != "" {
		_, _ = fmt.Fprintf(w, "id: %s\n", event.ID)
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}
