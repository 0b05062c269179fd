// Package adapters turns broker events into transport frames.
package adapters

import (
	"strconv"

	"github.com/agentstation/fieldmap/internal/server/events"
	"github.com/agentstation/fieldmap/internal/server/sse"
	ws "github.com/agentstation/fieldmap/internal/server/websocket"
)

// ToSSE renders an event as an SSE frame whose id is the sequence number.
func ToSSE(e events.Event) sse.Event {
	return sse.Event{
		Event: string(e.Type),
		ID:    strconv.FormatUint(e.Seq, 10),
		Data:  e.Data,
	}
}

// ToSSEList renders events in order.
func ToSSEList(list []events.Event) []sse.Event {
	out := make([]sse.Event, len(list))
	for i, e := range list {
		out[i] = ToSSE(e)
	}
	return out
}

// ToMessage renders an event as a WebSocket message.
func ToMessage(e events.Event) ws.Message {
	return ws.Message{
		Seq:       e.Seq,
		Type:      string(e.Type),
		Timestamp: e.Timestamp,
		Data:      e.Data,
	}
}

// forwarder is a broker subscriber backed by a function. Transports own
// their own lifecycle, so Close does nothing.
type forwarder struct {
	name string
	send func(events.Event)
}

func (f *forwarder) Send(e events.Event) error {
	f.send(e)
	return nil
}

func (f *forwarder) Close() error { return nil }

func (f *forwarder) String() string { return f.name }

// SSE subscribes a broadcaster to broker events and lets resuming
// stream clients replay from the broker history.
func SSE(broker *events.Broker, b *sse.Broadcaster) events.Subscriber {
	b.SetReplay(func(seq uint64) []sse.Event {
		return ToSSEList(broker.Since(seq))
	})
	return &forwarder{name: "sse", send: func(e events.Event) { b.Broadcast(ToSSE(e)) }}
}

// WebSocket subscribes a hub to broker events.
func WebSocket(hub *ws.Hub) events.Subscriber {
	return &forwarder{name: "websocket", send: func(e events.Event) { hub.Broadcast(ToMessage(e)) }}
}
