package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/fieldmap/pkg/constants"
)

// Broker numbers published events, remembers the most recent ones and
// delivers each to every subscriber from its Run loop.
type Broker struct {
	logger *zerolog.Logger
	queue  chan Event

	subMu sync.RWMutex
	subs  map[Subscriber]struct{}

	histMu  sync.Mutex
	history []Event

	seq     atomic.Uint64
	dropped atomic.Int64
}

// NewBroker creates a broker. Subscribers may be added before Run starts.
func NewBroker(logger *zerolog.Logger) *Broker {
	return &Broker{
		logger:  logger,
		queue:   make(chan Event, constants.ChannelBufferSize),
		subs:    make(map[Subscriber]struct{}),
		history: make([]Event, 0, constants.EventHistorySize),
	}
}

// Run delivers queued events until ctx is cancelled, then closes every
// subscriber.
func (b *Broker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			b.subMu.Lock()
			for sub := range b.subs {
				_ = sub.Close()
			}
			clear(b.subs)
			b.subMu.Unlock()
			b.logger.Info().Msg("Event broker shut down")
			return

		case event := <-b.queue:
			b.deliver(event)
		}
	}
}

func (b *Broker) deliver(event Event) {
	b.subMu.RLock()
	defer b.subMu.RUnlock()

	for sub := range b.subs {
		if err := sub.Send(event); err != nil {
			b.logger.Warn().
				Err(err).
				Uint64("seq", event.Seq).
				Str("event_type", string(event.Type)).
				Msg("Failed to send event to subscriber")
		}
	}
	b.logger.Debug().
		Uint64("seq", event.Seq).
		Str("event_type", string(event.Type)).
		Int("subscribers", len(b.subs)).
		Msg("Event delivered")
}

// Publish numbers an event, records it in the history and queues it for
// delivery. When the queue is full the event stays in the history, so
// resuming stream clients still see it, but live delivery is skipped.
func (b *Broker) Publish(eventType EventType, data any) Event {
	event := Event{
		Seq:       b.seq.Add(1),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	b.histMu.Lock()
	if len(b.history) == constants.EventHistorySize {
		b.history = append(b.history[:0], b.history[1:]...)
	}
	b.history = append(b.history, event)
	b.histMu.Unlock()

	select {
	case b.queue <- event:
	default:
		b.dropped.Add(1)
		b.logger.Warn().
			Uint64("seq", event.Seq).
			Str("event_type", string(eventType)).
			Msg("Event queue full, live delivery skipped")
	}
	return event
}

// Since returns the remembered events numbered after seq, oldest first.
func (b *Broker) Since(seq uint64) []Event {
	b.histMu.Lock()
	defer b.histMu.Unlock()

	var out []Event
	for _, e := range b.history {
		if e.Seq > seq {
			out = append(out, e)
		}
	}
	return out
}

// Subscribe adds a subscriber.
func (b *Broker) Subscribe(sub Subscriber) {
	b.subMu.Lock()
	b.subs[sub] = struct{}{}
	n := len(b.subs)
	b.subMu.Unlock()
	b.logger.Debug().Int("total_subscribers", n).Msg("Subscriber registered")
}

// Unsubscribe removes and closes a subscriber. Unknown subscribers are ignored.
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.subMu.Lock()
	_, ok := b.subs[sub]
	delete(b.subs, sub)
	b.subMu.Unlock()
	if ok {
		_ = sub.Close()
	}
}

// SubscriberCount returns the current number of subscribers.
func (b *Broker) SubscriberCount() int {
	b.subMu.RLock()
	defer b.subMu.RUnlock()
	return len(b.subs)
}

// EventsPublished returns how many events were published.
func (b *Broker) EventsPublished() int64 {
	return int64(b.seq.Load())
}

// EventsDropped returns how many events missed live delivery.
func (b *Broker) EventsDropped() int64 {
	return b.dropped.Load()
}

// QueueDepth returns the number of events waiting for delivery.
func (b *Broker) QueueDepth() int {
	return len(b.queue)
}
