package events

// Subscriber consumes events on the broker goroutine, so Send must not
// block. Implementations must be comparable; the broker keys them in a map.
type Subscriber interface {
	Send(Event) error
	Close() error
}
