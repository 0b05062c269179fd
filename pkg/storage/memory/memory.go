// Package memory provides an in-process storage backend. State is lost
// when the process exits; it is used for tests and ephemeral sessions.
package memory

import (
	"context"
	"sync"

	"github.com/agentstation/fieldmap/pkg/storage"
)

var _ storage.Backend = (*Backend)(nil)

// Backend stores values in a map.
type Backend struct {
	mu     sync.RWMutex
	values map[string][]byte
	writes int
}

// New creates an empty memory backend.
func New() *Backend {
	return &Backend{values: make(map[string][]byte)}
}

// Get implements storage.Reader.
func (b *Backend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.values[key]
	if !ok {
		return nil, storage.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set implements storage.Writer.
func (b *Backend) Set(_ context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.values[key] = append([]byte(nil), value...)
	b.writes++
	return nil
}

// Delete implements storage.Writer.
func (b *Backend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.values, key)
	b.writes++
	return nil
}

// Writes returns how many Set and Delete calls have been made.
func (b *Backend) Writes() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.writes
}

// Name implements storage.Backend.
func (b *Backend) Name() string { return "memory" }

// Close implements storage.Backend.
func (b *Backend) Close() error { return nil }
