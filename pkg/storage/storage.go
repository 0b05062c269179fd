// Package storage defines the key-value durable storage used to persist
// collection progress. Values are opaque byte slices; the collection
// store writes JSON documents under a small fixed set of keys.
//
// Implementations live in subpackages: memory, file, redis and postgres.
// The backends package builds one from configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/agentstation/fieldmap/pkg/errors"
)

// ErrKeyNotFound is returned by Get for a key that was never written.
// It matches errors.ErrNotFound.
var ErrKeyNotFound = fmt.Errorf("storage key %w", errors.ErrNotFound)

// Reader reads values by key.
type Reader interface {
	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
}

// Writer writes values by key.
type Writer interface {
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Backend is a durable key-value store.
type Backend interface {
	Reader
	Writer

	// Name identifies the backend in logs and errors.
	Name() string
	// Close releases connections and file handles.
	Close() error
}

// Pinger is implemented by backends that can check their connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks b if it supports it.
func Ping(ctx context.Context, b Backend) error {
	if p, ok := b.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
