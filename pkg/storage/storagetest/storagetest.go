// Package storagetest provides a conformance suite for storage backends
// and a backend that fails on demand.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/fieldmap/pkg/errors"
	"github.com/agentstation/fieldmap/pkg/storage"
	"github.com/agentstation/fieldmap/pkg/storage/memory"
)

// Run exercises the storage.Backend contract against a fresh backend.
func Run(t *testing.T, newBackend func(t *testing.T) storage.Backend) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		b := newBackend(t)
		_, err := b.Get(ctx, "absent")
		assert.ErrorIs(t, err, storage.ErrKeyNotFound)
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("set then get", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.Set(ctx, "k", []byte(`["a","b"]`)))
		got, err := b.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, `["a","b"]`, string(got))
	})

	t.Run("overwrite", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.Set(ctx, "k", []byte(`1`)))
		require.NoError(t, b.Set(ctx, "k", []byte(`2`)))
		got, err := b.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, `2`, string(got))
	})

	t.Run("delete", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.Set(ctx, "k", []byte(`1`)))
		require.NoError(t, b.Delete(ctx, "k"))
		_, err := b.Get(ctx, "k")
		assert.ErrorIs(t, err, storage.ErrKeyNotFound)
		assert.NoError(t, b.Delete(ctx, "k"), "deleting a missing key is not an error")
	})

	t.Run("keys are independent", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.Set(ctx, "fieldmap_collected", []byte(`[]`)))
		require.NoError(t, b.Set(ctx, "fieldmap_visibility", []byte(`{}`)))
		got, err := b.Get(ctx, "fieldmap_collected")
		require.NoError(t, err)
		assert.Equal(t, `[]`, string(got))
	})

	t.Run("name", func(t *testing.T) {
		assert.NotEmpty(t, newBackend(t).Name())
	})
}

// ErrInjected is the error returned by a failing Backend.
var ErrInjected = errors.New("injected storage failure")

// Backend wraps a memory backend and fails reads or writes while told to.
type Backend struct {
	*memory.Backend

	mu         sync.Mutex
	failReads  bool
	failWrites bool
	setCalls   int
}

// NewBackend returns a healthy Backend.
func NewBackend() *Backend {
	return &Backend{Backend: memory.New()}
}

// FailReads toggles read failures.
func (b *Backend) FailReads(fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failReads = fail
}

// FailWrites toggles write failures.
func (b *Backend) FailWrites(fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failWrites = fail
}

// SetCalls returns how many times Set was attempted, including failures.
func (b *Backend) SetCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.setCalls
}

// Get implements storage.Reader.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	fail := b.failReads
	b.mu.Unlock()
	if fail {
		return nil, pkgerrors.WrapStorage("get", b.Name(), key, ErrInjected)
	}
	return b.Backend.Get(ctx, key)
}

// Set implements storage.Writer.
func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	b.mu.Lock()
	b.setCalls++
	fail := b.failWrites
	b.mu.Unlock()
	if fail {
		return pkgerrors.WrapStorage("set", b.Name(), key, ErrInjected)
	}
	return b.Backend.Set(ctx, key, value)
}

// Delete implements storage.Writer.
func (b *Backend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	fail := b.failWrites
	b.mu.Unlock()
	if fail {
		return pkgerrors.WrapStorage("delete", b.Name(), key, ErrInjected)
	}
	return b.Backend.Delete(ctx, key)
}

// Name implements storage.Backend.
func (b *Backend) Name() string { return "faulty" }
