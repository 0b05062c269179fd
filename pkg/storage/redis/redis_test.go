package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/fieldmap/pkg/errors"
	"github.com/agentstation/fieldmap/pkg/storage"
	"github.com/agentstation/fieldmap/pkg/storage/redis"
	"github.com/agentstation/fieldmap/pkg/storage/storagetest"
)

func newBackend(t *testing.T) (*redis.Backend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	b := redis.New(redis.Config{Addr: mr.Addr(), Prefix: "test:"})
	t.Cleanup(func() { _ = b.Close() })
	return b, mr
}

func TestConformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Backend {
		b, _ := newBackend(t)
		return b
	})
}

func TestPrefix(t *testing.T) {
	b, mr := newBackend(t)
	require.NoError(t, b.Set(context.Background(), "fieldmap_collected", []byte(`["a"]`)))

	got, err := mr.Get("test:fieldmap_collected")
	require.NoError(t, err)
	assert.Equal(t, `["a"]`, got)
	assert.False(t, mr.Exists("fieldmap_collected"))
}

func TestDefaultPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	b := redis.NewWithClient(client, "")
	require.NoError(t, b.Set(context.Background(), "k", []byte(`1`)))
	assert.True(t, mr.Exists("fieldmap:k"))
	require.NoError(t, b.Close())
	assert.NoError(t, client.Ping(context.Background()).Err(), "a borrowed client stays open")
}

func TestUnavailable(t *testing.T) {
	b, mr := newBackend(t)
	require.NoError(t, b.Ping(context.Background()))
	mr.Close()

	err := b.Set(context.Background(), "k", []byte(`1`))
	assert.True(t, errors.IsStorageUnavailable(err))

	_, err = b.Get(context.Background(), "k")
	assert.True(t, errors.IsStorageUnavailable(err))
	assert.True(t, errors.IsStorageUnavailable(b.Ping(context.Background())))
}
