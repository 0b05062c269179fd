// Package redis stores values in a Redis database, namespaced by a key
// prefix so several users can share one instance.
package redis

import (
	"context"
	goerrors "errors"

	goredis "github.com/redis/go-redis/v9"

	"github.com/agentstation/fieldmap/pkg/constants"
	"github.com/agentstation/fieldmap/pkg/errors"
	"github.com/agentstation/fieldmap/pkg/storage"
)

var _ storage.Backend = (*Backend)(nil)

// Config holds connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Backend is a Redis-backed storage.Backend.
type Backend struct {
	client *goredis.Client
	prefix string
	owned  bool
}

// New connects to Redis. The connection is lazy; use Ping to verify it.
func New(cfg Config) *Backend {
	client := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: constants.DialTimeout,
	})
	return &Backend{client: client, prefix: prefixOrDefault(cfg.Prefix), owned: true}
}

// NewWithClient wraps an existing client. Close does not close it.
func NewWithClient(client *goredis.Client, prefix string) *Backend {
	return &Backend{client: client, prefix: prefixOrDefault(prefix)}
}

func prefixOrDefault(p string) string {
	if p == "" {
		return constants.DefaultRedisPrefix
	}
	return p
}

// Get implements storage.Reader.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := b.client.Get(ctx, b.prefix+key).Bytes()
	if goerrors.Is(err, goredis.Nil) {
		return nil, storage.ErrKeyNotFound
	}
	if err != nil {
		return nil, errors.WrapStorage("get", b.Name(), key, err)
	}
	return v, nil
}

// Set implements storage.Writer. Values never expire.
func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	if err := b.client.Set(ctx, b.prefix+key, value, 0).Err(); err != nil {
		return errors.WrapStorage("set", b.Name(), key, err)
	}
	return nil
}

// Delete implements storage.Writer.
func (b *Backend) Delete(ctx context.Context, key string) error {
	if err := b.client.Del(ctx, b.prefix+key).Err(); err != nil {
		return errors.WrapStorage("delete", b.Name(), key, err)
	}
	return nil
}

// Ping implements storage.Pinger.
func (b *Backend) Ping(ctx context.Context) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return errors.WrapStorage("ping", b.Name(), "", err)
	}
	return nil
}

// Name implements storage.Backend.
func (b *Backend) Name() string { return "redis" }

// Close implements storage.Backend.
func (b *Backend) Close() error {
	if !b.owned {
		return nil
	}
	return b.client.Close()
}
