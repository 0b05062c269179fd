// Package backends builds a storage.Backend from configuration.
package backends

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentstation/fieldmap/pkg/constants"
	"github.com/agentstation/fieldmap/pkg/errors"
	"github.com/agentstation/fieldmap/pkg/storage"
	"github.com/agentstation/fieldmap/pkg/storage/file"
	"github.com/agentstation/fieldmap/pkg/storage/memory"
	"github.com/agentstation/fieldmap/pkg/storage/postgres"
	"github.com/agentstation/fieldmap/pkg/storage/redis"
)

// Kind names a backend implementation.
type Kind string

// Supported backends.
const (
	Memory   Kind = "memory"
	File     Kind = "file"
	Redis    Kind = "redis"
	Postgres Kind = "postgres"
)

// Kinds lists the supported backends.
func Kinds() []Kind {
	return []Kind{File, Memory, Redis, Postgres}
}

// Config selects and configures a backend.
type Config struct {
	Backend Kind `mapstructure:"backend" yaml:"backend" json:"backend"`

	// Path is the state directory of the file backend.
	Path string `mapstructure:"path" yaml:"path" json:"path"`

	Redis    RedisConfig    `mapstructure:"redis" yaml:"redis" json:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres" json:"postgres"`

	// Keys the collection state is stored under, whatever the backend.
	CollectedKey  string `mapstructure:"collected_key" yaml:"collected_key" json:"collected_key"`
	VisibilityKey string `mapstructure:"visibility_key" yaml:"visibility_key" json:"visibility_key"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr" json:"addr"`
	Password string `mapstructure:"password" yaml:"password" json:"-"`
	DB       int    `mapstructure:"db" yaml:"db" json:"db"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix" json:"prefix"`
}

// PostgresConfig configures the postgres backend.
type PostgresConfig struct {
	DSN   string `mapstructure:"dsn" yaml:"dsn" json:"-"`
	Table string `mapstructure:"table" yaml:"table" json:"table"`
}

// DefaultConfig returns a file backend under the user's home directory.
func DefaultConfig() Config {
	return Config{
		Backend: File,
		Path:    constants.DefaultStatePath,
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: constants.DefaultRedisPrefix,
		},
		Postgres: PostgresConfig{
			Table: constants.DefaultPostgresTable,
		},
		CollectedKey:  constants.CollectedKey,
		VisibilityKey: constants.VisibilityKey,
	}
}

// Open creates the configured backend. Network backends are pinged so
// configuration mistakes surface at startup rather than on the first write.
func Open(ctx context.Context, cfg Config) (storage.Backend, error) {
	switch Kind(strings.ToLower(string(cfg.Backend))) {
	case Memory:
		return memory.New(), nil
	case File, "":
		path := cfg.Path
		if path == "" {
			path = constants.DefaultStatePath
		}
		return file.New(path)
	case Redis:
		if cfg.Redis.Addr == "" {
			return nil, errors.NewConfigError("storage", "redis backend requires storage.redis.addr", nil)
		}
		b := redis.New(redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err := pingWithTimeout(ctx, b); err != nil {
			_ = b.Close()
			return nil, err
		}
		return b, nil
	case Postgres:
		if cfg.Postgres.DSN == "" {
			return nil, errors.NewConfigError("storage", "postgres backend requires storage.postgres.dsn", nil)
		}
		ctx, cancel := context.WithTimeout(ctx, constants.DialTimeout)
		defer cancel()
		return postgres.Open(ctx, cfg.Postgres.DSN, cfg.Postgres.Table)
	default:
		return nil, errors.NewConfigError("storage", fmt.Sprintf("unknown backend %q (want one of %v)", cfg.Backend, Kinds()), nil)
	}
}

func pingWithTimeout(ctx context.Context, b storage.Backend) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DialTimeout)
	defer cancel()
	return storage.Ping(ctx, b)
}
