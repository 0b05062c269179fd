// Package postgres stores values in a single key-value table.
package postgres

import (
	"context"
	"database/sql"
	goerrors "errors"
	"fmt"
	"regexp"

	_ "github.com/lib/pq" // postgres driver

	"github.com/agentstation/fieldmap/pkg/constants"
	"github.com/agentstation/fieldmap/pkg/errors"
	"github.com/agentstation/fieldmap/pkg/storage"
)

var _ storage.Backend = (*Backend)(nil)

var validTable = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Backend is a PostgreSQL-backed storage.Backend.
type Backend struct {
	db    *sql.DB
	table string
	owned bool
}

// Open connects using a lib/pq DSN and makes sure the table exists.
func Open(ctx context.Context, dsn, table string) (*Backend, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.WrapStorage("open", "postgres", "", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	b, err := New(ctx, db, table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	b.owned = true
	return b, nil
}

// New wraps an open database. Close does not close it.
func New(ctx context.Context, db *sql.DB, table string) (*Backend, error) {
	if table == "" {
		table = constants.DefaultPostgresTable
	}
	if !validTable.MatchString(table) {
		return nil, errors.NewValidationError("table", table, "must be a plain SQL identifier")
	}
	b := &Backend{db: db, table: table}
	if err := b.migrate(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Backend) migrate(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, b.table)
	if _, err := b.db.ExecContext(ctx, stmt); err != nil {
		return errors.WrapStorage("migrate", b.Name(), b.table, err)
	}
	return nil
}

// Get implements storage.Reader.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := b.db.QueryRowContext(ctx, fmt.Sprintf("SELECT value FROM %s WHERE key=$1", b.table), key).Scan(&value)
	if goerrors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrKeyNotFound
	}
	if err != nil {
		return nil, errors.WrapStorage("get", b.Name(), key, err)
	}
	return value, nil
}

// Set implements storage.Writer.
func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	stmt := fmt.Sprintf(`INSERT INTO %s(key, value, updated_at) VALUES($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=EXCLUDED.updated_at`, b.table)
	if _, err := b.db.ExecContext(ctx, stmt, key, value); err != nil {
		return errors.WrapStorage("set", b.Name(), key, err)
	}
	return nil
}

// Delete implements storage.Writer.
func (b *Backend) Delete(ctx context.Context, key string) error {
	if _, err := b.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE key=$1", b.table), key); err != nil {
		return errors.WrapStorage("delete", b.Name(), key, err)
	}
	return nil
}

// Ping implements storage.Pinger.
func (b *Backend) Ping(ctx context.Context) error {
	if err := b.db.PingContext(ctx); err != nil {
		return errors.WrapStorage("ping", b.Name(), "", err)
	}
	return nil
}

// Name implements storage.Backend.
func (b *Backend) Name() string { return "postgres" }

// Close implements storage.Backend.
func (b *Backend) Close() error {
	if !b.owned {
		return nil
	}
	return b.db.Close()
}
