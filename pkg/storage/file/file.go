// Package file stores each key as a JSON file in a directory. Writes go
// through a temp file and rename so a crash never leaves a torn value.
package file

import (
	"context"
	"os"
	"path/filepath"
	"regexp"

	"github.com/agentstation/fieldmap/internal/fsutil"
	"github.com/agentstation/fieldmap/pkg/constants"
	"github.com/agentstation/fieldmap/pkg/errors"
	"github.com/agentstation/fieldmap/pkg/storage"
)

var _ storage.Backend = (*Backend)(nil)

var validKey = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Backend persists values under a directory.
type Backend struct {
	dir string
}

// New creates a file backend rooted at dir, creating it if needed.
// A leading ~ is expanded to the home directory.
func New(dir string) (*Backend, error) {
	dir = fsutil.ExpandHome(dir)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return nil, errors.WrapStorage("open", "file", dir, err)
	}
	return &Backend{dir: dir}, nil
}

// Dir returns the state directory.
func (b *Backend) Dir() string { return b.dir }

func (b *Backend) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", errors.NewValidationError("key", key, "must contain only letters, digits, '.', '_' or '-'")
	}
	return filepath.Join(b.dir, key+".json"), nil
}

// Get implements storage.Reader.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapStorage("get", b.Name(), key, err)
	}
	p, err := b.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, storage.ErrKeyNotFound
	}
	if err != nil {
		return nil, errors.WrapStorage("get", b.Name(), key, err)
	}
	return data, nil
}

// Set implements storage.Writer.
func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return errors.WrapStorage("set", b.Name(), key, err)
	}
	p, err := b.path(key)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(p, value, constants.SecureFilePermissions); err != nil {
		return errors.WrapStorage("set", b.Name(), key, err)
	}
	return nil
}

// Delete implements storage.Writer.
func (b *Backend) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return errors.WrapStorage("delete", b.Name(), key, err)
	}
	p, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return errors.WrapStorage("delete", b.Name(), key, err)
	}
	return nil
}

// Ping checks the directory is still writable.
func (b *Backend) Ping(_ context.Context) error {
	info, err := os.Stat(b.dir)
	if err != nil {
		return errors.WrapStorage("ping", b.Name(), "", err)
	}
	if !info.IsDir() {
		return errors.WrapStorage("ping", b.Name(), "", errors.New(b.dir+" is not a directory"))
	}
	return nil
}

// Name implements storage.Backend.
func (b *Backend) Name() string { return "file" }

// Close implements storage.Backend.
func (b *Backend) Close() error { return nil }
