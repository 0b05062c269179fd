package fieldmap

import (
	"context"

	"github.com/agentstation/fieldmap/pkg/aggregator"
	"github.com/agentstation/fieldmap/pkg/collection"
	"github.com/agentstation/fieldmap/pkg/storage"
)

// Compile-time interface check to ensure proper implementation.
var _ Persistence = (*client)(nil)

// Persistence handles backup export and import.
type Persistence interface {
	// ExportBackup snapshots the collection state
	ExportBackup() collection.Backup

	// ImportBackup replaces collection state from a validated backup
	ImportBackup(b collection.Backup) error

	// ExportFile writes a backup file, lz4 compressed for .lz4 paths
	ExportFile(path string) (collection.Backup, error)

	// ImportFile reads, validates and imports a backup file
	ImportFile(path string) (collection.Backup, error)

	// Storage reports the health of the storage backend
	Storage(ctx context.Context) StorageStatus
}

// StorageStatus describes the storage backend behind the collection.
type StorageStatus struct {
	Backend   string `json:"backend" yaml:"backend"`
	Collected int    `json:"collected" yaml:"collected"`
	Failures  int    `json:"failures" yaml:"failures"`
	LastError string `json:"lastError,omitempty" yaml:"last_error,omitempty"`
	Reachable bool   `json:"reachable" yaml:"reachable"`
}

// ExportBackup snapshots the collection state.
func (c *client) ExportBackup() collection.Backup {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.ExportBackup()
}

// ImportBackup replaces collection state and recounts the current area.
// Nothing changes when the backup is rejected.
func (c *client) ImportBackup(b collection.Backup) error {
	c.mu.Lock()
	if err := c.store.ImportBackup(b); err != nil {
		c.mu.Unlock()
		return err
	}
	aggregator.Recount(c.summaries, c.isCollected)
	c.mu.Unlock()

	c.flushWarnings()
	c.hooks.backupImported(b)
	return nil
}

// ExportFile writes the current state to path.
func (c *client) ExportFile(path string) (collection.Backup, error) {
	b := c.ExportBackup()
	if err := collection.WriteBackupFile(path, b); err != nil {
		return collection.Backup{}, err
	}
	c.logger.Info().
		Str("path", path).
		Int("collected", len(b.Collected)).
		Msg("Backup exported")
	return b, nil
}

// ImportFile imports the backup stored at path.
func (c *client) ImportFile(path string) (collection.Backup, error) {
	b, err := collection.ReadBackupFile(path)
	if err != nil {
		return collection.Backup{}, err
	}
	if err := c.ImportBackup(b); err != nil {
		return collection.Backup{}, err
	}
	return b, nil
}

// Storage pings the backend and reports absorbed storage failures.
func (c *client) Storage(ctx context.Context) StorageStatus {
	failures, lastErr := c.store.Failures()
	status := StorageStatus{
		Backend:   c.store.Backend().Name(),
		Collected: c.store.Len(),
		Failures:  failures,
		Reachable: storage.Ping(ctx, c.store.Backend()) == nil,
	}
	if lastErr != nil {
		status.LastError = lastErr.Error()
	}
	return status
}
