package fieldmap

import (
	"sync"

	"github.com/agentstation/fieldmap/pkg/collection"
)

// Hook function types for collection events
type (
	// ItemToggledHook is called after an item changes collected state
	ItemToggledHook func(result ToggleResult)

	// AreaResetHook is called after the current area is reset
	AreaResetHook func(area string, removed int)

	// VisibilityChangedHook is called after a classification is shown or hidden
	VisibilityChangedHook func(area, classification string, visible bool)

	// BackupImportedHook is called after a backup replaced collection state
	BackupImportedHook func(backup collection.Backup)

	// StorageWarningHook is called when a write or read failed and the
	// in-memory state was kept
	StorageWarningHook func(err error)
)

// Hooks registers callbacks. Callbacks run synchronously once the
// mutation is complete and outside the client lock, so they may call
// back into the client.
type Hooks interface {
	OnItemToggled(fn ItemToggledHook)
	OnAreaReset(fn AreaResetHook)
	OnVisibilityChanged(fn VisibilityChangedHook)
	OnBackupImported(fn BackupImportedHook)
	OnStorageWarning(fn StorageWarningHook)
}

// hooks manages event callbacks for collection changes
type hooks struct {
	mu                  sync.RWMutex
	onItemToggled       []ItemToggledHook
	onAreaReset         []AreaResetHook
	onVisibilityChanged []VisibilityChangedHook
	onBackupImported    []BackupImportedHook
	onStorageWarning    []StorageWarningHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnItemToggled registers a callback for item toggles
func (c *client) OnItemToggled(fn ItemToggledHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onItemToggled = append(c.hooks.onItemToggled, fn)
}

// OnAreaReset registers a callback for area resets
func (c *client) OnAreaReset(fn AreaResetHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onAreaReset = append(c.hooks.onAreaReset, fn)
}

// OnVisibilityChanged registers a callback for visibility changes
func (c *client) OnVisibilityChanged(fn VisibilityChangedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onVisibilityChanged = append(c.hooks.onVisibilityChanged, fn)
}

// OnBackupImported registers a callback for backup imports
func (c *client) OnBackupImported(fn BackupImportedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onBackupImported = append(c.hooks.onBackupImported, fn)
}

// OnStorageWarning registers a callback for absorbed storage failures
func (c *client) OnStorageWarning(fn StorageWarningHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onStorageWarning = append(c.hooks.onStorageWarning, fn)
}

func (c *client) queueWarning(err error) {
	c.warnMu.Lock()
	defer c.warnMu.Unlock()
	c.warnings = append(c.warnings, err)
}

// flushWarnings runs the storage warning hooks. Callers must not hold c.mu.
func (c *client) flushWarnings() {
	c.warnMu.Lock()
	pending := c.warnings
	c.warnings = nil
	c.warnMu.Unlock()

	for _, err := range pending {
		c.hooks.storageWarning(err)
	}
}

func (h *hooks) itemToggled(result ToggleResult) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onItemToggled {
		fn(result)
	}
}

func (h *hooks) areaReset(area string, removed int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onAreaReset {
		fn(area, removed)
	}
}

func (h *hooks) visibilityChanged(area, classification string, visible bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onVisibilityChanged {
		fn(area, classification, visible)
	}
}

func (h *hooks) backupImported(b collection.Backup) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onBackupImported {
		fn(b)
	}
}

func (h *hooks) storageWarning(err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onStorageWarning {
		fn(err)
	}
}
