// Package constants provides shared constants used throughout fieldmap:
// timeouts, file permissions, storage keys and catalog defaults.
package constants

import "time"

// Timeout constants
const (
	// DefaultHTTPTimeout bounds catalog and overlay downloads.
	DefaultHTTPTimeout = 30 * time.Second

	// UpdateHTTPTimeout bounds a catalog refresh, which may fetch a large document.
	UpdateHTTPTimeout = 60 * time.Second

	// StorageTimeout is applied to each backend read or write.
	StorageTimeout = 5 * time.Second

	// ShutdownTimeout is how long the CLI waits for a graceful shutdown.
	ShutdownTimeout = 5 * time.Second

	// DialTimeout is the timeout for establishing backend connections.
	DialTimeout = 10 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644

	// SecureFilePermissions is for user state such as progress files (rw-------)
	SecureFilePermissions = 0600
)

// Storage constants
const (
	// CollectedKey is the storage key holding the JSON array of collected item ids.
	CollectedKey = "fieldmap_collected"

	// VisibilityKey is the storage key holding the per-area visibility map.
	VisibilityKey = "fieldmap_visibility"

	// BackupVersion is the backup document version written by ExportBackup.
	BackupVersion = 1

	// DefaultStatePath is where the file backend keeps its state.
	DefaultStatePath = "~/.fieldmap/state"

	// DefaultPostgresTable is the key-value table used by the postgres backend.
	DefaultPostgresTable = "fieldmap_state"

	// DefaultRedisPrefix namespaces keys in a shared redis database.
	DefaultRedisPrefix = "fieldmap:"
)

// Catalog constants
const (
	// DefaultCatalogFile is the catalog document looked up in the working directory.
	DefaultCatalogFile = "map.json"

	// DefaultDescriptionsFile is the optional description overlay.
	DefaultDescriptionsFile = "descriptions.json"

	// DefaultArea is selected when the UI starts with no explicit area.
	DefaultArea = "Valley IV:The Hub"

	// UnknownClassification groups items that carry no title.
	UnknownClassification = "Unknown"

	// DefaultIconRef is shown for items and classifications without a pin icon.
	DefaultIconRef = "https://img.game8.co/4383512/06b2c71bebe6a5ecce17a8e22c385bf9.png/show"

	// RegionSeparator splits an area title into region and area name.
	RegionSeparator = ":"
)

// Cache constants
const (
	// CacheTTL is the default time-to-live for cached catalog responses.
	CacheTTL = 15 * time.Minute

	// CacheCleanupInterval is how often to clean expired cache entries.
	CacheCleanupInterval = 5 * time.Minute
)

// Limit constants
const (
	// ChannelBufferSize is the default buffer size for event channels.
	ChannelBufferSize = 100

	// EventHistorySize is how many recent events are kept for SSE replay.
	EventHistorySize = 64

	// SSEKeepAlive is the interval of comment frames on idle SSE streams.
	SSEKeepAlive = 25 * time.Second

	// MaxBackupSize caps the size of an imported backup document (16 MiB).
	MaxBackupSize = 16 << 20
)

// Format constants
const (
	// TimeFormatISO8601 is the timestamp format of backup exportDate.
	TimeFormatISO8601 = time.RFC3339

	// TimeFormatFilename is the format used in generated backup filenames.
	TimeFormatFilename = "2006-01-02"
)
