// Package events fans collection events out to realtime transports.
//
// Client hooks publish into a Broker, and the broker forwards every event
// to its subscribers (WebSocket hub, SSE broadcaster). Each event gets a
// sequence number so stream clients can resume after a reconnect.
package events

import (
	"time"

	"github.com/agentstation/utc"
)

// EventType names a collection event.
type EventType string

// Event types.
const (
	ItemToggled       EventType = "item.toggled"
	AreaReset         EventType = "area.reset"
	VisibilityChanged EventType = "visibility.changed"
	BackupImported    EventType = "backup.imported"
	AreaSelected      EventType = "area.selected"
	StorageWarning    EventType = "storage.warning"
)

// Event is one published occurrence.
type Event struct {
	Seq       uint64    `json:"seq"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// AreaSelectedData is the payload of AreaSelected.
type AreaSelectedData struct {
	Area string `json:"area"`
}

// AreaResetData is the payload of AreaReset.
type AreaResetData struct {
	Area    string `json:"area"`
	Removed int    `json:"removed"`
}

// VisibilityData is the payload of VisibilityChanged.
type VisibilityData struct {
	Area           string `json:"area"`
	Classification string `json:"classification"`
	Visible        bool   `json:"visible"`
}

// BackupImportedData is the payload of BackupImported.
type BackupImportedData struct {
	Collected  int      `json:"collected"`
	ExportDate utc.Time `json:"exportDate,omitzero"`
}

// StorageWarningData is the payload of StorageWarning. The change it
// follows is applied in memory but was not saved.
type StorageWarningData struct {
	Message   string `json:"message"`
	Backend   string `json:"backend,omitempty"`
	Operation string `json:"operation,omitempty"`
}
