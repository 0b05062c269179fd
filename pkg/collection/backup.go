package collection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/fieldmap/pkg/constants"
	"github.com/agentstation/fieldmap/pkg/errors"
)

// Backup is a portable snapshot of collection state.
//
// A nil Collected or Visibility means the field was absent and leaves that
// part of the store untouched on import. A non-nil value, even an empty
// one, replaces it.
type Backup struct {
	Version    int           `json:"version" yaml:"version"`
	ExportDate utc.Time      `json:"exportDate" yaml:"export_date"`
	Collected  []string      `json:"collected" yaml:"collected"`
	Visibility VisibilityMap `json:"visibility" yaml:"visibility"`

	// Warnings lists fields that were present but ignored while parsing.
	Warnings []string `json:"-" yaml:"-"`
}

type backupWire struct {
	Version    int           `json:"version"`
	ExportDate string        `json:"exportDate"`
	Collected  []string      `json:"collected"`
	Visibility VisibilityMap `json:"visibility"`
}

func (b Backup) wire() backupWire {
	w := backupWire{
		Version:    b.Version,
		Collected:  b.Collected,
		Visibility: b.Visibility,
	}
	if w.Collected == nil {
		w.Collected = []string{}
	}
	if w.Visibility == nil {
		w.Visibility = VisibilityMap{}
	}
	if !b.ExportDate.IsZero() {
		w.ExportDate = b.ExportDate.Format(constants.TimeFormatISO8601)
	}
	return w
}

// MarshalJSON implements json.Marshaler with an RFC 3339 exportDate.
func (b Backup) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.wire())
}

// UnmarshalJSON implements json.Unmarshaler using ParseBackup rules.
func (b *Backup) UnmarshalJSON(data []byte) error {
	parsed, err := ParseBackup(data)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// MarshalBackup encodes a backup as indented JSON.
func MarshalBackup(b Backup) ([]byte, error) {
	data, err := json.MarshalIndent(b.wire(), "", "  ")
	if err != nil {
		return nil, errors.WrapParse("json", "backup", err)
	}
	return append(data, '\n'), nil
}

// ParseBackup decodes and validates a backup document without touching
// any store.
func ParseBackup(data []byte) (Backup, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil || top == nil {
		return Backup{}, &errors.MalformedDataError{
			Source:  "backup",
			Message: "top level must be a JSON object",
			Err:     err,
		}
	}

	var b Backup
	if raw, ok := top["version"]; ok {
		if err := json.Unmarshal(raw, &b.Version); err != nil {
			b.Warnings = append(b.Warnings, "version is not an integer")
		}
	}
	if raw, ok := top["exportDate"]; ok {
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			if t, err := utc.Parse(time.RFC3339, s); err == nil {
				b.ExportDate = t
			} else {
				b.Warnings = append(b.Warnings, fmt.Sprintf("exportDate %q is not RFC 3339", s))
			}
		}
	}

	if raw, ok := top["collected"]; ok {
		ids, err := parseCollected(raw)
		if err != nil {
			return Backup{}, err
		}
		if ids == nil {
			b.Warnings = append(b.Warnings, "collected is not an array")
		}
		b.Collected = ids
	}

	if raw, ok := top["visibility"]; ok {
		vis, err := parseVisibility(raw)
		if err != nil {
			return Backup{}, err
		}
		if vis == nil {
			b.Warnings = append(b.Warnings, "visibility is not an object")
		}
		b.Visibility = vis
	}

	if b.Version > constants.BackupVersion {
		b.Warnings = append(b.Warnings,
			fmt.Sprintf("backup version %d is newer than supported version %d", b.Version, constants.BackupVersion))
	}
	return b, nil
}

// parseCollected returns nil, nil when raw is not an array.
func parseCollected(raw json.RawMessage) ([]string, error) {
	var elems []json.RawMessage
	if !isKind(raw, '[') || json.Unmarshal(raw, &elems) != nil {
		return nil, nil
	}
	ids := make([]string, 0, len(elems))
	for i, elem := range elems {
		var id string
		if !isKind(elem, '"') || json.Unmarshal(elem, &id) != nil {
			return nil, errors.NewMalformedDataError("backup", fmt.Sprintf("collected[%d]", i), "item id must be a string")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseVisibility returns nil, nil when raw is not an object.
func parseVisibility(raw json.RawMessage) (VisibilityMap, error) {
	var areas map[string]json.RawMessage
	if !isKind(raw, '{') || json.Unmarshal(raw, &areas) != nil {
		return nil, nil
	}
	vis := make(VisibilityMap, len(areas))
	for area, inner := range areas {
		var classes map[string]json.RawMessage
		if !isKind(inner, '{') || json.Unmarshal(inner, &classes) != nil {
			return nil, errors.NewMalformedDataError("backup", "visibility."+area, "must be an object of booleans")
		}
		settings := make(map[string]bool, len(classes))
		for cls, v := range classes {
			var visible bool
			if !isKind(v, 't', 'f') || json.Unmarshal(v, &visible) != nil {
				return nil, errors.NewMalformedDataError("backup", "visibility."+area+"."+cls, "must be a boolean")
			}
			settings[cls] = visible
		}
		vis[area] = settings
	}
	return vis, nil
}

// isKind reports whether the first non-space byte of raw is one of starts.
func isKind(raw json.RawMessage, starts ...byte) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return false
	}
	for _, c := range starts {
		if trimmed[0] == c {
			return true
		}
	}
	return false
}

// ExportBackup snapshots the store. Collected ids are sorted ascending.
func (s *Store) ExportBackup() Backup {
	s.mu.Lock()
	defer s.unlock()

	return Backup{
		Version:    constants.BackupVersion,
		ExportDate: utc.New(s.now().UTC().Truncate(time.Second)),
		Collected:  s.sortedCollected(),
		Visibility: s.visibility.clone(),
	}
}

// ImportBackup replaces the parts of the store present in b and persists
// them. Warnings recorded while parsing are logged. Unknown item ids are
// kept as is.
func (s *Store) ImportBackup(b Backup) error {
	for _, id := range b.Collected {
		if id == "" {
			return errors.NewMalformedDataError("backup", "collected", "item id is empty")
		}
	}

	s.mu.Lock()
	defer s.unlock()

	for _, w := range b.Warnings {
		s.logger.Warn().Str("backup_warning", w).Msg("Backup field ignored")
	}

	if b.Collected != nil {
		next := make(map[string]struct{}, len(b.Collected))
		for _, id := range b.Collected {
			next[id] = struct{}{}
		}
		s.collected = next
		s.persistCollected()
	}
	if b.Visibility != nil {
		s.visibility = b.Visibility.clone()
		s.persistVisibility()
	}

	s.logger.Info().
		Int("version", b.Version).
		Int("collected", len(s.collected)).
		Int("areas_with_visibility", len(s.visibility)).
		Bool("replaced_collected", b.Collected != nil).
		Bool("replaced_visibility", b.Visibility != nil).
		Msg("Backup imported")
	return nil
}
