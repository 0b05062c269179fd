// Package collection tracks which items have been collected and which
// classifications are hidden per area, and persists both through a
// storage.Backend.
//
// Every mutation is written through immediately. Storage failures never
// surface as errors from mutating calls: they are logged, reported to the
// configured WarningFunc, and the in-memory state stays authoritative.
package collection

import (
	"context"
	"encoding/json"
	goerrors "errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/fieldmap/pkg/constants"
	"github.com/agentstation/fieldmap/pkg/errors"
	"github.com/agentstation/fieldmap/pkg/storage"
)

// VisibilityMap maps area title to classification to visible.
type VisibilityMap map[string]map[string]bool

// clone returns a deep copy.
func (v VisibilityMap) clone() VisibilityMap {
	out := make(VisibilityMap, len(v))
	for area, inner := range v {
		cp := make(map[string]bool, len(inner))
		for cls, visible := range inner {
			cp[cls] = visible
		}
		out[area] = cp
	}
	return out
}

// WarningFunc receives storage failures that were absorbed by the store.
// It runs after the store lock is released and may call back into the store.
type WarningFunc func(err error)

// Store holds the collected set and visibility map.
type Store struct {
	mu         sync.Mutex
	backend    storage.Backend
	collected  map[string]struct{}
	visibility VisibilityMap

	collectedKey  string
	visibilityKey string
	timeout       time.Duration
	logger        *zerolog.Logger
	warnMu        sync.RWMutex
	warn          []WarningFunc
	now           func() time.Time
	failures      int
	lastErr       error
	pending       []error // warnings raised under mu, delivered by unlock
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithWarningFunc registers a callback for absorbed storage failures.
func WithWarningFunc(fn WarningFunc) Option {
	return func(s *Store) {
		if fn != nil {
			s.warn = append(s.warn, fn)
		}
	}
}

// WithKeys overrides the storage keys.
func WithKeys(collectedKey, visibilityKey string) Option {
	return func(s *Store) {
		if collectedKey != "" {
			s.collectedKey = collectedKey
		}
		if visibilityKey != "" {
			s.visibilityKey = visibilityKey
		}
	}
}

// WithTimeout bounds each backend call.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClock overrides the clock used for backup export dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open creates a Store and loads persisted state. Unreadable or corrupt
// state loads as empty and is reported as a warning.
func Open(ctx context.Context, backend storage.Backend, opts ...Option) *Store {
	nop := zerolog.Nop()
	s := &Store{
		backend:       backend,
		collected:     make(map[string]struct{}),
		visibility:    make(VisibilityMap),
		collectedKey:  constants.CollectedKey,
		visibilityKey: constants.VisibilityKey,
		timeout:       constants.StorageTimeout,
		logger:        &nop,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reload(ctx)
	return s
}

// Reload replaces in-memory state with what the backend holds. A key that
// cannot be read or decoded keeps its current in-memory value.
func (s *Store) Reload(ctx context.Context) {
	s.mu.Lock()
	defer s.unlock()

	var ids []string
	switch s.read(ctx, s.collectedKey, &ids) {
	case readOK:
		s.collected = make(map[string]struct{}, len(ids))
		for _, id := range ids {
			s.collected[id] = struct{}{}
		}
	case readMissing:
		s.collected = make(map[string]struct{})
	}

	var vis VisibilityMap
	switch s.read(ctx, s.visibilityKey, &vis) {
	case readOK:
		if vis == nil {
			vis = make(VisibilityMap)
		}
		for area, inner := range vis {
			if inner == nil {
				delete(vis, area)
			}
		}
		s.visibility = vis
	case readMissing:
		s.visibility = make(VisibilityMap)
	}

	s.logger.Debug().
		Str("backend", s.backend.Name()).
		Int("collected", len(s.collected)).
		Int("areas_with_visibility", len(s.visibility)).
		Msg("Collection state loaded")
}

type readResult int

const (
	readOK readResult = iota
	readMissing
	readFailed
)

// read decodes key into v. Only a failed read produces a warning.
func (s *Store) read(ctx context.Context, key string, v any) readResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.backend.Get(ctx, key)
	if goerrors.Is(err, storage.ErrKeyNotFound) {
		return readMissing
	}
	if err != nil {
		s.absorb("read", key, err)
		return readFailed
	}
	if err := json.Unmarshal(raw, v); err != nil {
		s.absorb("read", key, errors.WrapStorage("decode", s.backend.Name(), key, errors.WrapParse("json", key, err)))
		return readFailed
	}
	return readOK
}

// write persists v under key. Callers hold s.mu.
func (s *Store) write(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.absorb("write", key, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.backend.Set(ctx, key, raw); err != nil {
		s.absorb("write", key, err)
	}
}

// unlock releases mu, then hands queued warnings to every listener.
func (s *Store) unlock() {
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	if len(pending) == 0 {
		return
	}

	s.warnMu.RLock()
	listeners := s.warn
	s.warnMu.RUnlock()
	for _, err := range pending {
		for _, fn := range listeners {
			fn(err)
		}
	}
}

// OnWarning adds a callback for storage failures absorbed from now on.
func (s *Store) OnWarning(fn WarningFunc) {
	if fn == nil {
		return
	}
	s.warnMu.Lock()
	defer s.warnMu.Unlock()
	s.warn = append(s.warn, fn)
}

// absorb records a storage failure. Callers hold s.mu.
func (s *Store) absorb(op, key string, err error) {
	if !errors.IsStorageUnavailable(err) {
		err = errors.WrapStorage(op, s.backend.Name(), key, err)
	}
	s.failures++
	s.lastErr = err
	s.logger.Warn().
		Err(err).
		Str("backend", s.backend.Name()).
		Str("key", key).
		Str("operation", op).
		Msg("Storage unavailable, keeping in-memory state")
	s.pending = append(s.pending, err)
}

func (s *Store) persistCollected() {
	s.write(s.collectedKey, s.sortedCollected())
}

func (s *Store) persistVisibility() {
	s.write(s.visibilityKey, s.visibility)
}

func (s *Store) sortedCollected() []string {
	ids := make([]string, 0, len(s.collected))
	for id := range s.collected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsCollected reports whether id is collected. Unknown ids are not.
func (s *Store) IsCollected(id string) bool {
	s.mu.Lock()
	defer s.unlock()
	_, ok := s.collected[id]
	return ok
}

// SetCollected records the state of id and persists it. It returns
// whether anything changed; an unchanged state writes nothing.
func (s *Store) SetCollected(id string, collected bool) bool {
	s.mu.Lock()
	defer s.unlock()

	_, has := s.collected[id]
	if has == collected {
		return false
	}
	if collected {
		s.collected[id] = struct{}{}
	} else {
		delete(s.collected, id)
	}
	s.persistCollected()
	return true
}

// ResetArea uncollects the given ids with a single write and returns how
// many were removed. Ids that are not collected are skipped.
func (s *Store) ResetArea(ids []string) int {
	s.mu.Lock()
	defer s.unlock()

	removed := 0
	for _, id := range ids {
		if _, ok := s.collected[id]; ok {
			delete(s.collected, id)
			removed++
		}
	}
	if removed > 0 {
		s.persistCollected()
	}
	return removed
}

// Visibility returns a copy of the classification visibility of an area.
// A missing area yields an empty map; missing classifications are visible.
func (s *Store) Visibility(area string) map[string]bool {
	s.mu.Lock()
	defer s.unlock()

	out := make(map[string]bool, len(s.visibility[area]))
	for cls, visible := range s.visibility[area] {
		out[cls] = visible
	}
	return out
}

// IsVisible reports whether a classification is shown in an area.
func (s *Store) IsVisible(area, classification string) bool {
	s.mu.Lock()
	defer s.unlock()

	visible, ok := s.visibility[area][classification]
	return !ok || visible
}

// SetVisibility merges one classification setting into an area and
// persists the whole visibility map.
func (s *Store) SetVisibility(area, classification string, visible bool) {
	s.mu.Lock()
	defer s.unlock()

	inner := s.visibility[area]
	if inner == nil {
		inner = make(map[string]bool)
		s.visibility[area] = inner
	}
	inner[classification] = visible
	s.persistVisibility()
}

// VisibilityMap returns a deep copy of every area's settings.
func (s *Store) VisibilityMap() VisibilityMap {
	s.mu.Lock()
	defer s.unlock()
	return s.visibility.clone()
}

// Collected returns the collected ids in ascending order.
func (s *Store) Collected() []string {
	s.mu.Lock()
	defer s.unlock()
	return s.sortedCollected()
}

// Len returns the number of collected ids.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.unlock()
	return len(s.collected)
}

// Failures returns how many storage failures were absorbed, and the last one.
func (s *Store) Failures() (int, error) {
	s.mu.Lock()
	defer s.unlock()
	return s.failures, s.lastErr
}

// Backend returns the underlying storage backend.
func (s *Store) Backend() storage.Backend {
	return s.backend
}
