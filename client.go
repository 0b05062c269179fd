// Package fieldmap tracks collection progress over a catalog of map areas.
//
// A Client ties together the immutable catalog, the persisted collection
// store and the per-classification counts of the currently selected area.
// All methods are safe for concurrent use; they are serialized so every
// operation observes the previous one completely.
//
// Example usage:
//
//	cat, err := catalogs.Load(ctx, catalogs.Embedded("map.json"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	backend, err := file.New("~/.fieldmap/state")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fm, err := fieldmap.New(cat, collection.Open(ctx, backend))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fm.OnItemToggled(func(r fieldmap.ToggleResult) {
//	    log.Printf("%s collected=%t", r.ItemID, r.Collected)
//	})
//
//	view, err := fm.SelectArea("Valley IV:The Hub")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, s := range view.Summaries {
//	    fmt.Printf("%s %d/%d\n", s.Name, s.CollectedCount, s.TotalCount)
//	}
package fieldmap

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/fieldmap/pkg/aggregator"
	"github.com/agentstation/fieldmap/pkg/catalogs"
	"github.com/agentstation/fieldmap/pkg/collection"
	"github.com/agentstation/fieldmap/pkg/errors"
)

// Client is the query and mutation surface over a catalog and its
// collection state.
type Client interface {

	// Navigator lists regions, areas and images and selects an area
	Navigator

	// Collector toggles items and visibility and resets areas
	Collector

	// Persistence exports and imports backups
	Persistence

	// AutoReloader periodically re-reads shared storage
	AutoReloader

	// Hooks provides access to event callback registration
	Hooks

	// Close stops background work
	Close() error
}

// client is the internal implementation of the Client interface.
type client struct {
	options *options
	logger  *zerolog.Logger

	catalog *catalogs.Catalog
	store   *collection.Store

	// cursors over the selected area
	mu        sync.Mutex
	current   string
	items     []catalogs.Item
	summaries []aggregator.Summary

	// auto reload state
	reloadMu     sync.Mutex
	reloadTicker *time.Ticker
	reloadCancel context.CancelFunc

	hooks *hooks

	// storage warnings raised under mu, handed to hooks once it is released
	warnMu   sync.Mutex
	warnings []error
}

// New creates a Client over cat and store.
func New(cat *catalogs.Catalog, store *collection.Store, opts ...Option) (Client, error) {
	if cat == nil {
		return nil, errors.NewValidationError("catalog", nil, "catalog is required")
	}
	if store == nil {
		return nil, errors.NewValidationError("store", nil, "collection store is required")
	}

	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}

	c := &client{
		options: o,
		logger:  o.logger,
		catalog: cat,
		store:   store,
		hooks:   newHooks(),
	}
	store.OnWarning(c.queueWarning)

	if o.initialArea != "" {
		if _, err := c.SelectArea(o.initialArea); err != nil {
			return nil, err
		}
	}

	if o.autoReloadInterval > 0 {
		if err := c.AutoReloadOn(); err != nil {
			return nil, err
		}
	}

	c.logger.Debug().
		Int("areas", len(cat.Areas())).
		Int("items", cat.Len()).
		Int("collected", store.Len()).
		Str("backend", store.Backend().Name()).
		Msg("Client ready")

	return c, nil
}

// Catalog returns the underlying catalog. Catalogs are immutable.
func (c *client) Catalog() *catalogs.Catalog {
	return c.catalog
}

// Close stops background work.
func (c *client) Close() error {
	return c.AutoReloadOff()
}

func (c *client) isCollected(id string) bool {
	return c.store.IsCollected(id)
}
