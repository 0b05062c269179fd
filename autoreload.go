package fieldmap

import (
	"context"
	"time"

	"github.com/agentstation/fieldmap/pkg/aggregator"
	"github.com/agentstation/fieldmap/pkg/constants"
	"github.com/agentstation/fieldmap/pkg/errors"
)

// Compile-time interface check to ensure proper implementation.
var _ AutoReloader = (*client)(nil)

// AutoReloader controls periodic re-reading of the collection store.
type AutoReloader interface {
	// AutoReloadOn starts reloading at the configured interval
	AutoReloadOn() error

	// AutoReloadOff stops reloading
	AutoReloadOff() error

	// Reload re-reads the store once and recounts the current area
	Reload(ctx context.Context)
}

// AutoReloadOn starts the reload loop. Any running loop is replaced.
func (c *client) AutoReloadOn() error {
	if c.options.autoReloadInterval <= 0 {
		return &errors.ValidationError{
			Field:   "autoReloadInterval",
			Value:   c.options.autoReloadInterval,
			Message: "reload interval must be positive",
		}
	}

	if err := c.AutoReloadOff(); err != nil {
		return err
	}

	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	ticker := time.NewTicker(c.options.autoReloadInterval)
	ctx, cancel := context.WithCancel(context.Background())
	c.reloadTicker = ticker
	c.reloadCancel = cancel

	go func() {
		for {
			select {
			case <-ticker.C:
				reloadCtx, reloadCancel := context.WithTimeout(ctx, constants.StorageTimeout)
				c.Reload(reloadCtx)
				reloadCancel()
			case <-ctx.Done():
				return
			}
		}
	}()

	c.logger.Debug().
		Dur("interval", c.options.autoReloadInterval).
		Msg("Auto reload started")
	return nil
}

// AutoReloadOff stops the reload loop.
func (c *client) AutoReloadOff() error {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	if c.reloadTicker != nil {
		c.reloadTicker.Stop()
		c.reloadTicker = nil
	}
	if c.reloadCancel != nil {
		c.reloadCancel()
		c.reloadCancel = nil
	}
	return nil
}

// Reload re-reads collection state and recounts the current area.
func (c *client) Reload(ctx context.Context) {
	c.mu.Lock()
	c.store.Reload(ctx)
	aggregator.Recount(c.summaries, c.isCollected)
	c.mu.Unlock()

	c.flushWarnings()
}
