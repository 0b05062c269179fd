package fieldmap

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/fieldmap/pkg/errors"
	"github.com/agentstation/fieldmap/pkg/logging"
)

// options holds the configured options for a Client.
type options struct {
	logger             *zerolog.Logger
	initialArea        string
	autoReloadInterval time.Duration
}

// Option configures a Client.
type Option func(*options) error

func defaults() *options {
	return &options{
		logger: logging.Default(),
	}
}

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger != nil {
			o.logger = logger
		}
		return nil
	}
}

// WithInitialArea selects an area as soon as the client is created.
func WithInitialArea(title string) Option {
	return func(o *options) error {
		o.initialArea = title
		return nil
	}
}

// WithAutoReload re-reads the collection store from its backend at the
// given interval. Useful when several processes share a redis or
// postgres backend.
func WithAutoReload(interval time.Duration) Option {
	return func(o *options) error {
		if interval < 0 {
			return &errors.ValidationError{
				Field:   "autoReloadInterval",
				Value:   interval,
				Message: "reload interval must not be negative",
			}
		}
		o.autoReloadInterval = interval
		return nil
	}
}
