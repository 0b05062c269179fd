// Package app provides the application context and dependency management
// for the fieldmap CLI. Configuration, logging and the lazily created
// client live here so commands only see the application.Application
// interface.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/fieldmap"
	"github.com/agentstation/fieldmap/cmd/application"
	"github.com/agentstation/fieldmap/internal/metrics"
	"github.com/agentstation/fieldmap/internal/server"
	"github.com/agentstation/fieldmap/pkg/catalogs"
	"github.com/agentstation/fieldmap/pkg/collection"
	"github.com/agentstation/fieldmap/pkg/constants"
	"github.com/agentstation/fieldmap/pkg/errors"
	"github.com/agentstation/fieldmap/pkg/storage"
	"github.com/agentstation/fieldmap/pkg/storage/backends"
)

var _ application.Application = (*App)(nil)

// App represents the fieldmap application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	metricsOnce sync.Once
	metrics     *metrics.Metrics

	// Client instance (lazy-initialized, singleton)
	mu      sync.RWMutex
	client  fieldmap.Client
	backend storage.Backend
}

// New creates an App with configuration loaded from the environment and
// the default config file locations.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, err
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// ServerConfig returns the API server settings.
func (a *App) ServerConfig() server.Config {
	return a.config.Server
}

// CatalogPath returns the local catalog file, or "" when the catalog is
// embedded or remote.
func (a *App) CatalogPath() string {
	if src := a.config.CatalogSource(); src.Kind == catalogs.SourceFile {
		return src.Location
	}
	return ""
}

// Metrics returns the metrics registry shared by storage and the server.
func (a *App) Metrics() *metrics.Metrics {
	a.metricsOnce.Do(func() {
		if a.metrics == nil {
			a.metrics = metrics.New()
		}
	})
	return a.metrics
}

// Client returns the fieldmap client, creating it on first use. The
// catalog is loaded and the storage backend opened only once.
func (a *App) Client(ctx context.Context) (fieldmap.Client, error) {
	a.mu.RLock()
	if a.client != nil {
		c := a.client
		a.mu.RUnlock()
		return c, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}

	cat, err := a.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	backend, err := backends.Open(ctx, a.config.Storage)
	if err != nil {
		return nil, err
	}
	backend = a.Metrics().InstrumentBackend(backend)

	store := collection.Open(ctx, backend,
		collection.WithLogger(a.logger),
		collection.WithKeys(a.config.Storage.CollectedKey, a.config.Storage.VisibilityKey),
	)

	opts := []fieldmap.Option{
		fieldmap.WithLogger(a.logger),
		fieldmap.WithAutoReload(a.config.AutoReload),
	}
	switch {
	case a.config.Area != "":
		opts = append(opts, fieldmap.WithInitialArea(a.config.Area))
	case cat.HasArea(constants.DefaultArea):
		opts = append(opts, fieldmap.WithInitialArea(constants.DefaultArea))
	}

	client, err := fieldmap.New(cat, store, opts...)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	a.client = client
	a.backend = backend
	return client, nil
}

func (a *App) loadCatalog(ctx context.Context) (*catalogs.Catalog, error) {
	opts := []catalogs.Option{catalogs.WithLogger(a.logger)}
	if src, ok := a.config.DescriptionsSource(); ok {
		opts = append(opts, catalogs.WithOverlaySource(src))
	}
	return catalogs.Load(ctx, a.config.CatalogSource(), opts...)
}

// Shutdown stops background reloads and closes the storage backend.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var firstErr error
	if a.client != nil {
		if err := a.client.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to stop auto reload during shutdown")
			firstErr = err
		}
		a.client = nil
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil && firstErr == nil {
			firstErr = errors.WrapStorage("close", a.backend.Name(), "", err)
		}
		a.backend = nil
	}
	return firstErr
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithClient sets a prebuilt client (useful for testing).
func WithClient(c fieldmap.Client) Option {
	return func(a *App) error {
		a.client = c
		return nil
	}
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *App) error {
		a.metrics = m
		return nil
	}
}
