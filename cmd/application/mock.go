package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/fieldmap"
	"github.com/agentstation/fieldmap/internal/metrics"
	"github.com/agentstation/fieldmap/internal/server"
	"github.com/agentstation/fieldmap/pkg/logging"
)

var _ Application = (*Mock)(nil)

// Mock implements Application for tests. A nil function field yields a
// zero value.
type Mock struct {
	ClientFunc       func(ctx context.Context) (fieldmap.Client, error)
	MetricsFunc      func() *metrics.Metrics
	ServerConfigFunc func() server.Config
	CatalogPathFunc  func() string
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
}

// Client returns a client using the mock function or nil.
func (m *Mock) Client(ctx context.Context) (fieldmap.Client, error) {
	if m.ClientFunc != nil {
		return m.ClientFunc(ctx)
	}
	return nil, nil
}

// Metrics returns metrics using the mock function or nil.
func (m *Mock) Metrics() *metrics.Metrics {
	if m.MetricsFunc != nil {
		return m.MetricsFunc()
	}
	return nil
}

// ServerConfig returns the mock config or the server defaults.
func (m *Mock) ServerConfig() server.Config {
	if m.ServerConfigFunc != nil {
		return m.ServerConfigFunc()
	}
	return server.DefaultConfig()
}

// CatalogPath returns the mock path or "".
func (m *Mock) CatalogPath() string {
	if m.CatalogPathFunc != nil {
		return m.CatalogPathFunc()
	}
	return ""
}

// Logger returns the mock logger or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	return &logging.Nop
}

// OutputFormat returns the mock format or "json".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "json"
}

// Version returns "test".
func (m *Mock) Version() string { return "test" }

// Commit returns "test".
func (m *Mock) Commit() string { return "test" }

// Date returns "test".
func (m *Mock) Date() string { return "test" }

// BuiltBy returns "test".
func (m *Mock) BuiltBy() string { return "test" }
