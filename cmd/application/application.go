// Package application defines what fieldmap commands need from the
// running application.
//
// Commands accept this interface instead of the concrete App so they can be
// tested with a mock:
//
//	mock := &application.Mock{
//	    ClientFunc: func(context.Context) (fieldmap.Client, error) {
//	        return testClient, nil
//	    },
//	}
//	cmd := collect.NewToggleCommand(mock)
package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/fieldmap"
	"github.com/agentstation/fieldmap/internal/metrics"
	"github.com/agentstation/fieldmap/internal/server"
)

// Application provides the dependencies shared by commands.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Client returns the fieldmap client, creating it lazily. The catalog is
	// loaded and the collection store opened on first use.
	Client(ctx context.Context) (fieldmap.Client, error)

	// Metrics returns the metrics shared by the storage backend and server.
	Metrics() *metrics.Metrics

	// ServerConfig returns the configured API server settings.
	ServerConfig() server.Config

	// CatalogPath returns the local catalog file refreshed by update, or
	// "" when the catalog is not a local file.
	CatalogPath() string

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml, wide).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
