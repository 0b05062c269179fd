// Package serve provides the command that runs the HTTP API server.
package serve

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/fieldmap/cmd/application"
	"github.com/agentstation/fieldmap/internal/server"
	"github.com/agentstation/fieldmap/pkg/constants"
)

// shutdownGrace bounds connection draining after a shutdown signal.
const shutdownGrace = 30 * time.Second

// NewCommand creates the serve command. Flags override the server
// section of the configuration.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		GroupID: "core",
		Short:   "Start the REST API server with WebSocket and SSE updates",
		Long: `Serve exposes the catalog and collection state over HTTP.

Features:
  - Catalog, area, item and backup endpoints under the path prefix
  - WebSocket (/updates/ws) and Server-Sent Events (/updates/stream)
    notifications for toggles, resets and visibility changes
  - In-memory caching of catalog responses
  - Optional API key authentication and CORS
  - Prometheus metrics on /metrics
  - Health (/health) and readiness (/ready) checks
  - Graceful shutdown with connection draining`,
		Example: `  fieldmap serve
  fieldmap serve --port 3000 --auth
  fieldmap serve --cors-origins "https://example.com"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd, app)
		},
	}

	defaults := app.ServerConfig()
	cmd.Flags().Int("port", defaults.Port, "server port")
	cmd.Flags().String("host", defaults.Host, "bind address")
	cmd.Flags().String("prefix", defaults.PathPrefix, "API path prefix")
	cmd.Flags().Bool("cors", defaults.CORSEnabled, "enable CORS for all origins")
	cmd.Flags().StringSlice("cors-origins", defaults.CORSOrigins, "allowed CORS origins (comma-separated)")
	cmd.Flags().Bool("auth", defaults.AuthEnabled, "require an API key (server.api_key or FIELDMAP_SERVER_API_KEY)")
	cmd.Flags().String("auth-header", defaults.AuthHeader, "authentication header name")
	cmd.Flags().Duration("cache-ttl", defaults.CacheTTL, "catalog response cache TTL")
	cmd.Flags().Bool("metrics", defaults.MetricsEnabled, "enable the /metrics endpoint")
	return cmd
}

func runServer(cmd *cobra.Command, app application.Application) error {
	cfg := parseConfig(cmd, app.ServerConfig())
	logger := app.Logger()

	client, err := app.Client(cmd.Context())
	if err != nil {
		return err
	}

	srv, err := server.New(client, cfg, logger, app.Metrics())
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.Start()

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	logger.Info().
		Str("addr", httpServer.Addr).
		Str("prefix", cfg.PathPrefix).
		Bool("cors", cfg.CORSEnabled).
		Bool("auth", cfg.AuthEnabled).
		Bool("metrics", cfg.MetricsEnabled).
		Dur("cache_ttl", cfg.CacheTTL).
		Msg("Starting API server")

	return serveUntilDone(cmd.Context(), httpServer, srv, logger)
}

// parseConfig applies changed flags on top of the configured settings.
func parseConfig(cmd *cobra.Command, cfg server.Config) server.Config {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port = mustGet(flags.GetInt("port"))
	}
	if flags.Changed("host") {
		cfg.Host = mustGet(flags.GetString("host"))
	}
	if flags.Changed("prefix") {
		cfg.PathPrefix = mustGet(flags.GetString("prefix"))
	}
	if flags.Changed("cors") {
		cfg.CORSEnabled = mustGet(flags.GetBool("cors"))
	}
	if flags.Changed("cors-origins") {
		cfg.CORSOrigins = mustGet(flags.GetStringSlice("cors-origins"))
		cfg.CORSEnabled = true
	}
	if flags.Changed("auth") {
		cfg.AuthEnabled = mustGet(flags.GetBool("auth"))
	}
	if flags.Changed("auth-header") {
		cfg.AuthHeader = mustGet(flags.GetString("auth-header"))
	}
	if flags.Changed("cache-ttl") {
		cfg.CacheTTL = mustGet(flags.GetDuration("cache-ttl"))
	}
	if flags.Changed("metrics") {
		cfg.MetricsEnabled = mustGet(flags.GetBool("metrics"))
	}
	return cfg
}

// serveUntilDone runs httpServer until it fails or ctx is cancelled, then
// drains connections and stops background services.
func serveUntilDone(ctx context.Context, httpServer *http.Server, srv *server.Server, logger *zerolog.Logger) error {
	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case err := <-serverErr:
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return err
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received")

		// The parent context is already cancelled.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Background services shutdown had issues")
		}
		logger.Info().Msg("Server stopped gracefully")
		return nil
	}
}

// mustGet unwraps a flag lookup. Flags are defined in this package, so
// an error is a programming error.
func mustGet[T any](v T, err error) T {
	if err != nil {
		panic("programming error: " + err.Error())
	}
	return v
}
