package server

import (
	"net/http"

	"github.com/agentstation/fieldmap/internal/server/handlers"
	"github.com/agentstation/fieldmap/internal/server/middleware"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()

	h := handlers.New(handlers.Deps{
		Client:   s.client,
		Cache:    s.cache,
		Broker:   s.broker,
		Hub:      s.wsHub,
		Stream:   s.sseBroadcaster,
		Upgrader: s.upgrader,
		Logger:   s.logger,
	})

	s.registerRoutes(mux, h)
	return s.applyMiddleware(mux)
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux, h *handlers.Handlers) {
	p := s.config.PathPrefix

	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Health
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET "+p+"/health", h.HandleHealth)
	mux.HandleFunc("GET "+p+"/ready", h.HandleReady)

	// Catalog
	mux.HandleFunc("GET "+p+"/regions", h.HandleListRegions)
	mux.HandleFunc("GET "+p+"/regions/{region}/areas", h.HandleListAreas)
	mux.HandleFunc("GET "+p+"/areas/{area}", h.HandleGetArea)
	mux.HandleFunc("GET "+p+"/areas/{area}/items", h.HandleListAreaItems)
	mux.HandleFunc("GET "+p+"/images", h.HandleListImages)

	// Collection
	mux.HandleFunc("POST "+p+"/areas/select", h.HandleSelectArea)
	mux.HandleFunc("GET "+p+"/current", h.HandleCurrent)
	mux.HandleFunc("POST "+p+"/items/{id}/toggle", h.HandleToggleItem)
	mux.HandleFunc("PUT "+p+"/visibility", h.HandleSetVisibility)
	mux.HandleFunc("GET "+p+"/uncollected", h.HandleUncollected)
	mux.HandleFunc("POST "+p+"/reset", h.HandleReset)
	mux.HandleFunc("GET "+p+"/summaries", h.HandleSummaries)
	mux.HandleFunc("GET "+p+"/progress", h.HandleProgress)
	mux.HandleFunc("GET "+p+"/backup", h.HandleExportBackup)
	mux.HandleFunc("POST "+p+"/backup", h.HandleImportBackup)

	// Admin
	mux.HandleFunc("POST "+p+"/reload", h.HandleReload)
	mux.HandleFunc("GET "+p+"/stats", h.HandleStats)

	// Realtime
	mux.HandleFunc("GET "+p+"/updates/ws", h.HandleWebSocket)
	mux.HandleFunc("GET "+p+"/updates/stream", h.HandleSSE)

	if s.config.MetricsEnabled && s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

// applyMiddleware wraps handler with the middleware chain. Recovery runs
// outermost so panics in any later middleware are caught.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	cfg := s.config
	chain := []func(http.Handler) http.Handler{
		middleware.Recovery(s.logger),
		middleware.Logger(s.logger),
	}

	if cfg.CORSEnabled {
		chain = append(chain, middleware.CORS(cfg.CORSOrigins, cfg.AuthHeader))
	}

	if cfg.AuthEnabled {
		authConfig := middleware.DefaultAuthConfig(cfg.PathPrefix)
		authConfig.APIKey = cfg.APIKey
		if cfg.AuthHeader != "" {
			authConfig.HeaderName = cfg.AuthHeader
		}
		chain = append(chain, middleware.Auth(authConfig, s.logger))
	}

	if s.metrics != nil {
		chain = append(chain, s.metrics.Middleware)
	}

	return middleware.Chain(chain...)(handler)
}
