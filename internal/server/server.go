// Package server provides the HTTP API for a fieldmap.Client, with
// realtime updates over WebSocket and Server-Sent Events.
package server

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/fieldmap"
	"github.com/agentstation/fieldmap/internal/metrics"
	"github.com/agentstation/fieldmap/internal/server/cache"
	"github.com/agentstation/fieldmap/internal/server/events"
	"github.com/agentstation/fieldmap/internal/server/events/adapters"
	"github.com/agentstation/fieldmap/internal/server/sse"
	ws "github.com/agentstation/fieldmap/internal/server/websocket"
	"github.com/agentstation/fieldmap/pkg/collection"
	"github.com/agentstation/fieldmap/pkg/constants"
	"github.com/agentstation/fieldmap/pkg/errors"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	client         fieldmap.Client
	cache          *cache.Cache
	broker         *events.Broker
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	metrics        *metrics.Metrics
	upgrader       websocket.Upgrader
	logger         *zerolog.Logger
	config         Config
	ctx            context.Context
	cancel         context.CancelFunc
	done           chan struct{}
	started        atomic.Bool
	startTime      time.Time
}

// New creates a server for client. m may be nil when metrics are disabled.
func New(client fieldmap.Client, cfg Config, logger *zerolog.Logger, m *metrics.Metrics) (*Server, error) {
	if client == nil {
		return nil, errors.NewValidationError("client", nil, "client is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = constants.CacheTTL
	}
	if cfg.MetricsEnabled && m == nil {
		m = metrics.New()
	}

	broker := events.NewBroker(logger)
	wsHub := ws.NewHub(logger)
	sseBroadcaster := sse.NewBroadcaster(logger)

	broker.Subscribe(adapters.WebSocket(wsHub))
	broker.Subscribe(adapters.SSE(broker, sseBroadcaster))

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		client:         client,
		cache:          cache.New(cfg.CacheTTL, constants.CacheCleanupInterval),
		broker:         broker,
		wsHub:          wsHub,
		sseBroadcaster: sseBroadcaster,
		metrics:        m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		logger:    logger,
		config:    cfg,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		startTime: time.Now(),
	}

	s.connectHooks()
	if m != nil {
		s.registerGauges()
	}

	logger.Debug().
		Bool("auth", cfg.AuthEnabled).
		Bool("cors", cfg.CORSEnabled).
		Bool("metrics", cfg.MetricsEnabled).
		Msg("Server instance created")
	return s, nil
}

// connectHooks publishes client events to the broker and counts them.
func (s *Server) connectHooks() {
	s.client.OnItemToggled(func(r fieldmap.ToggleResult) {
		s.broker.Publish(events.ItemToggled, r)
		if s.metrics != nil {
			s.metrics.ObserveToggle(r.Collected)
		}
	})

	s.client.OnAreaReset(func(area string, removed int) {
		s.broker.Publish(events.AreaReset, events.AreaResetData{Area: area, Removed: removed})
		if s.metrics != nil {
			s.metrics.ObserveReset(removed)
		}
	})

	s.client.OnVisibilityChanged(func(area, classification string, visible bool) {
		s.broker.Publish(events.VisibilityChanged, events.VisibilityData{
			Area:           area,
			Classification: classification,
			Visible:        visible,
		})
		if s.metrics != nil {
			s.metrics.ObserveVisibility(visible)
		}
	})

	s.client.OnBackupImported(func(b collection.Backup) {
		s.broker.Publish(events.BackupImported, events.BackupImportedData{
			Collected:  len(b.Collected),
			ExportDate: b.ExportDate,
		})
		if s.metrics != nil {
			s.metrics.BackupsImported.Inc()
		}
	})

	s.client.OnStorageWarning(func(err error) {
		data := events.StorageWarningData{Message: "Progress could not be saved: " + err.Error()}
		var se *errors.StorageError
		if errors.As(err, &se) {
			data.Backend = se.Backend
			data.Operation = se.Operation
		}
		s.broker.Publish(events.StorageWarning, data)
	})

	s.logger.Debug().Msg("Client hooks connected to event broker")
}

func (s *Server) registerGauges() {
	s.metrics.GaugeFunc("websocket_clients", "Connected WebSocket clients", func() float64 {
		return float64(s.wsHub.ClientCount())
	})
	s.metrics.GaugeFunc("sse_clients", "Connected SSE clients", func() float64 {
		return float64(s.sseBroadcaster.ClientCount())
	})
	s.metrics.GaugeFunc("events_queue_depth", "Events waiting in the broker", func() float64 {
		return float64(s.broker.QueueDepth())
	})
}

// Start starts the broker, WebSocket hub and SSE broadcaster.
func (s *Server) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	started := make(chan struct{}, 3)
	run := func(fn func(context.Context)) {
		started <- struct{}{}
		fn(s.ctx)
	}

	go func() {
		defer close(s.done)
		go run(s.wsHub.Run)
		go run(s.sseBroadcaster.Run)
		run(s.broker.Run)
	}()

	for range 3 {
		<-started
	}
	s.logger.Debug().Msg("Background services started")
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// Shutdown stops background services, waiting for the broker to close
// its subscribers or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down server background services")
	s.cancel()
	if !s.started.Load() {
		return nil
	}

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		s.logger.Warn().Msg("Background services shutdown timed out")
		return ctx.Err()
	}
}

// Broker returns the event broker.
func (s *Server) Broker() *events.Broker {
	return s.broker
}

// Cache returns the catalog query cache.
func (s *Server) Cache() *cache.Cache {
	return s.cache
}
