// Package metrics exposes Prometheus instrumentation for the HTTP server,
// the storage backends and collection events.
package metrics

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentstation/fieldmap/pkg/storage"
)

const namespace = "fieldmap"

var durationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}

// Metrics owns a registry and the collectors registered on it.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	StorageOpsTotal   *prometheus.CounterVec
	StorageDuration   *prometheus.HistogramVec
	ItemsToggledTotal *prometheus.CounterVec
	AreaResetsTotal   prometheus.Counter
	ItemsResetTotal   prometheus.Counter
	VisibilityTotal   *prometheus.CounterVec
	BackupsImported   prometheus.Counter
}

// New creates a Metrics instance with its own registry, so tests and
// multiple servers never collide on the global one.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   durationBuckets,
		}, []string{"method", "route"}),
		StorageOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_operations_total",
			Help:      "Storage backend operations by result",
		}, []string{"backend", "operation", "result"}),
		StorageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "storage_operation_duration_seconds",
			Help:      "Storage backend operation duration in seconds",
			Buckets:   durationBuckets,
		}, []string{"backend", "operation"}),
		ItemsToggledTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_toggled_total",
			Help:      "Item toggles by resulting state",
		}, []string{"collected"}),
		AreaResetsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "area_resets_total",
			Help:      "Area resets performed",
		}),
		ItemsResetTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_reset_total",
			Help:      "Items uncollected by area resets",
		}),
		VisibilityTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visibility_changes_total",
			Help:      "Classification visibility changes by resulting state",
		}, []string{"visible"}),
		BackupsImported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backups_imported_total",
			Help:      "Backups imported",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestsTotal,
		m.RequestDuration,
		m.StorageOpsTotal,
		m.StorageDuration,
		m.ItemsToggledTotal,
		m.AreaResetsTotal,
		m.ItemsResetTotal,
		m.VisibilityTotal,
		m.BackupsImported,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// GaugeFunc registers a gauge whose value is read from fn at scrape time.
// Registering a name again replaces the earlier gauge.
func (m *Metrics) GaugeFunc(name, help string, fn func() float64) {
	g := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn)
	if err := m.registry.Register(g); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			panic(err)
		}
		m.registry.Unregister(are.ExistingCollector)
		m.registry.MustRegister(g)
	}
}

// ObserveToggle counts one item toggle.
func (m *Metrics) ObserveToggle(collected bool) {
	m.ItemsToggledTotal.WithLabelValues(strconv.FormatBool(collected)).Inc()
}

// ObserveReset counts one area reset.
func (m *Metrics) ObserveReset(removed int) {
	m.AreaResetsTotal.Inc()
	m.ItemsResetTotal.Add(float64(removed))
}

// ObserveVisibility counts one visibility change.
func (m *Metrics) ObserveVisibility(visible bool) {
	m.VisibilityTotal.WithLabelValues(strconv.FormatBool(visible)).Inc()
}

// Middleware records request counts and durations. The route label is the
// matched ServeMux pattern so ids in paths do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the flusher and hijacker.
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return h.Hijack()
}

func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// InstrumentBackend wraps b so every call is counted and timed.
func (m *Metrics) InstrumentBackend(b storage.Backend) storage.Backend {
	return &instrumented{Backend: b, m: m}
}

type instrumented struct {
	storage.Backend
	m *Metrics
}

func (i *instrumented) observe(op string, start time.Time, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrKeyNotFound):
		result = "miss"
	default:
		result = "error"
	}
	name := i.Backend.Name()
	i.m.StorageOpsTotal.WithLabelValues(name, op, result).Inc()
	i.m.StorageDuration.WithLabelValues(name, op).Observe(time.Since(start).Seconds())
}

func (i *instrumented) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	v, err := i.Backend.Get(ctx, key)
	i.observe("get", start, err)
	return v, err
}

func (i *instrumented) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := i.Backend.Set(ctx, key, value)
	i.observe("set", start, err)
	return err
}

func (i *instrumented) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := i.Backend.Delete(ctx, key)
	i.observe("delete", start, err)
	return err
}

// Ping forwards to the wrapped backend when it supports pinging.
func (i *instrumented) Ping(ctx context.Context) error {
	return storage.Ping(ctx, i.Backend)
}
