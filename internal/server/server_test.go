package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/fieldmap"
	"github.com/agentstation/fieldmap/pkg/catalogs"
	"github.com/agentstation/fieldmap/pkg/collection"
	"github.com/agentstation/fieldmap/pkg/logging"
	"github.com/agentstation/fieldmap/pkg/storage"
	"github.com/agentstation/fieldmap/pkg/storage/memory"
	"github.com/agentstation/fieldmap/pkg/storage/storagetest"
)

const serverMapJSON = `{
	"areas": [
		{"title": "Forest:Glade", "url": "glade.png"},
		{"title": "Forest:Grove", "url": "grove.png"},
		{"title": "Coast:Cove", "url": "cove.png"}
	],
	"coordinateArraySchema": {
		"coordinates": [
			{"id": "g1", "area": "Forest:Glade", "title": "Herb", "coordinate": "1,1"},
			{"id": "g2", "area": "Forest:Glade", "title": "Herb", "coordinate": "2,2"},
			{"id": "g3", "area": "Forest:Glade", "title": "Chest", "coordinate": "3,3"},
			{"id": "v1", "area": "Forest:Grove", "title": "Herb", "coordinate": "4,4"},
			{"id": "c1", "area": "Coast:Cove", "title": "Shell", "coordinate": "5,5"}
		]
	}
}`

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestServer(t *testing.T, mutate func(*Config)) (*Server, *httptest.Server) {
	t.Helper()
	return newTestServerOn(t, memory.New(), mutate)
}

func newTestServerOn(t *testing.T, backend storage.Backend, mutate func(*Config)) (*Server, *httptest.Server) {
	t.Helper()

	data, err := catalogs.Decode(strings.NewReader(serverMapJSON), "test.json")
	require.NoError(t, err)
	cat, err := catalogs.New(data)
	require.NoError(t, err)

	client, err := fieldmap.New(cat, collection.Open(context.Background(), backend),
		fieldmap.WithLogger(&logging.Nop))
	require.NoError(t, err)

	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	srv, err := New(client, cfg, &logging.Nop, nil)
	require.NoError(t, err)
	srv.Start()

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		_ = client.Close()
	})
	return srv, ts
}

func do(t *testing.T, ts *httptest.Server, method, path string, body any) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.URL+path, r)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func dataAs[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil, DefaultConfig(), &logging.Nop, nil)
	require.Error(t, err)

	srv, _ := newTestServer(t, nil)
	cfg := DefaultConfig()
	cfg.AuthEnabled = true
	_, err = New(srv.client, cfg, &logging.Nop, nil)
	require.Error(t, err, "auth without a key")
}

func TestShutdownWithoutStart(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	unstarted, err := New(srv.client, DefaultConfig(), &logging.Nop, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, unstarted.Shutdown(ctx))
}

func TestCatalogEndpoints(t *testing.T) {
	srv, ts := newTestServer(t, nil)

	status, env := do(t, ts, http.MethodGet, "/api/v1/regions", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"Forest", "Coast"}, dataAs[map[string][]string](t, env)["regions"])

	status, env = do(t, ts, http.MethodGet, "/api/v1/regions/Forest/areas", nil)
	require.Equal(t, http.StatusOK, status)
	areas := dataAs[struct {
		Region string   `json:"region"`
		Areas  []string `json:"areas"`
	}](t, env)
	assert.Equal(t, "Forest", areas.Region)
	assert.Equal(t, []string{"Forest:Glade", "Forest:Grove"}, areas.Areas)

	status, env = do(t, ts, http.MethodGet, "/api/v1/regions/Nowhere/areas", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, dataAs[map[string][]string](t, env)["areas"])

	status, env = do(t, ts, http.MethodGet, "/api/v1/images", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"glade.png", "grove.png", "cove.png"}, dataAs[map[string][]string](t, env)["images"])

	status, env = do(t, ts, http.MethodGet, "/api/v1/areas/"+url.PathEscape("Forest:Glade")+"/items?classification=Herb", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, dataAs[map[string]any](t, env)["count"])

	status, env = do(t, ts, http.MethodGet, "/api/v1/areas/Nowhere", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	assert.Positive(t, srv.Cache().GetStats().ItemCount)
}

func TestCollectionFlow(t *testing.T) {
	_, ts := newTestServer(t, nil)

	status, env := do(t, ts, http.MethodGet, "/api/v1/current", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "NO_AREA_SELECTED", env.Error.Code)

	status, _ = do(t, ts, http.MethodPost, "/api/v1/reset", nil)
	assert.Equal(t, http.StatusConflict, status)

	status, env = do(t, ts, http.MethodPost, "/api/v1/areas/select", map[string]string{"area": "Nowhere"})
	assert.Equal(t, http.StatusNotFound, status)

	status, env = do(t, ts, http.MethodPost, "/api/v1/areas/select", map[string]string{"area": "Forest:Glade"})
	require.Equal(t, http.StatusOK, status)
	view := dataAs[fieldmap.AreaView](t, env)
	assert.Equal(t, "Forest", view.Region)
	require.Len(t, view.Summaries, 2)
	assert.Equal(t, "Herb", view.Summaries[0].Name)

	status, env = do(t, ts, http.MethodPost, "/api/v1/items/g1/toggle", nil)
	require.Equal(t, http.StatusOK, status)
	result := dataAs[fieldmap.ToggleResult](t, env)
	assert.True(t, result.Collected)
	require.NotNil(t, result.Summary)
	assert.Equal(t, 1, result.Summary.CollectedCount)

	status, _ = do(t, ts, http.MethodPost, "/api/v1/items/zzz/toggle", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = do(t, ts, http.MethodGet, "/api/v1/uncollected", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, dataAs[map[string]any](t, env)["count"])

	status, env = do(t, ts, http.MethodGet, "/api/v1/uncollected?classification=Chest", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, dataAs[map[string]any](t, env)["count"])

	status, env = do(t, ts, http.MethodPost, "/api/v1/reset", nil)
	require.Equal(t, http.StatusOK, status)
	reset := dataAs[map[string]any](t, env)
	assert.EqualValues(t, 1, reset["removed"])

	status, env = do(t, ts, http.MethodGet, "/api/v1/progress", nil)
	require.Equal(t, http.StatusOK, status)
	progress := dataAs[map[string][]fieldmap.AreaProgress](t, env)["areas"]
	require.Len(t, progress, 3)
	assert.Zero(t, progress[0].Collected)
	assert.Equal(t, 3, progress[0].Total)
}

func TestVisibilityEndpoint(t *testing.T) {
	_, ts := newTestServer(t, nil)

	status, _ := do(t, ts, http.MethodPut, "/api/v1/visibility", map[string]any{
		"area": "Forest:Glade", "classification": "Herb",
	})
	assert.Equal(t, http.StatusBadRequest, status, "visible is required")

	status, _ = do(t, ts, http.MethodPut, "/api/v1/visibility", map[string]any{
		"area": "Nowhere", "classification": "Herb", "visible": false,
	})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, ts, http.MethodPut, "/api/v1/visibility", map[string]any{
		"area": "Forest:Glade", "classification": "Herb", "visible": false,
	})
	require.Equal(t, http.StatusOK, status)

	_, env := do(t, ts, http.MethodPost, "/api/v1/areas/select", map[string]string{"area": "Forest:Glade"})
	view := dataAs[fieldmap.AreaView](t, env)
	assert.Equal(t, map[string]bool{"Herb": false}, view.Visibility)
}

func TestBackupEndpoints(t *testing.T) {
	_, ts := newTestServer(t, nil)

	status, _ := do(t, ts, http.MethodPost, "/api/v1/backup", map[string]any{
		"version":    1,
		"exportDate": "2025-01-02T03:04:05Z",
		"collected":  []string{"g1", "c1", "retired"},
		"visibility": map[string]map[string]bool{"Coast:Cove": {"Shell": false}},
	})
	require.Equal(t, http.StatusOK, status)

	resp, err := ts.Client().Get(ts.URL + "/api/v1/backup")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "fieldmap-backup-")

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	b, err := collection.ParseBackup(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "g1", "retired"}, b.Collected)
	assert.False(t, b.Visibility["Coast:Cove"]["Shell"])

	status, env := do(t, ts, http.MethodPost, "/api/v1/backup", map[string]any{"collected": "nope"})
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, dataAs[map[string]any](t, env)["warnings"])

	status, env = do(t, ts, http.MethodPost, "/api/v1/backup", map[string]any{"collected": []any{1}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "BAD_REQUEST", env.Error.Code)
}

func TestHealthAndStats(t *testing.T) {
	_, ts := newTestServer(t, nil)

	status, _ := do(t, ts, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)

	status, env := do(t, ts, http.MethodGet, "/api/v1/ready", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready", dataAs[map[string]any](t, env)["status"])

	status, _ = do(t, ts, http.MethodPost, "/api/v1/reload", nil)
	assert.Equal(t, http.StatusOK, status)

	status, env = do(t, ts, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, status)
	catalog := dataAs[map[string]map[string]any](t, env)["catalog"]
	assert.EqualValues(t, 5, catalog["items_total"])
}

func TestAuth(t *testing.T) {
	_, ts := newTestServer(t, func(c *Config) {
		c.AuthEnabled = true
		c.APIKey = "secret"
	})

	status, _ := do(t, ts, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, status)

	metricsResp, err := ts.Client().Get(ts.URL + "/metrics")
	require.NoError(t, err)
	metricsResp.Body.Close()
	assert.Equal(t, http.StatusOK, metricsResp.StatusCode)

	status, env := do(t, ts, http.MethodGet, "/api/v1/regions", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/regions", nil)
	require.NoError(t, err)
	req.Header.Set("X-API-Key", "secret")
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestServer(t, nil)
	do(t, ts, http.MethodPost, "/api/v1/areas/select", map[string]string{"area": "Forest:Glade"})
	do(t, ts, http.MethodPost, "/api/v1/items/g1/toggle", nil)

	resp, err := ts.Client().Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `fieldmap_items_toggled_total{collected="true"} 1`)
	assert.Contains(t, string(body), `route="POST /api/v1/items/{id}/toggle"`)
}

func TestMetricsDisabled(t *testing.T) {
	_, ts := newTestServer(t, func(c *Config) { c.MetricsEnabled = false })
	resp, err := ts.Client().Get(ts.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSSEReceivesToggle(t *testing.T) {
	srv, ts := newTestServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/updates/stream", nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: connected", lines.Text())
	require.Eventually(t, func() bool { return srv.sseBroadcaster.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	do(t, ts, http.MethodPost, "/api/v1/items/c1/toggle", nil)

	for lines.Scan() {
		if lines.Text() == "event: item.toggled" {
			require.True(t, lines.Scan()) // id
			require.True(t, lines.Scan())
			assert.Contains(t, lines.Text(), `"itemId":"c1"`)
			return
		}
	}
	t.Fatal("item.toggled event not received")
}

func TestWebSocketReceivesReset(t *testing.T) {
	srv, ts := newTestServer(t, nil)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/updates/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return srv.wsHub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	do(t, ts, http.MethodPost, "/api/v1/areas/select", map[string]string{"area": "Forest:Glade"})
	do(t, ts, http.MethodPost, "/api/v1/reset", nil)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg struct {
			Type string         `json:"type"`
			Data map[string]any `json:"data"`
		}
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == "area.reset" {
			assert.Equal(t, "Forest:Glade", msg.Data["area"])
			return
		}
	}
}

func TestWebSocketReceivesStorageWarning(t *testing.T) {
	backend := storagetest.NewBackend()
	srv, ts := newTestServerOn(t, backend, nil)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/updates/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return srv.wsHub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	do(t, ts, http.MethodPost, "/api/v1/areas/select", map[string]string{"area": "Forest:Glade"})
	backend.FailWrites(true)
	status, env := do(t, ts, http.MethodPost, "/api/v1/items/g1/toggle", nil)
	require.Equal(t, http.StatusOK, status, "the toggle still applies in memory")
	assert.True(t, dataAs[map[string]any](t, env)["collected"].(bool))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg struct {
			Type string         `json:"type"`
			Data map[string]any `json:"data"`
		}
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == "storage.warning" {
			assert.Equal(t, "faulty", msg.Data["backend"])
			assert.Equal(t, "set", msg.Data["operation"])
			assert.Contains(t, msg.Data["message"], "could not be saved")
			return
		}
	}
}
