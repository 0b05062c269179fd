package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/fieldmap/pkg/errors"
)

func TestClientGet(t *testing.T) {
	var gotUA, gotAccept, gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		gotReferer = r.Header.Get("Referer")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(WithReferer("https://example.com/page"))
	body, err := c.GetJSON(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, DefaultUserAgent, gotUA)
	assert.Contains(t, gotAccept, "application/json")
	assert.Equal(t, "https://example.com/page", gotReferer)
}

func TestClientGetStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New().GetHTML(context.Background(), srv.URL)
	require.Error(t, err)

	var ioErr *errors.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "fetch", ioErr.Operation)
	assert.Contains(t, err.Error(), "403")
}

func TestClientGetCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(WithHTTPClient(srv.Client())).GetJSON(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}
