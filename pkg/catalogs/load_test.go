package catalogs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/fieldmap/pkg/errors"
	"github.com/agentstation/fieldmap/pkg/logging"
)

func TestParseSource(t *testing.T) {
	tests := []struct {
		in       string
		kind     SourceKind
		location string
	}{
		{"", SourceEmbedded, "map.json"},
		{"embedded", SourceEmbedded, "map.json"},
		{"embedded:descriptions.json", SourceEmbedded, "descriptions.json"},
		{"https://example.com/map.json", SourceURL, "https://example.com/map.json"},
		{"http://localhost/map.json", SourceURL, "http://localhost/map.json"},
		{"./data/map.json", SourceFile, "./data/map.json"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			src := ParseSource(tt.in)
			assert.Equal(t, tt.kind, src.Kind)
			assert.Equal(t, tt.location, src.Location)
		})
	}
	assert.Equal(t, "embedded:map.json", ParseSource("embedded").String())
}

func TestLoadEmbedded(t *testing.T) {
	tl := logging.NewTestLogger(t)
	cat, err := Load(context.Background(), Embedded("map.json"),
		WithOverlaySource(Embedded("descriptions.json")),
		WithLogger(tl.Logger),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"Valley IV", "Jingyu Valley"}, cat.Regions())
	assert.True(t, cat.HasArea("Valley IV:The Hub"))

	chest, ok := cat.Item("hub-004")
	require.True(t, ok)
	assert.Equal(t, "Standard chest guarded by two enemies.", chest.Description)

	tl.AssertContains(t, "Catalog loaded")
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"map.json":  {Data: []byte(testMapJSON)},
		"desc.json": {Data: []byte(`not json`)},
	}

	tl := logging.NewTestLogger(t)
	cat, err := Load(context.Background(), FromFS(fsys, "map.json"),
		WithOverlaySource(FromFS(fsys, "desc.json")),
		WithLogger(tl.Logger),
	)
	require.NoError(t, err, "a broken overlay is not fatal")
	assert.Equal(t, 4, cat.Len())
	tl.AssertContains(t, "Description overlay not applied")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "map.json")
	require.NoError(t, os.WriteFile(path, []byte(testMapJSON), 0o644))

	cat, err := Load(context.Background(), FromFile(path))
	require.NoError(t, err)
	assert.Equal(t, []string{"R1", "R2", "Lonely"}, cat.Regions())

	_, err = Load(context.Background(), FromFile(filepath.Join(dir, "missing.json")))
	var ioErr *errors.IOError
	assert.ErrorAs(t, err, &ioErr)
}

func TestLoadURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(testMapJSON))
	}))
	defer srv.Close()

	cat, err := Load(context.Background(), FromURL(srv.URL+"/map.json"), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	assert.Equal(t, 4, cat.Len())
}

func TestLoadMalformed(t *testing.T) {
	fsys := fstest.MapFS{"map.json": {Data: []byte(`{"areas": 12}`)}}
	_, err := Load(context.Background(), FromFS(fsys, "map.json"))
	assert.True(t, errors.IsMalformedData(err))
}
