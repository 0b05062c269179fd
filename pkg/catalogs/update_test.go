package catalogs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/fieldmap/pkg/errors"
)

func TestDataURLFromPage(t *testing.T) {
	page := `<html><body>
<div class="x" id="react-new_map_tool-wrapper" data-react-props='{&quot;toolStructuralMappingId&quot;:533176,&quot;toolStructuralMapping&quot;:{&quot;updatedAt&quot;:&quot;2025-01-20T09:00:00Z&quot;}}'></div>
</body></html>`

	got, err := dataURLFromPage("https://game.example.com/games/map/archives/1", []byte(page))
	require.NoError(t, err)
	assert.Equal(t, "https://game.example.com/api/tool_structural_mappings/533176.json?updatedAt=2025-01-20T09%3A00%3A00Z", got)
}

func TestDataURLFromPageMissingProps(t *testing.T) {
	_, err := dataURLFromPage("https://example.com", []byte("<html></html>"))
	assert.True(t, errors.IsMalformedData(err))
}

func TestUpdaterUpdate(t *testing.T) {
	body := testMapJSON
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "map.json")
	u := NewUpdater(srv.Client(), nil)

	res, err := u.Update(context.Background(), srv.URL, path)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Empty(t, res.OldHash)
	assert.Equal(t, 4, res.Items)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(written), "\n\t\"areas\"", "written with tab indentation")

	res, err = u.Update(context.Background(), srv.URL, path)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, res.OldHash, res.NewHash)

	body = strings.Replace(testMapJSON, "hub.png", "hub-v2.png", 1)
	res, err = u.Update(context.Background(), srv.URL, path)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.NotEqual(t, res.OldHash, res.NewHash)
}

func TestUpdaterRejectsInvalidCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"areas": []}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "map.json")
	_, err := NewUpdater(srv.Client(), nil).Update(context.Background(), srv.URL, path)
	assert.True(t, errors.IsEmptyDataset(err))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "nothing is written for an invalid catalog")
}
