package catalogs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/fieldmap/pkg/errors"
)

const testMapJSON = `{
	"areas": [
		{"title": "R1:Hub", "url": "hub.png"},
		{"title": "R2:Docks", "url": "docks.png"},
		{"title": "R1:Mines", "url": "mines.png"},
		{"title": "Lonely", "url": "lonely.png"}
	],
	"coordinateArraySchema": {
		"coordinates": [
			{"id": "i1", "area": "R1:Hub", "title": "Ore", "classification": "Resource", "coordinate": "1.5,2"},
			{"id": "i2", "area": "R1:Hub", "title": " Ore ", "coordinate": "3,4"},
			{"id": 3, "area": "R1:Hub", "title": "", "coordinate": "oops"},
			{"id": "d1", "area": "R2:Docks", "title": "Chest", "coordinate": "5,6", "description": "old"}
		]
	}
}`

func testCatalog(t *testing.T, opts ...Option) *Catalog {
	t.Helper()
	data, err := Decode(strings.NewReader(testMapJSON), "test.json")
	require.NoError(t, err)
	cat, err := New(data, opts...)
	require.NoError(t, err)
	return cat
}

func TestCatalogRegionsAndAreas(t *testing.T) {
	cat := testCatalog(t)

	assert.Equal(t, []string{"R1", "R2", "Lonely"}, cat.Regions())
	assert.Equal(t, []string{"R1:Hub", "R1:Mines"}, cat.AreasOf("R1"))
	assert.Equal(t, []string{"Lonely"}, cat.AreasOf("Lonely"))
	assert.Empty(t, cat.AreasOf("nowhere"))
	assert.NotNil(t, cat.AreasOf("nowhere"))
	assert.Equal(t, []string{"hub.png", "docks.png", "mines.png", "lonely.png"}, cat.AllImageRefs())
}

func TestCatalogImageOf(t *testing.T) {
	cat := testCatalog(t)

	ref, err := cat.ImageOf("R2:Docks")
	require.NoError(t, err)
	assert.Equal(t, "docks.png", ref)

	_, err = cat.ImageOf("R9:Nope")
	assert.True(t, errors.IsNotFound(err))
}

func TestCatalogItemsOf(t *testing.T) {
	cat := testCatalog(t)

	items := cat.ItemsOf("R1:Hub")
	require.Len(t, items, 3)
	assert.Equal(t, []string{"i1", "i2", "3"}, []string{items[0].ID, items[1].ID, items[2].ID})

	assert.Equal(t, "Ore", items[0].Classification)
	assert.Equal(t, "Ore", items[1].Classification, "titles are trimmed before grouping")
	assert.Equal(t, "Unknown", items[2].Classification)
	assert.Equal(t, "Resource", items[0].Category)
	assert.Equal(t, Coordinate{X: 1.5, Y: 2}, items[0].Coordinate)
	assert.Equal(t, Coordinate{}, items[2].Coordinate)

	assert.Empty(t, cat.ItemsOf("R1:Mines"))
	assert.Empty(t, cat.ItemsOf("R9:Nope"))
	assert.Equal(t, 4, cat.Len())
}

func TestCatalogItemsOfReturnsCopy(t *testing.T) {
	cat := testCatalog(t)
	items := cat.ItemsOf("R1:Hub")
	items[0].Title = "mutated"

	again := cat.ItemsOf("R1:Hub")
	assert.Equal(t, "Ore", again[0].Title)
}

func TestCatalogItemLookup(t *testing.T) {
	cat := testCatalog(t)

	item, ok := cat.Item("d1")
	require.True(t, ok)
	assert.Equal(t, "R2:Docks", item.AreaID)

	cls, ok := cat.ClassificationOf("i2")
	assert.True(t, ok)
	assert.Equal(t, "Ore", cls)

	_, ok = cat.Item("zzz")
	assert.False(t, ok)
}

func TestCatalogOverlay(t *testing.T) {
	overlay, err := DecodeOverlay(strings.NewReader(`{"descriptions": [
		{"ids": ["d1", "ghost"], "translated": "new"},
		{"ids": ["i1"], "translated": ""},
		{"ids": ["i2"], "translated": "first"},
		{"ids": ["i2"], "translated": "second"}
	]}`), "descriptions.json")
	require.NoError(t, err)

	cat := testCatalog(t, WithOverlay(overlay))

	d1, _ := cat.Item("d1")
	assert.Equal(t, "new", d1.Description)
	i1, _ := cat.Item("i1")
	assert.Empty(t, i1.Description, "empty translations are skipped")
	i2, _ := cat.Item("i2")
	assert.Equal(t, "second", i2.Description)
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		isEmpty bool
	}{
		{
			name:    "no areas",
			json:    `{"areas": [], "coordinateArraySchema": {"coordinates": []}}`,
			isEmpty: true,
		},
		{
			name:    "missing areas field",
			json:    `{}`,
			isEmpty: true,
		},
		{
			name: "unknown area reference",
			json: `{"areas": [{"title": "A:B", "url": "x"}], "coordinateArraySchema": {"coordinates": [{"id": "1", "area": "A:C"}]}}`,
		},
		{
			name: "duplicate item id",
			json: `{"areas": [{"title": "A:B", "url": "x"}], "coordinateArraySchema": {"coordinates": [{"id": "1", "area": "A:B"}, {"id": "1", "area": "A:B"}]}}`,
		},
		{
			name: "duplicate area",
			json: `{"areas": [{"title": "A:B", "url": "x"}, {"title": "A:B", "url": "y"}]}`,
		},
		{
			name: "empty area title",
			json: `{"areas": [{"title": "", "url": "x"}]}`,
		},
		{
			name: "empty item id",
			json: `{"areas": [{"title": "A:B", "url": "x"}], "coordinateArraySchema": {"coordinates": [{"id": "", "area": "A:B"}]}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Decode(strings.NewReader(tt.json), "test.json")
			require.NoError(t, err)

			_, err = New(data)
			require.Error(t, err)
			if tt.isEmpty {
				assert.True(t, errors.IsEmptyDataset(err), "got %v", err)
			} else {
				assert.True(t, errors.IsMalformedData(err), "got %v", err)
			}
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := map[string]string{
		"not json":             `{{`,
		"areas not array":      `{"areas": {"title": "x"}}`,
		"coordinate as number": `{"areas": [], "coordinateArraySchema": {"coordinates": [{"id": "1", "coordinate": 5}]}}`,
		"id as bool":           `{"areas": [], "coordinateArraySchema": {"coordinates": [{"id": true}]}}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(doc), "bad.json")
			require.Error(t, err)
			assert.True(t, errors.IsMalformedData(err), "got %v", err)
		})
	}
}

func TestDecodeOverlayMalformed(t *testing.T) {
	_, err := DecodeOverlay(strings.NewReader(`{"other": []}`), "descriptions.json")
	assert.True(t, errors.IsMalformedData(err))

	_, err = DecodeOverlay(strings.NewReader(`{"descriptions": "nope"}`), "descriptions.json")
	assert.True(t, errors.IsMalformedData(err))
}

func TestAreaRegion(t *testing.T) {
	assert.Equal(t, "Valley IV", Area{Title: "Valley IV:The Hub"}.Region())
	assert.Equal(t, "Solo", Area{Title: "Solo"}.Region())
}
