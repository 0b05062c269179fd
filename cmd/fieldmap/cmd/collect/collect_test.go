package collect

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/fieldmap"
	"github.com/agentstation/fieldmap/cmd/application"
	"github.com/agentstation/fieldmap/pkg/catalogs"
	"github.com/agentstation/fieldmap/pkg/errors"
	"github.com/agentstation/fieldmap/pkg/storage/storagetest"
)

const wuling = "Jingyu Valley:Wuling City"

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decode[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestShow(t *testing.T) {
	mock, _ := application.NewTestMock(t)

	out, err := run(t, NewCommand(mock), "show")
	require.NoError(t, err)
	view := decode[fieldmap.AreaView](t, out)
	assert.Equal(t, "Valley IV:The Hub", view.Area.Title)
	require.NotEmpty(t, view.Summaries)
	assert.Equal(t, "Originium Ore", view.Summaries[0].Name)
	assert.Equal(t, 3, view.Summaries[0].TotalCount)

	_, err = run(t, NewCommand(mock), "show", "--area", "Nowhere:Nothing")
	assert.True(t, errors.IsNotFound(err))
}

func TestToggle(t *testing.T) {
	mock, client := application.NewTestMock(t)

	out, err := run(t, NewCommand(mock), "toggle", "hub-001", "wuling-002")
	require.NoError(t, err)
	results := decode[[]fieldmap.ToggleResult](t, out)
	require.Len(t, results, 2)
	assert.True(t, results[0].Collected)
	require.NotNil(t, results[0].Summary)
	assert.Equal(t, 1, results[0].Summary.CollectedCount)
	assert.Nil(t, results[1].Summary)
	assert.True(t, client.IsCollected("wuling-002"))

	_, err = run(t, NewCommand(mock), "toggle", "missing")
	assert.True(t, errors.IsNotFound(err))
}

func TestToggleWarnsWhenNotSaved(t *testing.T) {
	backend := storagetest.NewBackend()
	mock, client := application.NewTestMockOn(t, backend)
	backend.FailWrites(true)

	cmd := NewCommand(mock)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"toggle", "hub-001"})
	require.NoError(t, cmd.Execute())

	assert.True(t, client.IsCollected("hub-001"))
	assert.Len(t, decode[[]fieldmap.ToggleResult](t, stdout.String()), 1)
	assert.Contains(t, stderr.String(), "change applied but not saved")
}

func TestUncollected(t *testing.T) {
	mock, client := application.NewTestMock(t)
	_, err := client.ToggleItem("hub-004")
	require.NoError(t, err)

	out, err := run(t, NewCommand(mock), "uncollected", "-c", "Treasure Chest")
	require.NoError(t, err)
	items := decode[[]catalogs.Item](t, out)
	require.Len(t, items, 1)
	assert.Equal(t, "hub-005", items[0].ID)

	out, err = run(t, NewCommand(mock), "todo", "--area", wuling)
	require.NoError(t, err)
	assert.Len(t, decode[[]catalogs.Item](t, out), 2)
}

func TestHideAndUnhide(t *testing.T) {
	mock, client := application.NewTestMock(t)

	out, err := run(t, NewCommand(mock), "hide", "Aketon")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"Aketon": false}, decode[map[string]bool](t, out))

	_, err = run(t, NewCommand(mock), "unhide", "Aketon")
	require.NoError(t, err)
	assert.True(t, client.View().Visibility["Aketon"])
}

func TestReset(t *testing.T) {
	mock, client := application.NewTestMock(t)
	for _, id := range []string{"wuling-001", "wuling-002", "hub-001"} {
		_, err := client.ToggleItem(id)
		require.NoError(t, err)
	}

	out, err := run(t, NewCommand(mock), "reset", "--area", wuling)
	require.NoError(t, err)
	result := decode[struct {
		Area    string `json:"area"`
		Removed int    `json:"removed"`
	}](t, out)
	assert.Equal(t, wuling, result.Area)
	assert.Equal(t, 2, result.Removed)
	assert.True(t, client.IsCollected("hub-001"))
}

func TestProgressAndStatus(t *testing.T) {
	mock, client := application.NewTestMock(t)
	_, err := client.ToggleItem("park-002")
	require.NoError(t, err)

	out, err := run(t, NewCommand(mock), "progress")
	require.NoError(t, err)
	progress := decode[[]fieldmap.AreaProgress](t, out)
	require.Len(t, progress, 4)
	assert.Equal(t, "Valley IV:Originium Science Park", progress[1].Area)
	assert.Equal(t, 1, progress[1].Collected)

	out, err = run(t, NewCommand(mock), "status")
	require.NoError(t, err)
	status := decode[fieldmap.StorageStatus](t, out)
	assert.Equal(t, "memory", status.Backend)
	assert.Equal(t, 1, status.Collected)
	assert.True(t, status.Reachable)
}

func TestProgressTable(t *testing.T) {
	mock, _ := application.NewTestMock(t)
	mock.OutputFormatFunc = func() string { return "table" }

	out, err := run(t, NewCommand(mock), "progress")
	require.NoError(t, err)
	assert.Contains(t, out, "Wuling City")
	assert.Contains(t, out, "0/14")
}
