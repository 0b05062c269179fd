package aggregator

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/fieldmap/pkg/catalogs"
	"github.com/agentstation/fieldmap/pkg/constants"
)

func items(specs ...[2]string) []catalogs.Item {
	out := make([]catalogs.Item, len(specs))
	for i, s := range specs {
		out[i] = catalogs.Item{ID: s[0], Classification: s[1], IconRef: "icon-" + s[0]}
	}
	return out
}

func set(ids ...string) CollectedFunc {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return func(id string) bool { return m[id] }
}

func names(summaries []Summary) []string {
	out := make([]string, len(summaries))
	for i, s := range summaries {
		out[i] = s.Name
	}
	return out
}

func TestSummarizeOrdering(t *testing.T) {
	var in []catalogs.Item
	add := func(name string, n int) {
		for i := 0; i < n; i++ {
			in = append(in, catalogs.Item{ID: name + string(rune('a'+i)), Classification: name})
		}
	}
	add("B", 5)
	add("A", 5)
	add("C", 9)

	got := Summarize(in, set())
	assert.Equal(t, []string{"C", "A", "B"}, names(got))
}

func TestSummarizeByteWiseNames(t *testing.T) {
	got := Summarize(items(
		[2]string{"1", "b"},
		[2]string{"2", "B"},
		[2]string{"3", "a"},
	), nil)
	assert.Equal(t, []string{"B", "a", "b"}, names(got))
}

func TestSummarize(t *testing.T) {
	in := items(
		[2]string{"i1", "Ore"},
		[2]string{"i2", "Gem"},
		[2]string{"i3", "Ore"},
	)
	in[1].IconRef = ""

	got := Summarize(in, set("i3", "unrelated"))
	want := []Summary{
		{Name: "Ore", IconRef: "icon-i1", ItemIDs: []string{"i1", "i3"}, TotalCount: 2, CollectedCount: 1},
		{Name: "Gem", IconRef: constants.DefaultIconRef, ItemIDs: []string{"i2"}, TotalCount: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
	}

	assert.NotNil(t, Summarize(nil, nil))
	assert.Empty(t, Summarize(nil, nil))
}

func TestApplyToggle(t *testing.T) {
	summaries := Summarize(items([2]string{"i1", "Ore"}, [2]string{"i2", "Ore"}), set())

	s := ApplyToggle(summaries, "Ore", true)
	require.NotNil(t, s)
	assert.Equal(t, 1, s.CollectedCount)
	assert.Equal(t, 1, summaries[0].CollectedCount, "patches in place")

	ApplyToggle(summaries, "Ore", true)
	ApplyToggle(summaries, "Ore", true)
	assert.Equal(t, 2, summaries[0].CollectedCount, "clamped at total")

	for i := 0; i < 4; i++ {
		ApplyToggle(summaries, "Ore", false)
	}
	assert.Equal(t, 0, summaries[0].CollectedCount, "clamped at zero")

	assert.Nil(t, ApplyToggle(summaries, "Gem", true))
}

func TestApplyResetAndTotals(t *testing.T) {
	summaries := Summarize(items(
		[2]string{"i1", "Ore"},
		[2]string{"i2", "Gem"},
		[2]string{"i3", "Ore"},
	), set("i1", "i2"))

	collected, total := Totals(summaries)
	assert.Equal(t, 2, collected)
	assert.Equal(t, 3, total)

	ApplyReset(summaries)
	collected, total = Totals(summaries)
	assert.Equal(t, 0, collected)
	assert.Equal(t, 3, total)
}

func TestRecount(t *testing.T) {
	summaries := Summarize(items([2]string{"i1", "Ore"}, [2]string{"i2", "Ore"}), set())
	Recount(summaries, set("i2", "x"))
	assert.Equal(t, 1, summaries[0].CollectedCount)
	assert.Equal(t, 1, summaries[0].Remaining())
	assert.False(t, summaries[0].Complete())
}

func TestClone(t *testing.T) {
	summaries := Summarize(items([2]string{"i1", "Ore"}), set())
	cp := Clone(summaries)
	cp[0].ItemIDs[0] = "changed"
	cp[0].CollectedCount = 1
	assert.Equal(t, "i1", summaries[0].ItemIDs[0])
	assert.Equal(t, 0, summaries[0].CollectedCount)
	assert.Nil(t, Clone(nil))
}
