// Package filter parses item query parameters and applies them to catalog
// items.
package filter

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/agentstation/fieldmap/pkg/catalogs"
)

// ItemFilter holds the criteria accepted by item listing endpoints.
type ItemFilter struct {
	Classifications []string
	Category        string
	TitleContains   string
	Collected       *bool
	Visible         *bool // classification shown in the item's area

	Sort   string // "id", "title" or "classification"; empty keeps catalog order
	Order  string // "asc" or "desc"
	Limit  int
	Offset int
}

// ParseItemFilter reads an ItemFilter from the request query. Malformed
// numbers and booleans fall back to their defaults.
func ParseItemFilter(r *http.Request) ItemFilter {
	q := r.URL.Query()

	f := ItemFilter{
		Category:      q.Get("category"),
		TitleContains: q.Get("title_contains"),
		Sort:          q.Get("sort"),
		Order:         q.Get("order"),
		Limit:         parseIntOrDefault(q.Get("limit"), 0),
		Offset:        parseIntOrDefault(q.Get("offset"), 0),
	}
	if c := q.Get("classification"); c != "" {
		f.Classifications = strings.Split(c, ",")
	}
	f.Collected = parseBool(q.Get("collected"))
	f.Visible = parseBool(q.Get("visible"))
	return f
}

// State answers the per-item questions that depend on collection state.
// A nil func disables its criterion.
type State struct {
	IsCollected func(id string) bool
	IsVisible   func(area, classification string) bool
}

// Apply returns the items that match f, sorted and paginated.
func (f ItemFilter) Apply(items []catalogs.Item, st State) []catalogs.Item {
	results := make([]catalogs.Item, 0, len(items))
	for _, item := range items {
		if f.matches(item, st) {
			results = append(results, item)
		}
	}

	f.sort(results)
	return f.paginate(results)
}

func (f ItemFilter) matches(item catalogs.Item, st State) bool {
	if len(f.Classifications) > 0 && !containsFold(f.Classifications, item.Classification) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(item.Category, f.Category) {
		return false
	}
	if f.TitleContains != "" && !strings.Contains(strings.ToLower(item.Title), strings.ToLower(f.TitleContains)) {
		return false
	}
	if f.Collected != nil && st.IsCollected != nil && st.IsCollected(item.ID) != *f.Collected {
		return false
	}
	if f.Visible != nil && st.IsVisible != nil && st.IsVisible(item.AreaID, item.Classification) != *f.Visible {
		return false
	}
	return true
}

func (f ItemFilter) sort(items []catalogs.Item) {
	var key func(catalogs.Item) string
	switch f.Sort {
	case "id":
		key = func(i catalogs.Item) string { return i.ID }
	case "title":
		key = func(i catalogs.Item) string { return i.Title }
	case "classification":
		key = func(i catalogs.Item) string { return i.Classification }
	default:
		return
	}

	desc := strings.EqualFold(f.Order, "desc")
	sort.SliceStable(items, func(a, b int) bool {
		if desc {
			return key(items[a]) > key(items[b])
		}
		return key(items[a]) < key(items[b])
	})
}

func (f ItemFilter) paginate(items []catalogs.Item) []catalogs.Item {
	if f.Offset > 0 {
		if f.Offset >= len(items) {
			return []catalogs.Item{}
		}
		items = items[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(items) {
		items = items[:f.Limit]
	}
	return items
}

func containsFold(values []string, s string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
}

func parseBool(s string) *bool {
	if s == "" {
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}
	return &b
}

func parseIntOrDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if i, err := strconv.Atoi(s); err == nil && i >= 0 {
		return i
	}
	return def
}
