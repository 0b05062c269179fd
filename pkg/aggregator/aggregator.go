// Package aggregator groups the items of an area by classification and
// keeps per-group collected counts.
package aggregator

import (
	"sort"

	"github.com/agentstation/fieldmap/pkg/catalogs"
	"github.com/agentstation/fieldmap/pkg/constants"
)

// Summary is the count of one classification within an area.
type Summary struct {
	Name           string   `json:"name" yaml:"name"`
	IconRef        string   `json:"iconRef" yaml:"icon_ref"`
	ItemIDs        []string `json:"itemIds" yaml:"item_ids"`
	TotalCount     int      `json:"total" yaml:"total"`
	CollectedCount int      `json:"collected" yaml:"collected"`
}

// Remaining returns how many members are not collected.
func (s Summary) Remaining() int {
	return s.TotalCount - s.CollectedCount
}

// Complete reports whether every member is collected.
func (s Summary) Complete() bool {
	return s.TotalCount > 0 && s.CollectedCount == s.TotalCount
}

// CollectedFunc reports whether an item is collected.
type CollectedFunc func(id string) bool

// Summarize groups items by classification. Summaries are ordered by
// TotalCount descending, then Name ascending. The icon of a group is the
// icon of its first member.
func Summarize(items []catalogs.Item, collected CollectedFunc) []Summary {
	index := make(map[string]int)
	summaries := make([]Summary, 0)

	for _, item := range items {
		idx, ok := index[item.Classification]
		if !ok {
			icon := item.IconRef
			if icon == "" {
				icon = constants.DefaultIconRef
			}
			idx = len(summaries)
			index[item.Classification] = idx
			summaries = append(summaries, Summary{Name: item.Classification, IconRef: icon})
		}
		s := &summaries[idx]
		s.ItemIDs = append(s.ItemIDs, item.ID)
		s.TotalCount++
		if collected != nil && collected(item.ID) {
			s.CollectedCount++
		}
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].TotalCount != summaries[j].TotalCount {
			return summaries[i].TotalCount > summaries[j].TotalCount
		}
		return summaries[i].Name < summaries[j].Name
	})
	return summaries
}

// ApplyToggle adjusts the collected count of one classification by one.
// The count stays within [0, TotalCount]. It returns the patched summary,
// or nil when no summary has that name.
func ApplyToggle(summaries []Summary, classification string, collected bool) *Summary {
	for i := range summaries {
		s := &summaries[i]
		if s.Name != classification {
			continue
		}
		if collected {
			if s.CollectedCount < s.TotalCount {
				s.CollectedCount++
			}
		} else if s.CollectedCount > 0 {
			s.CollectedCount--
		}
		return s
	}
	return nil
}

// ApplyReset zeroes every collected count.
func ApplyReset(summaries []Summary) {
	for i := range summaries {
		summaries[i].CollectedCount = 0
	}
}

// Recount recomputes collected counts from collected.
func Recount(summaries []Summary, collected CollectedFunc) {
	for i := range summaries {
		n := 0
		for _, id := range summaries[i].ItemIDs {
			if collected(id) {
				n++
			}
		}
		summaries[i].CollectedCount = n
	}
}

// Totals sums collected and total counts.
func Totals(summaries []Summary) (collected, total int) {
	for _, s := range summaries {
		collected += s.CollectedCount
		total += s.TotalCount
	}
	return collected, total
}

// Clone deep copies summaries.
func Clone(summaries []Summary) []Summary {
	if summaries == nil {
		return nil
	}
	out := make([]Summary, len(summaries))
	for i, s := range summaries {
		s.ItemIDs = append([]string(nil), s.ItemIDs...)
		out[i] = s
	}
	return out
}
