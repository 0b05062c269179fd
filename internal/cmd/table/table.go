// Package table converts fieldmap values into rows for terminal tables.
package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agentstation/fieldmap"
	"github.com/agentstation/fieldmap/pkg/aggregator"
	"github.com/agentstation/fieldmap/pkg/catalogs"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Status symbols.
const (
	Collected   = "✓"
	Uncollected = "-"
	Hidden      = "hidden"
)

// Data is a table ready to render.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align
}

// List renders a single column of values.
func List(header string, values []string) Data {
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = []string{v}
	}
	return Data{Headers: []string{header}, Rows: rows}
}

// AreasToTableData lists area titles with their images.
func AreasToTableData(areas []catalogs.Area) Data {
	rows := make([][]string, len(areas))
	for i, a := range areas {
		rows[i] = []string{a.Region(), catalogs.AreaNameOf(a.Title), a.ImageRef}
	}
	return Data{Headers: []string{"Region", "Area", "Image"}, Rows: rows}
}

// ItemsToTableData lists items with their collected state. The wide form
// adds coordinates and descriptions.
func ItemsToTableData(items []catalogs.Item, isCollected func(string) bool, wide bool) Data {
	headers := []string{"", "ID", "Title", "Classification"}
	align := []Align{AlignCenter, AlignRight, AlignLeft, AlignLeft}
	if wide {
		headers = append(headers, "X", "Y", "Description")
		align = append(align, AlignRight, AlignRight, AlignLeft)
	}

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		mark := Uncollected
		if isCollected != nil && isCollected(item.ID) {
			mark = Collected
		}
		row := []string{mark, item.ID, item.Title, item.Classification}
		if wide {
			row = append(row,
				strconv.FormatFloat(item.Coordinate.X, 'f', -1, 64),
				strconv.FormatFloat(item.Coordinate.Y, 'f', -1, 64),
				truncate(item.Description, 60),
			)
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows, ColumnAlignment: align}
}

// SummariesToTableData lists classification counts. visibility marks
// hidden classifications; it may be nil.
func SummariesToTableData(summaries []aggregator.Summary, visibility map[string]bool) Data {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		shown := ""
		if v, ok := visibility[s.Name]; ok && !v {
			shown = Hidden
		}
		count := fmt.Sprintf("%d/%d", s.CollectedCount, s.TotalCount)
		if s.Complete() {
			count += " " + Collected
		}
		rows = append(rows, []string{
			s.Name,
			count,
			strconv.Itoa(s.Remaining()),
			shown,
		})
	}
	return Data{
		Headers:         []string{"Classification", "Collected", "Remaining", "Visibility"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight, AlignRight, AlignLeft},
	}
}

// ProgressToTableData lists per-area progress and a total row.
func ProgressToTableData(progress []fieldmap.AreaProgress) Data {
	rows := make([][]string, 0, len(progress)+1)
	collected, total := 0, 0
	for _, p := range progress {
		collected += p.Collected
		total += p.Total
		rows = append(rows, []string{p.Region, catalogs.AreaNameOf(p.Area), fmt.Sprintf("%d/%d", p.Collected, p.Total), Percent(p.Collected, p.Total)})
	}
	rows = append(rows, []string{"Total", "", fmt.Sprintf("%d/%d", collected, total), Percent(collected, total)})
	return Data{
		Headers:         []string{"Region", "Area", "Collected", "Progress"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignRight, AlignRight},
	}
}

// Percent formats collected/total, or "-" for an empty area.
func Percent(collected, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(collected)*100/float64(total))
}

// KeyValue renders property rows.
func KeyValue(pairs [][2]string) Data {
	rows := make([][]string, len(pairs))
	for i, p := range pairs {
		rows[i] = []string{p[0], p[1]}
	}
	return Data{Headers: []string{"Property", "Value"}, Rows: rows}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
