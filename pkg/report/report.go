// Package report renders collection progress as a markdown document.
package report

import (
	"fmt"
	"io"

	"github.com/agentstation/utc"
	md "github.com/nao1215/markdown"

	"github.com/agentstation/fieldmap"
	"github.com/agentstation/fieldmap/pkg/constants"
	"github.com/agentstation/fieldmap/pkg/errors"
)

// DefaultTitle is used when Options.Title is empty.
const DefaultTitle = "Collection Progress"

// Options control what a report contains.
type Options struct {
	Title string

	// Generated is printed under the title; zero means now.
	Generated utc.Time

	// Classifications adds a per-classification table for every area.
	Classifications bool

	// SkipEmpty leaves out areas without items.
	SkipEmpty bool
}

// Write renders progress to w.
func Write(w io.Writer, progress []fieldmap.AreaProgress, opts Options) error {
	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}
	generated := opts.Generated
	if generated.IsZero() {
		generated = utc.Now()
	}

	doc := md.NewMarkdown(w)
	doc.H1(title)
	doc.PlainTextf("Generated %s", md.Italic(generated.Format(constants.TimeFormatISO8601))).LF()

	collected, total := 0, 0
	regions := groupByRegion(progress, opts.SkipEmpty)
	for _, r := range regions {
		collected += r.collected
		total += r.total
	}
	doc.PlainText(md.Bold(fmt.Sprintf("Overall: %d / %d (%s)", collected, total, percent(collected, total)))).LF()

	doc.H2("Regions")
	rows := make([][]string, 0, len(regions))
	for _, r := range regions {
		rows = append(rows, []string{
			r.name,
			fmt.Sprint(len(r.areas)),
			fmt.Sprint(r.collected),
			fmt.Sprint(r.total),
			percent(r.collected, r.total),
		})
	}
	doc.Table(md.TableSet{
		Header: []string{"Region", "Areas", "Collected", "Total", "Progress"},
		Rows:   rows,
	})

	for _, r := range regions {
		doc.H2(r.name)
		rows := make([][]string, 0, len(r.areas))
		for _, a := range r.areas {
			rows = append(rows, []string{
				a.Area,
				fmt.Sprint(a.Collected),
				fmt.Sprint(a.Total),
				percent(a.Collected, a.Total),
			})
		}
		doc.Table(md.TableSet{
			Header: []string{"Area", "Collected", "Total", "Progress"},
			Rows:   rows,
		})

		if !opts.Classifications {
			continue
		}
		for _, a := range r.areas {
			if len(a.Summaries) == 0 {
				continue
			}
			doc.H3(a.Area)
			rows := make([][]string, 0, len(a.Summaries))
			for _, s := range a.Summaries {
				rows = append(rows, []string{
					s.Name,
					fmt.Sprint(s.CollectedCount),
					fmt.Sprint(s.TotalCount),
					fmt.Sprint(s.Remaining()),
				})
			}
			doc.Table(md.TableSet{
				Header: []string{"Classification", "Collected", "Total", "Remaining"},
				Rows:   rows,
			})
		}
	}

	if err := doc.Build(); err != nil {
		return errors.WrapIO("write", "report", err)
	}
	return nil
}

type regionProgress struct {
	name      string
	areas     []fieldmap.AreaProgress
	collected int
	total     int
}

// groupByRegion keeps regions in first-seen order.
func groupByRegion(progress []fieldmap.AreaProgress, skipEmpty bool) []*regionProgress {
	var regions []*regionProgress
	index := make(map[string]*regionProgress)
	for _, a := range progress {
		if skipEmpty && a.Total == 0 {
			continue
		}
		r, ok := index[a.Region]
		if !ok {
			r = &regionProgress{name: a.Region}
			index[a.Region] = r
			regions = append(regions, r)
		}
		r.areas = append(r.areas, a)
		r.collected += a.Collected
		r.total += a.Total
	}
	return regions
}

func percent(n, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(n)*100/float64(total))
}
