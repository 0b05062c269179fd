// Package output renders command results as tables, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/fieldmap/internal/cmd/table"
)

// Format is an output format name.
type Format string

const (
	// FormatTable renders a terminal table.
	FormatTable Format = "table"
	// FormatWide renders a table with extra columns.
	FormatWide Format = "wide"
	// FormatJSON renders indented JSON.
	FormatJSON Format = "json"
	// FormatYAML renders YAML.
	FormatYAML Format = "yaml"
)

// IsTable reports whether the format renders a table.
func (f Format) IsTable() bool {
	return f == FormatTable || f == FormatWide || f == ""
}

// ParseFormat validates a format name. The empty string is accepted and
// resolved later by DetectFormat.
func ParseFormat(s string) (Format, error) {
	format := Format(strings.ToLower(s))
	switch format {
	case FormatTable, FormatWide, FormatJSON, FormatYAML, "":
		return format, nil
	default:
		return "", fmt.Errorf("invalid format %q: must be one of: table, wide, json, yaml", s)
	}
}

// DetectFormat returns the explicit format when set, a table on a
// terminal and JSON when stdout is piped.
func DetectFormat(explicit string) Format {
	if explicit != "" {
		return Format(strings.ToLower(explicit))
	}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return FormatTable
	}
	return FormatJSON
}

// Printer writes values in one format.
type Printer struct {
	w      io.Writer
	format Format
}

// NewPrinter creates a Printer for w.
func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{w: w, format: format}
}

// Format returns the printer's format.
func (p *Printer) Format() Format {
	return p.format
}

// Wide reports whether wide tables were requested.
func (p *Printer) Wide() bool {
	return p.format == FormatWide
}

// Print writes value as JSON or YAML, or renders the table built by
// toTable for table formats.
func (p *Printer) Print(value any, toTable func(wide bool) table.Data) error {
	switch p.format {
	case FormatJSON:
		return WriteJSON(p.w, value)
	case FormatYAML:
		return WriteYAML(p.w, value)
	default:
		if toTable == nil {
			return WriteJSON(p.w, value)
		}
		return WriteTable(p.w, toTable(p.Wide()))
	}
}

// WriteJSON writes indented JSON.
func WriteJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

// WriteYAML writes YAML with two-space indentation.
func WriteYAML(w io.Writer, value any) error {
	data, err := yaml.MarshalWithOptions(value,
		yaml.Indent(2),
		yaml.IndentSequence(false),
	)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteTable renders data with tablewriter.
func WriteTable(w io.Writer, data table.Data) error {
	config := tablewriter.Config{}
	if len(data.ColumnAlignment) > 0 {
		align := make([]tw.Align, len(data.ColumnAlignment))
		for i, a := range data.ColumnAlignment {
			switch a {
			case table.AlignLeft:
				align[i] = tw.AlignLeft
			case table.AlignCenter:
				align[i] = tw.AlignCenter
			case table.AlignRight:
				align[i] = tw.AlignRight
			default:
				align[i] = tw.Skip
			}
		}
		config.Header.Alignment = tw.CellAlignment{PerColumn: align}
		config.Row.Alignment = tw.CellAlignment{PerColumn: align}
	}

	tbl := tablewriter.NewTable(w, tablewriter.WithConfig(config))
	if len(data.Headers) > 0 {
		headers := make([]any, len(data.Headers))
		for i, h := range data.Headers {
			headers[i] = h
		}
		tbl.Header(headers...)
	}
	for _, row := range data.Rows {
		cells := make([]any, len(row))
		for i, c := range row {
			cells[i] = c
		}
		if err := tbl.Append(cells...); err != nil {
			return err
		}
	}
	return tbl.Render()
}

// Label turns a snake_case key into a title-cased label.
func Label(key string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
}
