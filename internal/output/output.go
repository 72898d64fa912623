// Package output renders command results as a table, JSON or YAML.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"
)

// Format selects how records are rendered.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ErrUnknownFormat is returned for formats other than table, json and yaml.
var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists the accepted format names.
func Formats() []string {
	return []string{string(FormatTable), string(FormatJSON), string(FormatYAML)}
}

// Column describes one table column. Value extracts the cell text from a record.
type Column struct {
	Name  string
	Value func(record any) string
}

// Renderer writes records in a fixed format.
type Renderer struct {
	format   Format
	maxWidth int
}

// New returns a renderer for format. maxWidth bounds table rows; 0 means unbounded.
func New(format Format, maxWidth int) (*Renderer, error) {
	switch format {
	case FormatTable, FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("%w %q (expected one of %s)", ErrUnknownFormat, format, strings.Join(Formats(), ", "))
	}
	return &Renderer{format: format, maxWidth: maxWidth}, nil
}

// Format returns the renderer's format.
func (r *Renderer) Format() Format {
	return r.format
}

// List renders records. Tables use columns; JSON and YAML serialize the records as-is.
func (r *Renderer) List(w io.Writer, columns []Column, records []any) error {
	switch r.format {
	case FormatJSON:
		if records == nil {
			records = []any{}
		}
		return writeJSON(w, records)
	case FormatYAML:
		return writeYAML(w, records)
	default:
		return r.writeTable(w, columns, records)
	}
}

// Single renders one record. Tables print one "column: value" line per column.
func (r *Renderer) Single(w io.Writer, columns []Column, record any) error {
	switch r.format {
	case FormatJSON:
		return writeJSON(w, record)
	case FormatYAML:
		return writeYAML(w, record)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range columns {
		lines := strings.Split(c.Value(record), "\n")
		fmt.Fprintf(tw, "%s:\t%s\n", c.Name, lines[0])
		for _, extra := range lines[1:] {
			fmt.Fprintf(tw, "\t%s\n", extra)
		}
	}
	return tw.Flush()
}

func (r *Renderer) writeTable(w io.Writer, columns []Column, records []any) error {
	cells := make([][]string, 0, len(records)+1)
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.Name
	}
	cells = append(cells, header)
	for _, rec := range records {
		row := make([]string, len(columns))
		for i, c := range columns {
			row[i] = strings.ReplaceAll(c.Value(rec), "\n", "; ")
		}
		cells = append(cells, row)
	}

	widths := columnWidths(cells, r.maxWidth)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, row := range cells {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, truncate(cell, widths[i]))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

const columnPadding = 2

// columnWidths shrinks the widest columns until the row fits maxWidth.
func columnWidths(cells [][]string, maxWidth int) []int {
	if len(cells) == 0 {
		return nil
	}
	widths := make([]int, len(cells[0]))
	for _, row := range cells {
		for i, cell := range row {
			if n := len([]rune(cell)); n > widths[i] {
				widths[i] = n
			}
		}
	}
	if maxWidth <= 0 {
		return widths
	}

	total := func() int {
		sum := 0
		for _, w := range widths {
			sum += w + columnPadding
		}
		return sum
	}
	for total() > maxWidth {
		widest := 0
		for i := range widths {
			if widths[i] > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= 4 {
			break
		}
		widths[widest]--
	}
	return widths
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode YAML: %w", err)
	}
	return enc.Close()
}

// Timestamp formats a millisecond epoch as RFC3339 UTC. Zero renders empty.
func Timestamp(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
