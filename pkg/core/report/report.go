// Package report renders pivot views as text tables, CSV, Markdown and HTML.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"smart_edgar/pkg/core/pivot"
)

// Format names an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Formats lists the supported formats.
func Formats() []Format { return []Format{FormatText, FormatCSV, FormatMarkdown, FormatHTML} }

// Write renders v in format f.
func Write(w io.Writer, v pivot.View, f Format) error {
	switch f {
	case FormatText, "":
		return WriteText(w, v)
	case FormatCSV:
		return WriteCSV(w, v)
	case FormatMarkdown:
		return WriteMarkdown(w, v)
	case FormatHTML:
		return RenderHTML(w, v)
	}
	return fmt.Errorf("unknown format %q", f)
}

// FormatValue prints a cell value without exponent or trailing zeros.
func FormatValue(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// Grid returns the header (row fields, then column titles) and one line per
// row. Absent cells are empty strings.
func Grid(v pivot.View) ([]string, [][]string) {
	header := append(v.RowFieldNames(), pivot.ColumnTitles(v)...)
	rows := make([][]string, v.RowCount())
	for r := range rows {
		line := v.RowValues(r)
		for c := 0; c < v.ColumnCount(); c++ {
			if f, ok := v.Value(c, r); ok {
				line = append(line, FormatValue(f))
			} else {
				line = append(line, "")
			}
		}
		rows[r] = line
	}
	return header, rows
}

// WriteText draws a bordered table for terminals.
func WriteText(w io.Writer, v pivot.View) error {
	header, rows := Grid(v)
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetHeader(header)

	align := make([]int, len(header))
	for i := range align {
		align[i] = tablewriter.ALIGN_RIGHT
		if i < len(v.RowFieldNames()) {
			align[i] = tablewriter.ALIGN_LEFT
		}
	}
	table.SetColumnAlignment(align)
	table.AppendBulk(rows)
	table.Render()
	return nil
}

// WriteCSV writes the grid with a header line.
func WriteCSV(w io.Writer, v pivot.View) error {
	header, rows := Grid(v)
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	return nil
}

// WriteMarkdown writes a GitHub flavoured pipe table.
func WriteMarkdown(w io.Writer, v pivot.View) error {
	header, rows := Grid(v)
	var sb strings.Builder
	writeLine := func(cells []string) {
		sb.WriteString("|")
		for _, c := range cells {
			sb.WriteString(" ")
			sb.WriteString(strings.ReplaceAll(c, "|", `\|`))
			sb.WriteString(" |")
		}
		sb.WriteString("\n")
	}
	writeLine(header)

	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---:"
		if i < len(v.RowFieldNames()) {
			sep[i] = "---"
		}
	}
	writeLine(sep)
	for _, r := range rows {
		writeLine(r)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// RenderHTML converts the Markdown table to HTML.
func RenderHTML(w io.Writer, v pivot.View) error {
	var src bytes.Buffer
	if err := WriteMarkdown(&src, v); err != nil {
		return err
	}
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	if err := md.Convert(src.Bytes(), w); err != nil {
		return fmt.Errorf("failed to render html: %w", err)
	}
	return nil
}
