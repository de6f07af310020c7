package xbrl

import (
	"html"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"smart_edgar/pkg/core/fact"
)

// ValueFormatter normalizes the text of a fact before it is stored.
type ValueFormatter interface {
	Format(value string) string
}

// FormatterFunc adapts a function to ValueFormatter.
type FormatterFunc func(string) string

func (f FormatterFunc) Format(v string) string { return f(v) }

// NumberFormatter removes formatting noise from numeric values.
type NumberFormatter struct{}

func (NumberFormatter) Format(v string) string {
	v = strings.TrimSpace(v)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// TextFormatter collapses runs of whitespace.
type TextFormatter struct{}

func (TextFormatter) Format(v string) string {
	return strings.Join(strings.Fields(v), " ")
}

// HTMLFormatter optionally converts markup into plain text.
type HTMLFormatter struct {
	ConvertToText bool
}

func (h HTMLFormatter) Format(v string) string {
	if !h.ConvertToText {
		return v
	}
	return HTMLToText(v)
}

// HTMLToText extracts the visible text of a markup fragment. Escaped markup
// (&lt;p&gt;) is unescaped first.
func HTMLToText(v string) string {
	src := strings.TrimSpace(v)
	if strings.HasPrefix(src, "&lt;") || strings.HasPrefix(src, "&gt;") {
		src = html.UnescapeString(src)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return v
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// Formatters picks a ValueFormatter per data type.
type Formatters map[fact.DataType]ValueFormatter

// DefaultFormatters returns the formatter set used by a Builder.
func DefaultFormatters(convertHTML bool) Formatters {
	return Formatters{
		fact.DataTypeNumber:    NumberFormatter{},
		fact.DataTypeString:    TextFormatter{},
		fact.DataTypeHTML:      HTMLFormatter{ConvertToText: convertHTML},
		fact.DataTypeUndefined: FormatterFunc(strings.TrimSpace),
	}
}

// Format applies the formatter registered for dt, or returns v unchanged.
func (f Formatters) Format(dt fact.DataType, v string) string {
	if fm, ok := f[dt]; ok {
		return fm.Format(v)
	}
	return v
}
