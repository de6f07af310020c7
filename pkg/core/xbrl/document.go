// Package xbrl builds fact graphs from streamed filing documents.
//
// A Builder receives element-open, character-data and element-close events and
// grows the Document's fact graph in a single pass. Decode drives a Builder
// from an encoding/xml token stream; LoadFiles parses many documents in
// parallel, one independent Document per file.
package xbrl

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"smart_edgar/pkg/core/fact"
)

// DefaultMaxFieldSize caps the text accumulated for a single fact.
const DefaultMaxFieldSize = 100000

// Filing describes the filed document a graph was built from.
type Filing struct {
	CompanyNumber string `json:"company_number"`
	CompanyName   string `json:"company_name,omitempty"`
	Form          string `json:"form"`
	Date          string `json:"date,omitempty"`
	File          string `json:"file,omitempty"`
}

// Options control how a document is parsed.
type Options struct {
	// FactsDocument marks an instance document: unknown tags directly below the
	// root become value facts.
	FactsDocument bool
	// MaxFieldSize bounds the text collected per fact; 0 means DefaultMaxFieldSize.
	MaxFieldSize int
	// ConvertHTMLToText turns markup values into plain text.
	ConvertHTMLToText bool
	Logger            *slog.Logger
}

func (o Options) maxFieldSize() int {
	if o.MaxFieldSize <= 0 {
		return DefaultMaxFieldSize
	}
	return o.MaxFieldSize
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Document is the processing context of one parsed filing: its fact graph,
// attribute index and filing info.
type Document struct {
	ID     uuid.UUID
	Graph  *fact.Graph
	Filing Filing

	mu       sync.Mutex
	warnings []Warning
}

// WarningKind classifies parse warnings.
type WarningKind string

const (
	WarnUnrecognizedTag WarningKind = "UNRECOGNIZED_TAG"
	WarnTruncatedText   WarningKind = "TRUNCATED_TEXT"
)

// Warning is a non fatal problem found while parsing.
type Warning struct {
	Kind WarningKind `json:"kind"`
	Tag  string      `json:"tag"`
	Line int64       `json:"line"`
}

// NewDocument creates an empty document context.
func NewDocument(filing Filing) *Document {
	return &Document{
		ID:     uuid.New(),
		Graph:  fact.NewGraph(),
		Filing: filing,
	}
}

// Index returns the attribute index of the document.
func (d *Document) Index() *fact.Index { return d.Graph.Index() }

// Root returns the root fact.
func (d *Document) Root() fact.Handle { return d.Graph.Root() }

// Warnings returns the warnings raised so far.
func (d *Document) Warnings() []Warning {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Warning(nil), d.warnings...)
}

func (d *Document) warn(w Warning) {
	d.mu.Lock()
	d.warnings = append(d.warnings, w)
	d.mu.Unlock()
}

// SetForm records the form type (e.g. "10-K") of the filing.
func (d *Document) SetForm(form string) {
	d.mu.Lock()
	d.Filing.Form = form
	d.mu.Unlock()
}

// Form returns the form type of the filing.
func (d *Document) Form() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Filing.Form
}
