package xbrl

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"smart_edgar/pkg/core/fact"
)

// Attr is one attribute of an opened element.
type Attr struct {
	Name  string // local name
	Value string
}

// Handler receives the event stream of one document.
type Handler interface {
	StartElement(uri, localName, qName string, attrs []Attr)
	CharData(text string)
	EndElement(uri, localName, qName string)
	EndDocument()
}

// Builder constructs a Document from element events using an explicit stack
// of ancestor facts.
type Builder struct {
	doc        *Document
	graph      *fact.Graph
	formatters Formatters
	opts       Options
	log        *slog.Logger

	stack     []fact.Handle
	depth     int
	line      int64
	text      strings.Builder
	truncated bool
}

var _ Handler = (*Builder)(nil)

// NewBuilder creates a builder that appends below the root of doc.
func NewBuilder(doc *Document, opts Options) *Builder {
	return &Builder{
		doc:        doc,
		graph:      doc.Graph,
		formatters: DefaultFormatters(opts.ConvertHTMLToText),
		opts:       opts,
		log:        opts.logger().With("document", doc.ID.String()),
		stack:      []fact.Handle{doc.Root()},
	}
}

// Document returns the document being built.
func (b *Builder) Document() *Document { return b.doc }

func (b *Builder) top() fact.Handle { return b.stack[len(b.stack)-1] }

// StartElement opens a new fact as child of the current stack top.
func (b *Builder) StartElement(uri, localName, qName string, attrs []Attr) {
	if b.graph == nil {
		return
	}
	b.line++
	b.resetText()

	typ, known := fact.ResolveType(localName, b.depth, b.opts.FactsDocument)
	if !known && typ == fact.TypeUndefined {
		b.log.Warn("tag not recognised, using UNDEFINED", "tag", localName, "line", b.line)
		b.doc.warn(Warning{Kind: WarnUnrecognizedTag, Tag: localName, Line: b.line})
	}

	h := b.graph.AddChild(b.top(), typ, localName, b.line)
	for _, a := range attrs {
		if a.Value != "" {
			b.graph.Put(h, a.Name, a.Value)
		}
	}
	if typ == fact.TypeValue {
		b.graph.Put(h, fact.AttrParameterName, localName)
		if uri != "" {
			b.graph.Put(h, fact.AttrURI, uri)
		}
		b.graph.Put(h, fact.AttrPrefix, prefixOf(qName))
	}

	b.stack = append(b.stack, h)
	b.depth++
}

// CharData accumulates text up to the configured maximum field size.
func (b *Builder) CharData(text string) {
	if b.graph == nil {
		return
	}
	limit := b.opts.maxFieldSize()
	if remaining := limit - b.text.Len(); remaining > 0 {
		if len(text) > remaining {
			for remaining > 0 && !utf8.RuneStart(text[remaining]) {
				remaining--
			}
			text = text[:remaining]
			b.markTruncated(limit)
		}
		b.text.WriteString(text)
	} else if len(text) > 0 {
		b.markTruncated(limit)
	}
}

func (b *Builder) markTruncated(limit int) {
	if b.truncated {
		return
	}
	b.truncated = true
	tag := b.graph.Tag(b.top())
	b.log.Warn("content is longer than the maximum field size, cutting off", "tag", tag, "limit", limit)
	b.doc.warn(Warning{Kind: WarnTruncatedText, Tag: tag, Line: b.graph.Line(b.top())})
}

// EndElement stores the collected text on the current fact and pops it.
func (b *Builder) EndElement(uri, localName, qName string) {
	if b.graph == nil || len(b.stack) <= 1 {
		return
	}
	h := b.top()
	if str := strings.TrimSpace(b.text.String()); str != "" {
		// only value facts are normalized; identifiers keep leading zeros
		if b.graph.IsValue(h) {
			b.graph.Put(h, fact.AttrValue, b.formatters.Format(fact.ClassifyValue(str), str))
		} else {
			b.graph.Put(h, localName, str)
		}

		// consumers need the form before post processing runs
		if b.graph.IsValue(h) && strings.EqualFold(b.graph.ParameterName(h), "DocumentType") {
			b.doc.SetForm(str)
		}
	}
	b.stack = b.stack[:len(b.stack)-1]
	b.depth--
	b.resetText()
}

// EndDocument releases everything the builder holds on to.
func (b *Builder) EndDocument() {
	b.resetText()
	b.stack = nil
	b.graph = nil
}

func (b *Builder) resetText() {
	b.text.Reset()
	b.truncated = false
}

func prefixOf(qName string) string {
	if i := strings.IndexByte(qName, ':'); i >= 0 {
		return qName[:i]
	}
	return qName
}
