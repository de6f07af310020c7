package xbrl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart_edgar/pkg/core/fact"
)

func newTestBuilder(opts Options) (*Builder, *Document) {
	doc := NewDocument(Filing{CompanyNumber: "12345"})
	return NewBuilder(doc, opts), doc
}

func TestBuilderNestsFactsByStack(t *testing.T) {
	b, doc := newTestBuilder(Options{})
	g := doc.Graph

	b.StartElement("", "xbrl", "xbrl", nil)
	b.StartElement("", "context", "context", []Attr{{Name: "id", Value: "c1"}})
	b.StartElement("", "entity", "entity", nil)
	b.StartElement("", "identifier", "identifier", []Attr{{Name: "scheme", Value: "cik"}})
	b.CharData("0000320193")
	b.EndElement("", "identifier", "identifier")
	b.EndElement("", "entity", "entity")
	b.EndElement("", "context", "context")
	b.EndElement("", "xbrl", "xbrl")

	require.Len(t, g.Children(g.Root()), 1)
	xbrl := g.Children(g.Root())[0]
	assert.Equal(t, fact.TypeXBRL, g.Type(xbrl))
	assert.Equal(t, 1, g.Level(xbrl))

	ctx := g.Children(xbrl)[0]
	assert.Equal(t, fact.TypeContext, g.Type(ctx))
	assert.Equal(t, "c1", g.Attr(ctx, fact.AttrID))

	ids := g.FactsOfType(g.Root(), fact.TypeIdentifier)
	require.Len(t, ids, 1)
	assert.Equal(t, "0000320193", g.Attr(ids[0], fact.AttrIdentifier))
	assert.Equal(t, "cik", g.Attr(ids[0], "scheme"))
	assert.Equal(t, 4, g.Level(ids[0]))
	assert.Equal(t, []fact.Handle{ctx}, g.Index().Find("c1"))
}

func TestBuilderValueFacts(t *testing.T) {
	b, doc := newTestBuilder(Options{FactsDocument: true})
	g := doc.Graph

	b.StartElement("http://www.xbrl.org/2003/instance", "xbrl", "xbrli:xbrl", nil)
	b.StartElement("http://fasb.org/us-gaap/2020", "Assets", "us-gaap:Assets", []Attr{
		{Name: "contextRef", Value: "c1"},
		{Name: "unitRef", Value: "USD"},
		{Name: "decimals", Value: ""},
	})
	b.CharData("  351002000000.00 ")
	b.EndElement("http://fasb.org/us-gaap/2020", "Assets", "us-gaap:Assets")
	b.EndElement("http://www.xbrl.org/2003/instance", "xbrl", "xbrli:xbrl")

	values := g.FactsOfType(g.Root(), fact.TypeValue)
	require.Len(t, values, 1)
	v := values[0]
	assert.Equal(t, "Assets", g.ParameterName(v))
	assert.Equal(t, "us-gaap", g.Attr(v, fact.AttrPrefix))
	assert.Equal(t, "http://fasb.org/us-gaap/2020", g.Attr(v, fact.AttrURI))
	assert.Equal(t, "351002000000", g.Attr(v, fact.AttrValue))
	assert.Equal(t, fact.DataTypeNumber, g.DataType(v))

	_, hasDecimals := g.LookupAttr(v, fact.AttrDecimals)
	assert.False(t, hasDecimals, "empty attributes are not stored")
	assert.Empty(t, doc.Warnings())
}

func TestBuilderUnknownTagOutsideFactsDocument(t *testing.T) {
	b, doc := newTestBuilder(Options{})
	g := doc.Graph

	b.StartElement("", "xbrl", "xbrl", nil)
	b.StartElement("", "Revenues", "us-gaap:Revenues", nil)
	b.CharData("10")
	b.EndElement("", "Revenues", "us-gaap:Revenues")
	b.EndElement("", "xbrl", "xbrl")

	undefined := g.FactsOfType(g.Root(), fact.TypeUndefined)
	require.Len(t, undefined, 1)
	assert.Equal(t, "Revenues", g.Tag(undefined[0]))
	assert.Equal(t, "10", g.Attr(undefined[0], "Revenues"))

	warnings := doc.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnUnrecognizedTag, warnings[0].Kind)
	assert.Equal(t, "Revenues", warnings[0].Tag)
}

func TestBuilderUnknownTagBelowDepthOne(t *testing.T) {
	b, doc := newTestBuilder(Options{FactsDocument: true})
	g := doc.Graph

	b.StartElement("", "xbrl", "xbrl", nil)
	b.StartElement("", "context", "context", nil)
	b.StartElement("", "scenario", "xbrli:scenario", nil)
	b.EndElement("", "scenario", "xbrli:scenario")
	b.EndElement("", "context", "context")
	b.EndElement("", "xbrl", "xbrl")

	assert.Len(t, g.FactsOfType(g.Root(), fact.TypeUndefined), 1)
	assert.Empty(t, g.FactsOfType(g.Root(), fact.TypeValue))
}

func TestBuilderTruncatesLongText(t *testing.T) {
	b, doc := newTestBuilder(Options{FactsDocument: true, MaxFieldSize: 8})
	g := doc.Graph

	b.StartElement("", "xbrl", "xbrl", nil)
	b.StartElement("", "Description", "dei:Description", nil)
	b.CharData("abcde")
	b.CharData("fghij")
	b.CharData("klmno")
	b.EndElement("", "Description", "dei:Description")
	b.EndElement("", "xbrl", "xbrl")

	v := g.FactsOfType(g.Root(), fact.TypeValue)[0]
	assert.Equal(t, "abcdefgh", g.Attr(v, fact.AttrValue))

	warnings := doc.Warnings()
	require.Len(t, warnings, 1, "one warning per fact")
	assert.Equal(t, WarnTruncatedText, warnings[0].Kind)
	assert.Equal(t, "Description", warnings[0].Tag)
}

func TestBuilderTruncatesOnRuneBoundary(t *testing.T) {
	b, doc := newTestBuilder(Options{FactsDocument: true, MaxFieldSize: 4})
	g := doc.Graph

	b.StartElement("", "xbrl", "xbrl", nil)
	b.StartElement("", "Name", "dei:Name", nil)
	b.CharData("abcé")
	b.EndElement("", "Name", "dei:Name")
	b.EndElement("", "xbrl", "xbrl")

	v := g.FactsOfType(g.Root(), fact.TypeValue)[0]
	assert.Equal(t, "abc", g.Attr(v, fact.AttrValue))
}

func TestBuilderSetsFormFromDocumentType(t *testing.T) {
	b, doc := newTestBuilder(Options{FactsDocument: true})

	b.StartElement("", "xbrl", "xbrl", nil)
	b.StartElement("", "DocumentType", "dei:DocumentType", nil)
	b.CharData("10-K")
	b.EndElement("", "DocumentType", "dei:DocumentType")

	assert.Equal(t, "10-K", doc.Form(), "form is available before the document ends")
	b.EndElement("", "xbrl", "xbrl")
}

func TestBuilderIgnoresEventsAfterEndDocument(t *testing.T) {
	b, doc := newTestBuilder(Options{})
	b.StartElement("", "xbrl", "xbrl", nil)
	b.EndElement("", "xbrl", "xbrl")
	b.EndDocument()

	n := doc.Graph.Len()
	b.StartElement("", "context", "context", nil)
	b.CharData("x")
	b.EndElement("", "context", "context")
	assert.Equal(t, n, doc.Graph.Len())
}

func TestBuilderLinesIncreaseInDocumentOrder(t *testing.T) {
	b, doc := newTestBuilder(Options{})
	g := doc.Graph

	b.StartElement("", "xbrl", "xbrl", nil)
	for i := 0; i < 3; i++ {
		b.StartElement("", "unit", "unit", nil)
		b.EndElement("", "unit", "unit")
	}
	b.EndElement("", "xbrl", "xbrl")

	units := g.FactsOfType(g.Root(), fact.TypeUnit)
	require.Len(t, units, 3)
	for i := 1; i < len(units); i++ {
		assert.Less(t, g.Line(units[i-1]), g.Line(units[i]))
	}
}

func TestPrefixOf(t *testing.T) {
	assert.Equal(t, "us-gaap", prefixOf("us-gaap:Assets"))
	assert.Equal(t, "Assets", prefixOf("Assets"))
	assert.Equal(t, "", prefixOf(":Assets"))
}
