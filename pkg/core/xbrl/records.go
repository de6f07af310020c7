package xbrl

import (
	"math"
	"strconv"
	"strings"
	"time"

	"smart_edgar/pkg/core/fact"
)

// ValueRecord is one reported numeric value resolved against its context.
// It is the row shape the reporting schema's values table is built from.
type ValueRecord struct {
	Identifier       string  `json:"identifier"`
	Date             string  `json:"date"`
	NumberOfMonths   int     `json:"numberOfMonths"`
	ParameterName    string  `json:"parameterName"`
	Value            float64 `json:"value"`
	UnitRef          string  `json:"unitRef"`
	Segment          string  `json:"segment,omitempty"`
	SegmentDimension string  `json:"segmentDimension,omitempty"`
	Prefix           string  `json:"prefix,omitempty"`
	Form             string  `json:"form"`
	File             string  `json:"file,omitempty"`
}

// Fields returns the record keyed by its reporting field names.
func (r ValueRecord) Fields() map[string]any {
	return map[string]any{
		"identifier":       r.Identifier,
		"date":             r.Date,
		"numberOfMonths":   strconv.Itoa(r.NumberOfMonths),
		"parameterName":    r.ParameterName,
		"value":            r.Value,
		"unitRef":          r.UnitRef,
		"segment":          r.Segment,
		"segmentDimension": r.SegmentDimension,
		"prefix":           r.Prefix,
		"form":             r.Form,
		"file":             r.File,
	}
}

const isoDate = "2006-01-02"

type periodContext struct {
	identifier string
	date       string
	months     int
	segment    string
	dimension  string
}

// Records extracts every numeric value fact of doc. Contexts are located
// through the attribute index instead of walking the tree for each fact.
func Records(doc *Document) []ValueRecord {
	g := doc.Graph
	contexts := map[string]*periodContext{}
	form := doc.Form()

	var out []ValueRecord
	for _, h := range g.FactsOfType(g.Root(), fact.TypeValue) {
		if g.DataType(h) != fact.DataTypeNumber {
			continue
		}
		ref := g.Attr(h, fact.AttrContextRef)
		if ref == "" {
			continue
		}
		ctx, ok := contexts[ref]
		if !ok {
			ctx = resolveContext(g, ref)
			contexts[ref] = ctx
		}
		if ctx == nil {
			continue
		}
		v, err := strconv.ParseFloat(g.Attr(h, fact.AttrValue), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, ValueRecord{
			Identifier:       ctx.identifier,
			Date:             ctx.date,
			NumberOfMonths:   ctx.months,
			ParameterName:    g.ParameterName(h),
			Value:            v,
			UnitRef:          g.Attr(h, fact.AttrUnitRef),
			Segment:          ctx.segment,
			SegmentDimension: ctx.dimension,
			Prefix:           g.Attr(h, fact.AttrPrefix),
			Form:             form,
			File:             doc.Filing.File,
		})
	}
	return out
}

func resolveContext(g *fact.Graph, id string) *periodContext {
	for _, h := range g.Index().Find(id) {
		if g.Type(h) != fact.TypeContext || g.Attr(h, fact.AttrID) != id {
			continue
		}
		pc := &periodContext{}
		var start, end, instant string
		for _, f := range g.Flatten(h) {
			switch g.Type(f) {
			case fact.TypeIdentifier:
				pc.identifier = g.Attr(f, fact.AttrIdentifier)
			case fact.TypeStartDate:
				start = g.Attr(f, fact.AttrStartDate)
			case fact.TypeEndDate:
				end = g.Attr(f, fact.AttrEndDate)
			case fact.TypeInstant:
				instant = g.Attr(f, fact.AttrInstant)
			case fact.TypeExplicitMember:
				pc.dimension = g.Attr(f, fact.AttrDimension)
				pc.segment = g.Attr(f, fact.AttrExplicitMember)
			}
		}
		if end != "" {
			pc.date = end
			pc.months = monthsBetween(start, end)
		} else {
			pc.date = instant
		}
		return pc
	}
	return nil
}

func monthsBetween(start, end string) int {
	s, err1 := time.Parse(isoDate, start)
	e, err2 := time.Parse(isoDate, end)
	if err1 != nil || err2 != nil || e.Before(s) {
		return 0
	}
	return int(math.Round(e.Sub(s).Hours() / 24 / 30.4))
}

// TextValue is a value fact with a textual payload.
type TextValue struct {
	ParameterName string
	ContextRef    string
	DataType      fact.DataType
	Value         string
}

// TextValues returns the string and markup value facts of doc. Markup is
// converted to text when convertHTML is set.
func TextValues(doc *Document, convertHTML bool) []TextValue {
	g := doc.Graph
	var out []TextValue
	for _, h := range g.FactsOfType(g.Root(), fact.TypeValue) {
		dt := g.DataType(h)
		if dt != fact.DataTypeString && dt != fact.DataTypeHTML {
			continue
		}
		v := g.Attr(h, fact.AttrValue)
		if dt == fact.DataTypeHTML && convertHTML {
			v = HTMLToText(v)
		}
		out = append(out, TextValue{
			ParameterName: g.ParameterName(h),
			ContextRef:    g.Attr(h, fact.AttrContextRef),
			DataType:      dt,
			Value:         v,
		})
	}
	return out
}

// fillFilingInfo completes the filing info from the dei cover page facts.
func fillFilingInfo(doc *Document) {
	g := doc.Graph
	value := func(parameter string) string {
		for _, h := range g.Index().Find(parameter) {
			if g.IsValue(h) && g.ParameterName(h) == parameter {
				return g.Attr(h, fact.AttrValue)
			}
		}
		return ""
	}
	if doc.Filing.CompanyNumber == "" {
		doc.Filing.CompanyNumber = strings.TrimSpace(value("EntityCentralIndexKey"))
	}
	if doc.Filing.CompanyNumber == "" {
		for _, h := range g.FactsOfType(g.Root(), fact.TypeIdentifier) {
			if id := g.Attr(h, fact.AttrIdentifier); id != "" {
				doc.Filing.CompanyNumber = id
				break
			}
		}
	}
	if doc.Filing.CompanyName == "" {
		doc.Filing.CompanyName = value("EntityRegistrantName")
	}
	if doc.Filing.Date == "" {
		doc.Filing.Date = value("DocumentPeriodEndDate")
	}
	if doc.Form() == "" {
		doc.SetForm(value("DocumentType"))
	}
}
