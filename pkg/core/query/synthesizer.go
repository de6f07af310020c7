// Package query synthesizes the aggregation SQL behind a pivot request.
//
// Direct mode groups the value field by the row and column fields in one
// SELECT. Priority mode is used when the request touches the model's
// priority dimension: the same logical value may be reported under several
// source parameters, and only the one with the smallest priority number per
// identifier and group may survive before rows of different identifiers are
// added up.
package query

import (
	"fmt"
	"slices"
	"strings"

	"smart_edgar/pkg/core/reporting"
)

// Mode is the synthesis strategy picked for a request.
type Mode int

const (
	ModeDirect Mode = iota
	ModePriority
)

func (m Mode) String() string {
	if m == ModePriority {
		return "priority"
	}
	return "direct"
}

// Names of the intermediate relations of a priority query.
const (
	RankedRelation  = "ranked"
	CompanyRelation = "companyValues"

	rankColumn     = "priorityRank"
	priorityColumn = "priority"
)

// Filter restricts a field to (or, with Exclude, away from) a set of values.
type Filter struct {
	Field   string
	Values  []string
	Exclude bool
}

// Request is a pivot request: row and column dimensions, the aggregated
// value field and filters.
type Request struct {
	Rows    []string
	Columns []string
	// Value defaults to the model's value field.
	Value   string
	Filters []Filter
}

// Groups returns the row fields followed by the column fields.
func (r Request) Groups() []string {
	out := make([]string, 0, len(r.Rows)+len(r.Columns))
	out = append(out, r.Rows...)
	return append(out, r.Columns...)
}

// Synthesizer builds SQL text for requests against one model.
type Synthesizer struct {
	model *reporting.Model
}

// New creates a synthesizer for model.
func New(model *reporting.Model) *Synthesizer {
	return &Synthesizer{model: model}
}

// Model returns the schema the synthesizer works on.
func (s *Synthesizer) Model() *reporting.Model { return s.model }

// Mode picks priority mode when any row, column or filter field, including
// the model's fixed filter fields, is the model's priority dimension.
func (s *Synthesizer) Mode(req Request) Mode {
	for _, name := range req.Groups() {
		if s.model.IsPriorityDimension(name) {
			return ModePriority
		}
	}
	for _, f := range req.Filters {
		if s.model.IsPriorityDimension(f.Field) {
			return ModePriority
		}
	}
	for _, f := range s.model.FilterFields() {
		if s.model.IsPriorityDimension(f.Name) {
			return ModePriority
		}
	}
	return ModeDirect
}

// resolved holds the fields a request refers to.
type resolved struct {
	groups     []*reporting.Field
	value      *reporting.Field
	conditions []string
	tables     []string
}

func (s *Synthesizer) resolve(req Request) (*resolved, error) {
	r := &resolved{}
	addTable := func(f *reporting.Field) {
		if !slices.Contains(r.tables, f.Table) {
			r.tables = append(r.tables, f.Table)
		}
	}

	for _, name := range req.Groups() {
		f, err := s.model.Field(name)
		if err != nil {
			return nil, err
		}
		r.groups = append(r.groups, f)
		addTable(f)
	}

	valueName := req.Value
	if valueName == "" {
		valueName = s.model.ValueField
	}
	value, err := s.model.Field(valueName)
	if err != nil {
		return nil, err
	}
	r.value = value
	addTable(value)

	filtered := map[*reporting.Field]bool{}
	for _, flt := range req.Filters {
		f, err := s.model.Field(flt.Field)
		if err != nil {
			return nil, err
		}
		filtered[f] = true
		addTable(f)
		if len(flt.Values) == 0 {
			continue
		}
		r.conditions = append(r.conditions, reporting.Condition(f.WithFilter(flt.Values, flt.Exclude)))
	}
	// fixed model filters apply unless the request overrides them
	for _, f := range s.model.FilterFields() {
		if filtered[f] {
			continue
		}
		addTable(f)
		r.conditions = append(r.conditions, reporting.Condition(f))
	}
	return r, nil
}

// SQL synthesizes the query text for req.
func (s *Synthesizer) SQL(req Request) (string, error) {
	r, err := s.resolve(req)
	if err != nil {
		return "", err
	}
	if s.Mode(req) == ModePriority {
		return s.prioritySQL(r)
	}
	return s.directSQL(r)
}

func (s *Synthesizer) directSQL(r *resolved) (string, error) {
	from, err := s.model.FromClause(r.tables...)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	for _, f := range r.groups {
		sb.WriteString(selectItem(f.SQL(), f.Name))
		sb.WriteString(", ")
	}
	sb.WriteString(selectItem("SUM("+r.value.SQL()+")", r.value.Name))
	sb.WriteString("\n")
	sb.WriteString(from)
	writeWhere(&sb, r.conditions)
	writeGroupOrder(&sb, groupExprs(r.groups), quotedNames(r.groups))
	return sb.String(), nil
}

// prioritySQL builds the two stage query. Stage one ranks the alternatives
// of every (identifier, groups) tuple by priority; stage two keeps the
// first ranked row per tuple. The outer query adds up identifiers.
func (s *Synthesizer) prioritySQL(r *resolved) (string, error) {
	m := s.model
	priority, err := m.Field(m.PriorityField)
	if err != nil {
		return "", err
	}
	identifier, err := m.Field(m.IdentifierField)
	if err != nil {
		return "", err
	}

	tables := append(slices.Clone(r.tables), priority.Table, identifier.Table)
	from, err := m.FromClause(tables...)
	if err != nil {
		return "", err
	}

	// identifier leads the partition unless it is already a group
	keys := []*reporting.Field{identifier}
	for _, g := range r.groups {
		if g != identifier {
			keys = append(keys, g)
		}
	}
	partition := groupExprs(keys)

	var sb strings.Builder
	sb.WriteString("WITH ")
	sb.WriteString(RankedRelation)
	sb.WriteString(" AS (\n  SELECT ")
	for _, f := range keys {
		sb.WriteString(selectItem(f.SQL(), f.Name))
		sb.WriteString(", ")
	}
	sb.WriteString(selectItem(priority.SQL(), priorityColumn))
	sb.WriteString(", ")
	sb.WriteString(selectItem("SUM("+r.value.SQL()+")", r.value.Name))
	sb.WriteString(", ")
	sb.WriteString(selectItem(fmt.Sprintf("ROW_NUMBER() OVER (PARTITION BY %s ORDER BY %s)",
		strings.Join(partition, ", "), priority.SQL()), rankColumn))
	sb.WriteString("\n  ")
	sb.WriteString(strings.ReplaceAll(from, "\n", "\n  "))
	if len(r.conditions) > 0 {
		sb.WriteString("\n  WHERE ")
		sb.WriteString(strings.Join(r.conditions, "\n    AND "))
	}
	sb.WriteString("\n  GROUP BY ")
	sb.WriteString(strings.Join(append(partition, priority.SQL()), ", "))
	sb.WriteString("\n),\n")

	sb.WriteString(CompanyRelation)
	sb.WriteString(" AS (\n  SELECT ")
	for _, f := range keys {
		sb.WriteString(reporting.QuoteIdent(f.Name))
		sb.WriteString(", ")
	}
	sb.WriteString(reporting.QuoteIdent(r.value.Name))
	sb.WriteString("\n  FROM ")
	sb.WriteString(RankedRelation)
	sb.WriteString("\n  WHERE ")
	sb.WriteString(reporting.QuoteIdent(rankColumn))
	sb.WriteString(" = 1\n)\n")

	names := quotedNames(r.groups)
	sb.WriteString("SELECT ")
	for _, n := range names {
		sb.WriteString(n)
		sb.WriteString(", ")
	}
	sb.WriteString(selectItem("SUM("+reporting.QuoteIdent(r.value.Name)+")", r.value.Name))
	sb.WriteString("\nFROM ")
	sb.WriteString(CompanyRelation)
	writeGroupOrder(&sb, names, names)
	return sb.String(), nil
}

func selectItem(expr, name string) string {
	return expr + " AS " + reporting.QuoteIdent(name)
}

func groupExprs(fields []*reporting.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.SQL()
	}
	return out
}

func quotedNames(fields []*reporting.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = reporting.QuoteIdent(f.Name)
	}
	return out
}

func writeWhere(sb *strings.Builder, conditions []string) {
	if len(conditions) == 0 {
		return
	}
	sb.WriteString("\nWHERE ")
	sb.WriteString(strings.Join(conditions, "\n  AND "))
}

func writeGroupOrder(sb *strings.Builder, group, order []string) {
	if len(group) == 0 {
		return
	}
	sb.WriteString("\nGROUP BY ")
	sb.WriteString(strings.Join(group, ", "))
	sb.WriteString("\nORDER BY ")
	sb.WriteString(strings.Join(order, ", "))
}
