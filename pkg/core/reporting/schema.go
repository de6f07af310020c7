// Package reporting describes which logical fields can be queried, which
// table each one comes from and how the tables join. The query package turns
// a Model plus a pivot request into SQL text.
package reporting

import (
	"slices"
	"sort"
	"strings"
)

// Field is one logical, queryable column.
type Field struct {
	Table string `yaml:"-"`
	Name  string `yaml:"name"`
	// Expression is the SQL that computes a calculated field. Plain columns
	// leave it empty or equal to Name.
	Expression string `yaml:"expression,omitempty"`
	// Group is the grouping label; fields with a label are navigation
	// dimensions.
	Group string `yaml:"group,omitempty"`
	// FilterValues restricts the result rows to a fixed set of values, or
	// away from it when FilterExclude is set.
	FilterValues  []string `yaml:"filter,omitempty"`
	FilterExclude bool     `yaml:"exclude,omitempty"`
	// Wildcard enables '*' patterns in FilterValues.
	Wildcard bool `yaml:"wildcard,omitempty"`
}

// IsCalculated reports whether the field is computed by an expression.
func (f *Field) IsCalculated() bool {
	return f.Expression != "" && f.Expression != f.Name
}

// SQL returns the expression selecting the field.
func (f *Field) SQL() string {
	if f.IsCalculated() {
		return f.Expression
	}
	if f.Table == "" {
		return f.Name
	}
	return f.Table + "." + f.Name
}

// HasFilter reports whether the field restricts result rows.
func (f *Field) HasFilter() bool { return len(f.FilterValues) > 0 }

// WithFilter returns a copy of the field carrying the given filter.
func (f *Field) WithFilter(values []string, exclude bool) *Field {
	c := *f
	c.FilterValues = slices.Clone(values)
	c.FilterExclude = exclude
	return &c
}

// Table is a relation with its fields.
type Table struct {
	Name   string   `yaml:"name"`
	Fields []*Field `yaml:"fields"`
}

// Field finds a field of the table by case-insensitive name.
func (t *Table) Field(name string) (*Field, error) {
	for _, f := range t.Fields {
		if strings.EqualFold(f.Name, name) {
			return f, nil
		}
	}
	return nil, notFound("field", t.Name+"."+name)
}

// Join connects two tables by an equality on one column each.
type Join struct {
	Left        string `yaml:"left"`
	LeftColumn  string `yaml:"leftColumn"`
	Right       string `yaml:"right"`
	RightColumn string `yaml:"rightColumn"`
	// Outer keeps left rows without a match.
	Outer bool `yaml:"outer,omitempty"`
}

// Model owns the tables, fields and joins of a reporting schema.
type Model struct {
	Tables []*Table `yaml:"tables"`
	Joins  []Join   `yaml:"joins"`
	// BaseTable is the table every query starts from.
	BaseTable string `yaml:"base"`
	// ValueField is the default aggregated field.
	ValueField string `yaml:"value"`
	// IdentifierField partitions priority consolidation per reporting entity.
	IdentifierField string `yaml:"identifier"`
	// PriorityDimension is the field whose presence switches the synthesizer
	// to priority consolidation; PriorityField holds the ranking number.
	PriorityDimension string `yaml:"priorityDimension"`
	PriorityField     string `yaml:"priorityField"`
}

// Link sets the owning table name of every field. It must be called after
// tables are added or decoded.
func (m *Model) Link() *Model {
	for _, t := range m.Tables {
		for _, f := range t.Fields {
			f.Table = t.Name
		}
	}
	return m
}

// Table finds a table by case-insensitive name.
func (m *Model) Table(name string) (*Table, error) {
	for _, t := range m.Tables {
		if strings.EqualFold(t.Name, name) {
			return t, nil
		}
	}
	return nil, notFound("table", name)
}

// TableField finds a field of a named table.
func (m *Model) TableField(table, field string) (*Field, error) {
	t, err := m.Table(table)
	if err != nil {
		return nil, err
	}
	return t.Field(field)
}

// Field resolves a navigation field by name. Tables are searched in order,
// so the base table wins when several tables share a column name. A
// "table.field" name addresses a table explicitly.
func (m *Model) Field(name string) (*Field, error) {
	if table, field, ok := strings.Cut(name, "."); ok {
		return m.TableField(table, field)
	}
	for _, t := range m.orderedTables() {
		if f, err := t.Field(name); err == nil {
			return f, nil
		}
	}
	return nil, notFound("field", name)
}

func (m *Model) orderedTables() []*Table {
	out := make([]*Table, 0, len(m.Tables))
	for _, t := range m.Tables {
		if strings.EqualFold(t.Name, m.BaseTable) {
			out = append([]*Table{t}, out...)
		} else {
			out = append(out, t)
		}
	}
	return out
}

// Fields returns all fields of all tables.
func (m *Model) Fields() []*Field {
	var out []*Field
	for _, t := range m.Tables {
		out = append(out, t.Fields...)
	}
	return out
}

// Groupings returns the distinct grouping labels, sorted.
func (m *Model) Groupings() []string {
	seen := map[string]bool{}
	var out []string
	for _, f := range m.Fields() {
		if f.Group != "" && !seen[f.Group] {
			seen[f.Group] = true
			out = append(out, f.Group)
		}
	}
	sort.Strings(out)
	return out
}

// NavigationFields returns every field that carries a grouping label.
func (m *Model) NavigationFields() []*Field {
	var out []*Field
	for _, f := range m.Fields() {
		if f.Group != "" {
			out = append(out, f)
		}
	}
	return out
}

// NavigationFieldsForGrouping returns the fields labelled with group.
func (m *Model) NavigationFieldsForGrouping(group string) []*Field {
	var out []*Field
	for _, f := range m.Fields() {
		if strings.EqualFold(f.Group, group) {
			out = append(out, f)
		}
	}
	return out
}

// FilterFields returns the fields carrying a fixed filter.
func (m *Model) FilterFields() []*Field {
	var out []*Field
	for _, f := range m.Fields() {
		if f.HasFilter() {
			out = append(out, f)
		}
	}
	return out
}

// IsPriorityDimension reports whether name is the priority dimension.
func (m *Model) IsPriorityDimension(name string) bool {
	return m.PriorityDimension != "" && strings.EqualFold(name, m.PriorityDimension)
}

// JoinPath returns the joins that connect the base table with every table in
// tables, in an order where each join's left side is already reachable.
func (m *Model) JoinPath(tables ...string) ([]Join, error) {
	if _, err := m.Table(m.BaseTable); err != nil {
		return nil, err
	}
	base := strings.ToLower(m.BaseTable)

	// breadth first search over the join edges from the base table
	via := map[string]Join{}
	reached := map[string]bool{base: true}
	queue := []string{base}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, j := range m.Joins {
			l, r := strings.ToLower(j.Left), strings.ToLower(j.Right)
			switch {
			case l == cur && !reached[r]:
				reached[r] = true
				via[r] = j
				queue = append(queue, r)
			case r == cur && !reached[l]:
				reached[l] = true
				via[l] = Join{Left: j.Right, LeftColumn: j.RightColumn, Right: j.Left, RightColumn: j.LeftColumn, Outer: j.Outer}
				queue = append(queue, l)
			}
		}
	}

	var out []Join
	added := map[string]bool{base: true}
	var add func(t string) error
	add = func(t string) error {
		if added[t] {
			return nil
		}
		j, ok := via[t]
		if !ok {
			return notFound("join", m.BaseTable+" -> "+t)
		}
		if err := add(strings.ToLower(j.Left)); err != nil {
			return err
		}
		added[t] = true
		out = append(out, j)
		return nil
	}
	for _, t := range tables {
		if err := add(strings.ToLower(t)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SQL renders the join clause.
func (j Join) SQL() string {
	kind := "JOIN"
	if j.Outer {
		kind = "LEFT JOIN"
	}
	return kind + " " + j.Right + " ON " + j.Left + "." + j.LeftColumn + " = " + j.Right + "." + j.RightColumn
}
