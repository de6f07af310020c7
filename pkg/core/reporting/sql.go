package reporting

import (
	"strings"
)

// QuoteLiteral renders s as a single quoted SQL string literal.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// QuoteIdent renders name as a double quoted SQL identifier so result
// columns keep their case on every backend.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Condition renders the WHERE condition of a filtered field, or "" when the
// field has no filter.
func Condition(f *Field) string {
	if !f.HasFilter() {
		return ""
	}
	expr := f.SQL()

	var exact, patterns []string
	for _, v := range f.FilterValues {
		if f.Wildcard && strings.Contains(v, "*") {
			patterns = append(patterns, strings.ReplaceAll(v, "*", "%"))
		} else {
			exact = append(exact, v)
		}
	}

	var parts []string
	if len(exact) > 0 {
		lits := make([]string, len(exact))
		for i, v := range exact {
			lits[i] = QuoteLiteral(v)
		}
		op := " IN ("
		if f.FilterExclude {
			op = " NOT IN ("
		}
		parts = append(parts, expr+op+strings.Join(lits, ", ")+")")
	}
	for _, p := range patterns {
		op := " LIKE "
		if f.FilterExclude {
			op = " NOT LIKE "
		}
		parts = append(parts, expr+op+QuoteLiteral(p))
	}

	joiner := " OR "
	if f.FilterExclude {
		joiner = " AND "
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, joiner) + ")"
}

// FromClause renders FROM plus the joins needed to reach tables.
func (m *Model) FromClause(tables ...string) (string, error) {
	joins, err := m.JoinPath(tables...)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("FROM ")
	sb.WriteString(m.BaseTable)
	for _, j := range joins {
		sb.WriteString("\n")
		sb.WriteString(j.SQL())
	}
	return sb.String(), nil
}

// FieldValuesSQL lists the distinct values of a field. A non empty like
// pattern ('*' and '%' are wildcards) narrows the list.
func (m *Model) FieldValuesSQL(name, like string) (string, error) {
	f, err := m.Field(name)
	if err != nil {
		return "", err
	}
	from, err := m.FromClause(f.Table)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("SELECT DISTINCT ")
	sb.WriteString(f.SQL())
	sb.WriteString(" AS ")
	sb.WriteString(QuoteIdent(f.Name))
	sb.WriteString("\n")
	sb.WriteString(from)
	if like != "" {
		sb.WriteString("\nWHERE ")
		sb.WriteString(f.SQL())
		sb.WriteString(" LIKE ")
		sb.WriteString(QuoteLiteral(strings.ReplaceAll(like, "*", "%")))
	}
	sb.WriteString("\nORDER BY ")
	sb.WriteString(QuoteIdent(f.Name))
	return sb.String(), nil
}
