package pivot

import (
	"slices"
	"sort"
	"strings"
)

// View is the read side of a pivot grid. Table implements it, and so do the
// filtering, consolidating and calculating layers stacked on top of it.
type View interface {
	RowCount() int
	ColumnCount() int
	ColumnTitle(col int) string
	Value(col, row int) (float64, bool)
	RowFieldNames() []string
	RowValues(row int) []string
}

var _ View = (*Table)(nil)

// ColumnIndex returns the position of the column with the given title, or -1.
func ColumnIndex(v View, title string) int {
	for c := 0; c < v.ColumnCount(); c++ {
		if v.ColumnTitle(c) == title {
			return c
		}
	}
	return -1
}

// ColumnTitles lists all column titles of v.
func ColumnTitles(v View) []string {
	out := make([]string, v.ColumnCount())
	for c := range out {
		out[c] = v.ColumnTitle(c)
	}
	return out
}

// RowValue returns the value of a named row dimension.
func RowValue(v View, row int, field string) (string, bool) {
	i := slices.Index(v.RowFieldNames(), field)
	if i < 0 {
		return "", false
	}
	return v.RowValues(row)[i], true
}

// Wrapper is implemented by views layered over another view.
type Wrapper interface {
	Unwrap() View
}

// WithRowField returns v, or the first view below it, that lists field as a
// row dimension. It returns nil when no layer does.
func WithRowField(v View, field string) View {
	for v != nil {
		if slices.Contains(v.RowFieldNames(), field) {
			return v
		}
		w, ok := v.(Wrapper)
		if !ok {
			return nil
		}
		v = w.Unwrap()
	}
	return nil
}

// ToList returns one map per row holding the row dimensions and one entry
// per column; absent cells are nil.
func ToList(v View) []map[string]any {
	fields := v.RowFieldNames()
	titles := ColumnTitles(v)
	out := make([]map[string]any, v.RowCount())
	for r := range out {
		m := make(map[string]any, len(fields)+len(titles))
		for i, val := range v.RowValues(r) {
			m[fields[i]] = val
		}
		for c, title := range titles {
			if f, ok := v.Value(c, r); ok {
				m[title] = f
			} else {
				m[title] = nil
			}
		}
		out[r] = m
	}
	return out
}

// =============================================================================
// ROW FILTERS
// =============================================================================

// RowFilter decides whether a row of v is kept.
type RowFilter func(v View, row int) bool

type filteredView struct {
	View
	rows []int
}

// FilterRows returns a view of the rows of v accepted by keep.
func FilterRows(v View, keep RowFilter) View {
	f := &filteredView{View: v}
	for r := 0; r < v.RowCount(); r++ {
		if keep(v, r) {
			f.rows = append(f.rows, r)
		}
	}
	return f
}

func (f *filteredView) RowCount() int { return len(f.rows) }
func (f *filteredView) Unwrap() View  { return f.View }

func (f *filteredView) Value(col, row int) (float64, bool) {
	if row < 0 || row >= len(f.rows) {
		return 0, false
	}
	return f.View.Value(col, f.rows[row])
}

func (f *filteredView) RowValues(row int) []string { return f.View.RowValues(f.rows[row]) }

func months(v View, row int) (string, bool) { return RowValue(v, row, "numberOfMonths") }

func isAnnualForm(v View, row int) bool {
	form, ok := RowValue(v, row, "form")
	return !ok || strings.Contains(form, "10-K")
}

// FilterYearly keeps annual report rows covering twelve months, plus point
// in time values (zero months).
func FilterYearly(v View, row int) bool {
	m, ok := months(v, row)
	if ok && m != "12" && m != "0" {
		return false
	}
	return isAnnualForm(v, row)
}

// FilterQuarterly keeps rows covering a single quarter, plus point in time
// values.
func FilterQuarterly(v View, row int) bool {
	m, ok := months(v, row)
	return !ok || m == "3" || m == "0"
}

// FilterQuarterlyCumulated keeps rows covering three, six, nine or twelve
// months, the year to date periods of quarterly and annual reports.
func FilterQuarterlyCumulated(v View, row int) bool {
	m, ok := months(v, row)
	if !ok {
		return true
	}
	switch m {
	case "0", "3", "6", "9", "12":
		return true
	}
	return false
}

// =============================================================================
// CONSOLIDATION
// =============================================================================

type consolidatedView struct {
	base   View
	fields []string
	keys   []*Key
	groups [][]int
}

// Consolidate merges rows that only differ in the dropped dimensions. Per
// cell, the first non empty value in base row order wins.
func Consolidate(v View, drop ...string) View {
	all := v.RowFieldNames()
	var keep []int
	var fields []string
	for i, f := range all {
		if !slices.Contains(drop, f) {
			keep = append(keep, i)
			fields = append(fields, f)
		}
	}

	c := &consolidatedView{base: v, fields: fields}
	set := newKeySet()
	pos := map[*Key]int{}
	for r := 0; r < v.RowCount(); r++ {
		vals := v.RowValues(r)
		proj := make([]string, len(keep))
		for i, k := range keep {
			proj[i] = vals[k]
		}
		k := set.add(NewKey(proj...))
		i, ok := pos[k]
		if !ok {
			i = len(c.keys)
			pos[k] = i
			c.keys = append(c.keys, k)
			c.groups = append(c.groups, nil)
		}
		c.groups[i] = append(c.groups[i], r)
	}

	order := make([]int, len(c.keys))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return c.keys[order[a]].Compare(c.keys[order[b]]) < 0 })
	keys := make([]*Key, len(order))
	groups := make([][]int, len(order))
	for i, o := range order {
		keys[i], groups[i] = c.keys[o], c.groups[o]
	}
	c.keys, c.groups = keys, groups
	return c
}

func (c *consolidatedView) RowCount() int              { return len(c.keys) }
func (c *consolidatedView) ColumnCount() int           { return c.base.ColumnCount() }
func (c *consolidatedView) ColumnTitle(col int) string { return c.base.ColumnTitle(col) }
func (c *consolidatedView) RowFieldNames() []string    { return append([]string(nil), c.fields...) }
func (c *consolidatedView) RowValues(row int) []string { return c.keys[row].Values() }
func (c *consolidatedView) Unwrap() View               { return c.base }

func (c *consolidatedView) Value(col, row int) (float64, bool) {
	if row < 0 || row >= len(c.groups) {
		return 0, false
	}
	for _, r := range c.groups[row] {
		if v, ok := c.base.Value(col, r); ok {
			return v, true
		}
	}
	return 0, false
}

// =============================================================================
// COLUMN FILTER
// =============================================================================

type columnView struct {
	View
	cols []int
}

// RemoveColumns hides the columns with the given titles.
func RemoveColumns(v View, titles ...string) View {
	c := &columnView{View: v}
	for col := 0; col < v.ColumnCount(); col++ {
		if !slices.Contains(titles, v.ColumnTitle(col)) {
			c.cols = append(c.cols, col)
		}
	}
	return c
}

func (c *columnView) ColumnCount() int           { return len(c.cols) }
func (c *columnView) Unwrap() View               { return c.View }
func (c *columnView) ColumnTitle(col int) string { return c.View.ColumnTitle(c.cols[col]) }

func (c *columnView) Value(col, row int) (float64, bool) {
	if col < 0 || col >= len(c.cols) {
		return 0, false
	}
	return c.View.Value(c.cols[col], row)
}
