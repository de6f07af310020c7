// Package pivot turns query result rows into a row by column grid addressed
// by composite keys, and provides read-only views layered over such a grid.
package pivot

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TotalTitle is the title of the column addressed by an empty key.
const TotalTitle = "Total"

// Record is one result row keyed by field name.
type Record map[string]any

type cell struct {
	key   CombinedKey
	value float64
	ok    bool
}

// Table is the pivot grid. Build it with PutRecord, then call Sort once all
// records are in. After that it is read only.
type Table struct {
	rowFields    []string
	columnFields []string
	valueField   string

	rows    *keySet
	columns *keySet
	cells   map[uint64][]cell
	size    int
}

// NewTable creates an empty table. An empty valueField builds a table of
// row keys only.
func NewTable(rowFields, columnFields []string, valueField string) *Table {
	return &Table{
		rowFields:    append([]string(nil), rowFields...),
		columnFields: append([]string(nil), columnFields...),
		valueField:   valueField,
		rows:         newKeySet(),
		columns:      newKeySet(),
		cells:        map[uint64][]cell{},
	}
}

// AddRowKey registers a row key and returns the stored instance.
func (t *Table) AddRowKey(values ...string) *Key { return t.rows.add(NewKey(values...)) }

// AddColumnKey registers a column key and returns the stored instance.
func (t *Table) AddColumnKey(values ...string) *Key { return t.columns.add(NewKey(values...)) }

// PutRecord files one result row. Its row and column keys are created on
// first sight; the value field, when configured, is stored in the cell. A
// nil or non numeric value creates an absent cell but never replaces a
// present value.
func (t *Table) PutRecord(rec Record) {
	row := t.AddRowKey(fieldValues(rec, t.rowFields)...)
	col := t.AddColumnKey(fieldValues(rec, t.columnFields)...)
	if t.valueField == "" {
		return
	}
	v, ok := ToFloat(rec[t.valueField])
	t.put(CombinedKey{Column: col, Row: row}, v, ok)
}

func (t *Table) put(k CombinedKey, v float64, ok bool) {
	h := k.Hash()
	bucket := t.cells[h]
	for i := range bucket {
		if bucket[i].key.Equal(k) {
			if ok {
				bucket[i].value, bucket[i].ok = v, true
			}
			return
		}
	}
	t.cells[h] = append(bucket, cell{key: k, value: v, ok: ok})
	t.size++
}

// Sort orders row and column keys. Values are addressed by key, so sorting
// never moves a value away from its labels.
func (t *Table) Sort() {
	t.rows.sort()
	t.columns.sort()
}

// Lookup returns the cell value for a column and row key.
func (t *Table) Lookup(col, row *Key) (float64, bool) {
	k := CombinedKey{Column: col, Row: row}
	for _, c := range t.cells[k.Hash()] {
		if c.key.Equal(k) {
			return c.value, c.ok
		}
	}
	return 0, false
}

// Value returns the cell at the given display position.
func (t *Table) Value(col, row int) (float64, bool) {
	if col < 0 || col >= t.columns.len() || row < 0 || row >= t.rows.len() {
		return 0, false
	}
	return t.Lookup(t.columns.keys[col], t.rows.keys[row])
}

// RowCount returns the number of distinct row keys.
func (t *Table) RowCount() int { return t.rows.len() }

// ColumnCount returns the number of distinct column keys, or 0 for a table
// without a value field.
func (t *Table) ColumnCount() int {
	if t.valueField == "" {
		return 0
	}
	return t.columns.len()
}

// CellCount returns the number of stored cells.
func (t *Table) CellCount() int { return t.size }

// RowKey returns the key of a row.
func (t *Table) RowKey(row int) *Key { return t.rows.keys[row] }

// ColumnKey returns the key of a column.
func (t *Table) ColumnKey(col int) *Key { return t.columns.keys[col] }

// RowKeys returns the row keys in display order.
func (t *Table) RowKeys() []*Key { return append([]*Key(nil), t.rows.keys...) }

// ColumnKeys returns the column keys in display order.
func (t *Table) ColumnKeys() []*Key { return append([]*Key(nil), t.columns.keys...) }

// ColumnTitle joins the values of the column key; the empty key is "Total".
func (t *Table) ColumnTitle(col int) string {
	k := t.columns.keys[col]
	if k.IsEmpty() {
		return TotalTitle
	}
	return k.String()
}

// RowFieldNames returns the row dimension names.
func (t *Table) RowFieldNames() []string { return append([]string(nil), t.rowFields...) }

// ColumnFieldNames returns the column dimension names.
func (t *Table) ColumnFieldNames() []string { return append([]string(nil), t.columnFields...) }

// ValueField returns the aggregated field name.
func (t *Table) ValueField() string { return t.valueField }

// RowValues returns the row key values.
func (t *Table) RowValues(row int) []string { return t.rows.keys[row].Values() }

func (t *Table) String() string {
	return fmt.Sprintf("pivot.Table{rows: %d, columns: %d, cells: %d}", t.RowCount(), t.ColumnCount(), t.size)
}

func fieldValues(rec Record, fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = ToString(rec[f])
	}
	return out
}

// ToString renders a result column value as a key component.
func ToString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// ToFloat converts a result column value to a finite number.
func ToFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = p
	case []byte:
		return ToFloat(string(x))
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
