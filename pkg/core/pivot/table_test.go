package pivot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quarterRecords() []Record {
	return []Record{
		{"period": "2021-Q3", "value": 120.0},
		{"period": "2021-Q1", "value": 100.0},
		{"period": "2021-Q4", "value": int64(130)},
		{"period": "2021-Q2", "value": "110"},
	}
}

func TestSingleImplicitColumn(t *testing.T) {
	tbl := Build([]string{"period"}, nil, "value", quarterRecords())

	require.Equal(t, 1, tbl.ColumnCount())
	require.Equal(t, 4, tbl.RowCount())
	assert.Equal(t, TotalTitle, tbl.ColumnTitle(0))

	v, ok := tbl.Value(0, 2)
	require.True(t, ok)
	assert.Equal(t, 120.0, v)
	assert.Equal(t, []string{"2021-Q3"}, tbl.RowValues(2))
}

func TestPutRecordDeduplicatesKeys(t *testing.T) {
	tbl := NewTable([]string{"date"}, []string{"parameterName"}, "value")
	tbl.PutRecord(Record{"date": "2021", "parameterName": "Revenues", "value": 1.0})
	tbl.PutRecord(Record{"date": "2021", "parameterName": "Assets", "value": 2.0})
	tbl.PutRecord(Record{"date": "2020", "parameterName": "Revenues", "value": 3.0})
	tbl.PutRecord(Record{"date": "2021", "parameterName": "Revenues", "value": 4.0})

	assert.Equal(t, 2, tbl.RowCount())
	assert.Equal(t, 2, tbl.ColumnCount())
	assert.Equal(t, 3, tbl.CellCount())

	// insertion order until sorted
	assert.Equal(t, "Revenues", tbl.ColumnTitle(0))
	tbl.Sort()
	assert.Equal(t, "Assets", tbl.ColumnTitle(0))
	assert.Equal(t, []string{"2020"}, tbl.RowValues(0))

	v, ok := tbl.Value(1, 1)
	require.True(t, ok)
	assert.Equal(t, 4.0, v, "later records overwrite the cell")

	_, ok = tbl.Value(0, 0)
	assert.False(t, ok, "Assets was never reported for 2020")
}

func TestValuesFollowKeysAfterSort(t *testing.T) {
	tbl := NewTable([]string{"date"}, []string{"parameterName"}, "value")
	tbl.PutRecord(Record{"date": "2022", "parameterName": "B", "value": 22.0})
	tbl.PutRecord(Record{"date": "2021", "parameterName": "A", "value": 11.0})
	tbl.Sort()

	for c := 0; c < tbl.ColumnCount(); c++ {
		for r := 0; r < tbl.RowCount(); r++ {
			v, ok := tbl.Value(c, r)
			want, wantOK := tbl.Lookup(tbl.ColumnKey(c), tbl.RowKey(r))
			assert.Equal(t, wantOK, ok)
			assert.Equal(t, want, v)
		}
	}
	v, _ := tbl.Value(ColumnIndex(tbl, "B"), 1)
	assert.Equal(t, 22.0, v)
}

func TestNullValuesAreAbsent(t *testing.T) {
	tbl := Build([]string{"date"}, nil, "value", []Record{
		{"date": "2021", "value": nil},
		{"date": "2022", "value": "n/a"},
	})
	assert.Equal(t, 2, tbl.CellCount())
	_, ok := tbl.Value(0, 0)
	assert.False(t, ok)
	_, ok = tbl.Value(0, 1)
	assert.False(t, ok)
	_, ok = tbl.Value(5, 5)
	assert.False(t, ok)
}

func TestNullValueKeepsPresentCell(t *testing.T) {
	tbl := Build([]string{"date", "segment"}, nil, "value", []Record{
		{"date": "2021", "segment": "", "value": 100.0},
		{"date": "2021", "segment": nil, "value": nil},
		{"date": "2022", "value": nil},
		{"date": "2022", "value": 5.0},
	})
	require.Equal(t, 2, tbl.RowCount())
	assert.Equal(t, 2, tbl.CellCount())

	v, ok := tbl.Value(0, 0)
	require.True(t, ok)
	assert.Equal(t, 100.0, v)

	v, ok = tbl.Value(0, 1)
	require.True(t, ok)
	assert.Equal(t, 5.0, v, "a value fills an absent cell")
}

func TestTableWithoutValueField(t *testing.T) {
	tbl := Build([]string{"identifier"}, nil, "", []Record{
		{"identifier": "2"}, {"identifier": "1"}, {"identifier": "2"},
	})
	assert.Equal(t, 0, tbl.ColumnCount())
	assert.Equal(t, 2, tbl.RowCount())
	assert.Equal(t, 0, tbl.CellCount())
}

func TestAddColumnKey(t *testing.T) {
	tbl := NewTable(nil, []string{"parameterName"}, "value")
	a := tbl.AddColumnKey("Revenues")
	b := tbl.AddColumnKey("Revenues")
	assert.Same(t, a, b)
	assert.Equal(t, 1, tbl.ColumnCount())
}

func TestToString(t *testing.T) {
	assert.Equal(t, "", ToString(nil))
	assert.Equal(t, "12", ToString(int64(12)))
	assert.Equal(t, "1.5", ToString(1.5))
	assert.Equal(t, "abc", ToString([]byte("abc")))
}

func TestToFloat(t *testing.T) {
	v, ok := ToFloat(" 42 ")
	assert.True(t, ok)
	assert.Equal(t, 42.0, v)

	_, ok = ToFloat("NaN")
	assert.False(t, ok)
	_, ok = ToFloat(struct{}{})
	assert.False(t, ok)
}

type failingSource struct{ err error }

func (f failingSource) Query(context.Context, string) ([]Record, error) { return nil, f.err }

func TestLoadSurfacesSourceErrors(t *testing.T) {
	boom := errors.New("connection refused")
	err := Load(context.Background(), NewTable(nil, nil, "value"), failingSource{boom}, "SELECT 1")
	assert.ErrorIs(t, err, boom)
}

func TestLoadFromMemory(t *testing.T) {
	tbl := NewTable([]string{"period"}, nil, "value")
	require.NoError(t, Load(context.Background(), tbl, MemorySource(quarterRecords()), ""))
	assert.Equal(t, []string{"2021-Q1"}, tbl.RowValues(0))
}
