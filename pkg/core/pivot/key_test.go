package pivot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyEquality(t *testing.T) {
	a := NewKey("0000320193", "2021-03-31", "10-Q")
	b := NewKey("0000320193", "2021-03-31", "10-Q")

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Equal(t, 0, a.Compare(b))
}

func TestKeyOrdering(t *testing.T) {
	tests := []struct {
		a, b *Key
		want int
	}{
		{NewKey("a", "b"), NewKey("a", "c"), -1},
		{NewKey("b", "a"), NewKey("a", "z"), 1},
		{NewKey("a"), NewKey("a", "b"), -1},
		{NewKey(), NewKey("a"), -1},
		{NewKey("2021-Q2"), NewKey("2021-Q10"), 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.a.Compare(tt.b), "%v vs %v", tt.a, tt.b)
		assert.Equal(t, -tt.want, tt.b.Compare(tt.a))
		assert.False(t, tt.a.Equal(tt.b))
	}
}

func TestKeyHashSeparatesComponents(t *testing.T) {
	assert.NotEqual(t, NewKey("ab", "c").Hash(), NewKey("a", "bc").Hash())
	assert.NotEqual(t, NewKey("a", "").Hash(), NewKey("a").Hash())
}

func TestKeyCopiesValues(t *testing.T) {
	vals := []string{"x", "y"}
	k := NewKey(vals...)
	vals[0] = "changed"
	assert.Equal(t, []string{"x", "y"}, k.Values())

	out := k.Values()
	out[1] = "changed"
	assert.Equal(t, "y", k.Value(1))
}

func TestCombinedKeyIsColumnMajor(t *testing.T) {
	colA, colB := NewKey("Assets"), NewKey("Revenues")
	rowEarly, rowLate := NewKey("2020"), NewKey("2021")

	// the column decides even when the rows point the other way
	x := CombinedKey{Column: colA, Row: rowLate}
	y := CombinedKey{Column: colB, Row: rowEarly}
	assert.Equal(t, -1, x.Compare(y))
	assert.Equal(t, 1, y.Compare(x))

	z := CombinedKey{Column: colA, Row: rowEarly}
	assert.Equal(t, 1, x.Compare(z))
	assert.Equal(t, 0, x.Compare(CombinedKey{Column: NewKey("Assets"), Row: NewKey("2021")}))
}

func TestCombinedKeyHashIsOrderSensitive(t *testing.T) {
	a, b := NewKey("x"), NewKey("y")
	assert.NotEqual(t, CombinedKey{Column: a, Row: b}.Hash(), CombinedKey{Column: b, Row: a}.Hash())
	assert.Equal(t,
		CombinedKey{Column: NewKey("x"), Row: NewKey("y")}.Hash(),
		CombinedKey{Column: a, Row: b}.Hash())
}
