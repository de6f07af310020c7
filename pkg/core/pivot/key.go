package pivot

import (
	"encoding/binary"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Key is an ordered tuple of values identifying a row or column group.
// Its hash is computed once, on first use.
type Key struct {
	values []string
	hash   uint64
	hashed bool
}

// NewKey creates a key over a copy of values.
func NewKey(values ...string) *Key {
	return &Key{values: append([]string(nil), values...)}
}

// Values returns a copy of the tuple.
func (k *Key) Values() []string { return append([]string(nil), k.values...) }

// Len returns the arity of the key.
func (k *Key) Len() int { return len(k.values) }

// Value returns the i-th tuple element.
func (k *Key) Value(i int) string { return k.values[i] }

// IsEmpty reports whether the key has no values.
func (k *Key) IsEmpty() bool { return len(k.values) == 0 }

// Hash returns the memoized hash of the tuple.
func (k *Key) Hash() uint64 {
	if !k.hashed {
		d := xxhash.New()
		var n [8]byte
		for _, v := range k.values {
			// length prefix keeps ("ab","c") apart from ("a","bc")
			binary.LittleEndian.PutUint64(n[:], uint64(len(v)))
			_, _ = d.Write(n[:])
			_, _ = d.WriteString(v)
		}
		k.hash = d.Sum64()
		k.hashed = true
	}
	return k.hash
}

// Equal compares the full tuple.
func (k *Key) Equal(o *Key) bool {
	if len(k.values) != len(o.values) {
		return false
	}
	for i, v := range k.values {
		if v != o.values[i] {
			return false
		}
	}
	return true
}

// Compare orders keys lexicographically over the tuple. A key that is a
// prefix of another sorts first.
func (k *Key) Compare(o *Key) int {
	for i := 0; i < len(k.values) && i < len(o.values); i++ {
		if c := strings.Compare(k.values[i], o.values[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(k.values) < len(o.values):
		return -1
	case len(k.values) > len(o.values):
		return 1
	}
	return 0
}

func (k *Key) String() string { return strings.Join(k.values, " ") }

// CombinedKey addresses one cell by column key and row key.
type CombinedKey struct {
	Column *Key
	Row    *Key
}

// Hash mixes both component hashes in an order sensitive way, so swapping
// row and column yields a different hash.
func (c CombinedKey) Hash() uint64 {
	a, b := c.Column.Hash(), c.Row.Hash()
	return a ^ (b + 0x9e3779b97f4a7c15 + (a << 6) + (a >> 2))
}

func (c CombinedKey) Equal(o CombinedKey) bool {
	return c.Column.Equal(o.Column) && c.Row.Equal(o.Row)
}

// Compare is column major: the column keys decide unless they are equal.
func (c CombinedKey) Compare(o CombinedKey) int {
	if r := c.Column.Compare(o.Column); r != 0 {
		return r
	}
	return c.Row.Compare(o.Row)
}
