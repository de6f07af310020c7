package fact

import (
	"github.com/RoaringBitmap/roaring"
)

// Index maps attribute values to the facts that carry them. It lives as long
// as the document it was built for; entries are only dropped by Reset.
type Index struct {
	byValue map[string]*roaring.Bitmap
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{byValue: make(map[string]*roaring.Bitmap)}
}

// Put records that fact h carries value.
func (ix *Index) Put(value string, h Handle) {
	bm, ok := ix.byValue[value]
	if !ok {
		bm = roaring.New()
		ix.byValue[value] = bm
	}
	bm.Add(uint32(h))
}

// Find returns the facts carrying value in ascending handle order.
func (ix *Index) Find(value string) []Handle {
	bm, ok := ix.byValue[value]
	if !ok {
		return nil
	}
	out := make([]Handle, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, Handle(it.Next()))
	}
	return out
}

// Contains reports whether fact h was registered under value.
func (ix *Index) Contains(value string, h Handle) bool {
	bm, ok := ix.byValue[value]
	return ok && bm.Contains(uint32(h))
}

// FindAll returns the facts that carry every one of values.
func (ix *Index) FindAll(values ...string) []Handle {
	if len(values) == 0 {
		return nil
	}
	bitmaps := make([]*roaring.Bitmap, 0, len(values))
	for _, v := range values {
		bm, ok := ix.byValue[v]
		if !ok {
			return nil
		}
		bitmaps = append(bitmaps, bm)
	}
	res := roaring.FastAnd(bitmaps...)
	out := make([]Handle, 0, res.GetCardinality())
	for _, v := range res.ToArray() {
		out = append(out, Handle(v))
	}
	return out
}

// Len returns the number of distinct indexed values.
func (ix *Index) Len() int { return len(ix.byValue) }

// Reset drops every entry.
func (ix *Index) Reset() {
	ix.byValue = make(map[string]*roaring.Bitmap)
}
