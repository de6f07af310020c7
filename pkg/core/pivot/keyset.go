package pivot

import (
	"sort"
)

// keySet keeps each distinct key once. Insertion order is kept until sort
// is called.
type keySet struct {
	keys    []*Key
	buckets map[uint64][]*Key
}

func newKeySet() *keySet {
	return &keySet{buckets: map[uint64][]*Key{}}
}

// add returns the stored key equal to k, inserting k on first sight.
func (s *keySet) add(k *Key) *Key {
	h := k.Hash()
	for _, e := range s.buckets[h] {
		if e.Equal(k) {
			return e
		}
	}
	s.buckets[h] = append(s.buckets[h], k)
	s.keys = append(s.keys, k)
	return k
}

func (s *keySet) get(k *Key) (*Key, bool) {
	for _, e := range s.buckets[k.Hash()] {
		if e.Equal(k) {
			return e, true
		}
	}
	return nil, false
}

func (s *keySet) sort() {
	sort.SliceStable(s.keys, func(i, j int) bool { return s.keys[i].Compare(s.keys[j]) < 0 })
}

func (s *keySet) len() int { return len(s.keys) }
