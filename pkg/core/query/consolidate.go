package query

import (
	"sort"
	"strings"

	"smart_edgar/pkg/core/pivot"
)

// FirstPerGroup keeps, for every distinct combination of keyFields, the
// record with the smallest priority. Records without a numeric priority
// rank last. The survivors keep their input order.
func FirstPerGroup(records []pivot.Record, keyFields []string, priorityField string) []pivot.Record {
	type ranked struct {
		pos      int
		priority float64
		ok       bool
	}
	best := map[string]ranked{}
	var order []string
	for i, rec := range records {
		vals := make([]string, len(keyFields))
		for j, f := range keyFields {
			vals[j] = pivot.ToString(rec[f])
		}
		// unit separator keeps ("a b","c") apart from ("a","b c")
		key := strings.Join(vals, "\x1f")
		p, ok := pivot.ToFloat(rec[priorityField])

		cur, seen := best[key]
		switch {
		case !seen:
			order = append(order, key)
			best[key] = ranked{pos: i, priority: p, ok: ok}
		case ok && (!cur.ok || p < cur.priority):
			best[key] = ranked{pos: i, priority: p, ok: ok}
		}
	}

	positions := make([]int, 0, len(order))
	for _, k := range order {
		positions = append(positions, best[k].pos)
	}
	sort.Ints(positions)
	out := make([]pivot.Record, len(positions))
	for i, p := range positions {
		out[i] = records[p]
	}
	return out
}
