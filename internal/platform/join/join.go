// Package join merges a primary collection with a lookup collection fetched
// separately, matching on a key. It never touches storage.
package join

// DistinctKeys returns each key of rows once, in first-seen order. Rows for
// which key reports ok=false (no foreign id) are skipped.
func DistinctKeys[L any, K comparable](rows []L, key func(L) (K, bool)) []K {
	seen := make(map[K]struct{}, len(rows))
	keys := make([]K, 0, len(rows))
	for _, r := range rows {
		k, ok := key(r)
		if !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}

// Join returns a copy of left where every row has been passed to attach
// together with the right row sharing its key, or nil when there is none.
// Order and length of left are preserved; left itself is not modified.
func Join[L, R any, K comparable](left []L, right []R, leftKey func(L) (K, bool), rightKey func(R) K, attach func(L, *R) L) []L {
	index := make(map[K]*R, len(right))
	for i := range right {
		index[rightKey(right[i])] = &right[i]
	}

	out := make([]L, len(left))
	for i, l := range left {
		var match *R
		if k, ok := leftKey(l); ok {
			match = index[k]
		}
		out[i] = attach(l, match)
	}
	return out
}
