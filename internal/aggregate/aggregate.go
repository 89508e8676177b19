// Package aggregate implements the group, sum and rank step shared by every query.
package aggregate

import (
	"cmp"
	"slices"
)

// Number is the set of amount types a ranking can sum.
type Number interface {
	~int | ~int64 | ~float64
}

// Ranking holds distinct keys and their summed totals as parallel slices,
// ordered by total descending. Equal totals are ordered by key ascending.
type Ranking[N Number] struct {
	Keys   []string
	Totals []N
}

// By groups items by key, sums amount per group and ranks the groups.
// A key only appears when at least one item maps to it.
func By[T any, N Number](items []T, key func(T) string, amount func(T) N) Ranking[N] {
	sums := make(map[string]N)
	for _, it := range items {
		sums[key(it)] += amount(it)
	}

	keys := make([]string, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(sums[b], sums[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	totals := make([]N, len(keys))
	for i, k := range keys {
		totals[i] = sums[k]
	}
	return Ranking[N]{Keys: keys, Totals: totals}
}

// Top returns the first limit entries. A non-positive limit keeps everything.
func (r Ranking[N]) Top(limit int) Ranking[N] {
	if limit <= 0 || limit >= len(r.Keys) {
		return r
	}
	return Ranking[N]{Keys: r.Keys[:limit], Totals: r.Totals[:limit]}
}

func (r Ranking[N]) Len() int {
	return len(r.Keys)
}

// Sum is the total mass across all groups.
func (r Ranking[N]) Sum() N {
	var total N
	for _, v := range r.Totals {
		total += v
	}
	return total
}
