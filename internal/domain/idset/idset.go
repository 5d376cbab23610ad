// Package idset holds set operations over integer identifiers.
// Inputs are never modified; outputs are fresh slices in first-seen order.
package idset

import "slices"

// Dedupe removes repeated ids, keeping the first occurrence.
func Dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Union returns every id present in any of the sets.
func Union(sets ...[]int64) []int64 {
	var n int
	for _, s := range sets {
		n += len(s)
	}
	all := make([]int64, 0, n)
	for _, s := range sets {
		all = append(all, s...)
	}
	return Dedupe(all)
}

// Intersect returns the ids present in every set, ordered as in the first.
// The intersection of no sets is empty.
func Intersect(sets ...[]int64) []int64 {
	if len(sets) == 0 {
		return []int64{}
	}
	out := Dedupe(sets[0])
	for _, s := range sets[1:] {
		keep := toSet(s)
		out = slices.DeleteFunc(out, func(id int64) bool {
			_, ok := keep[id]
			return !ok
		})
	}
	return out
}

// Subtract returns the ids of a that are not in b.
func Subtract(a, b []int64) []int64 {
	drop := toSet(b)
	out := make([]int64, 0, len(a))
	for _, id := range Dedupe(a) {
		if _, ok := drop[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// Count returns how many ids of a appear in b.
func Count(a, b []int64) int {
	in := toSet(b)
	var n int
	for _, id := range Dedupe(a) {
		if _, ok := in[id]; ok {
			n++
		}
	}
	return n
}

// Sorted returns a sorted copy of ids.
func Sorted(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return out
}

func toSet(ids []int64) map[int64]struct{} {
	m := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}
