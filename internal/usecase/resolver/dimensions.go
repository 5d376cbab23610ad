package resolver

import (
	"slices"

	"github.com/kailas-cloud/facetdex/internal/domain/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/idset"
)

// Dimensions maps each constrained dimension, keyed by facet machine name or
// facet.TextKey, to the transactions it matches. Unconstrained dimensions are
// absent; a present key with no ids matched nothing.
type Dimensions map[string][]int64

// Keys returns the contributing keys in sorted order.
func (d Dimensions) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Intersect ANDs every dimension except the excluded keys.
// With no contributing dimension the result is unconstrained.
func (d Dimensions) Intersect(excluding ...string) facet.Candidates {
	sets := d.sets(excluding)
	if len(sets) == 0 {
		return facet.Unconstrained()
	}
	return facet.Constrained(idset.Sorted(idset.Intersect(sets...)))
}

// Union ORs every dimension.
func (d Dimensions) Union() facet.Candidates {
	sets := d.sets(nil)
	if len(sets) == 0 {
		return facet.Unconstrained()
	}
	return facet.Constrained(idset.Sorted(idset.Union(sets...)))
}

func (d Dimensions) sets(excluding []string) [][]int64 {
	var sets [][]int64
	for _, k := range d.Keys() {
		if !slices.Contains(excluding, k) {
			sets = append(sets, d[k])
		}
	}
	return sets
}
