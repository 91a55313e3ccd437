package sortperm

import (
	"cmp"
	"slices"
)

// Neighbor is an index at a distance from some reference point.
type Neighbor struct {
	Index    int
	Distance float64
}

// Scored is an index with a score to maximise and a cost to minimise.
type Scored struct {
	Index int
	Score float64
	Cost  float64
}

// Conformer is an object ranked by energy within its structure.
type Conformer struct {
	Index      int
	Energy     float64
	Conformers int
}

// ByDistanceThenIndex orders by Distance ascending, then Index ascending.
func ByDistanceThenIndex(a, b Neighbor) int {
	if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
		return c
	}
	return cmp.Compare(a.Index, b.Index)
}

// ByScoreThenCost orders by Score descending, then Cost ascending, then
// Index ascending.
func ByScoreThenCost(a, b Scored) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Cost, b.Cost); c != 0 {
		return c
	}
	return cmp.Compare(a.Index, b.Index)
}

// ByEnergyThenConformers orders by Energy ascending, then Conformers
// descending, then Index ascending.
func ByEnergyThenConformers(a, b Conformer) int {
	if c := cmp.Compare(a.Energy, b.Energy); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Conformers, a.Conformers); c != 0 {
		return c
	}
	return cmp.Compare(a.Index, b.Index)
}

// Sort sorts items with cmp. Items cmp reports as equal keep their input order.
func Sort[T any](items []T, cmp func(a, b T) int) {
	slices.SortStableFunc(items, cmp)
}

// Indices sorts idx by key(idx) ascending; equal keys fall back to the index
// value ascending.
func Indices(idx []int, key func(int) float64) {
	slices.SortFunc(idx, func(a, b int) int {
		if c := cmp.Compare(key(a), key(b)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
}
