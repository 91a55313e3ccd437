// Package sortperm sorts real vectors while tracking the permutation that
// produced the order, and provides documented multi-key comparators for
// integer and record sorts.
//
// Float64s uses a dual-pivot quicksort followed by a stabilization pass:
// values equal within a tolerance are reordered by original index, so the
// resulting permutation is reproducible regardless of pivot choices. Seed and
// group selection downstream depend on that ordering.
package sortperm
