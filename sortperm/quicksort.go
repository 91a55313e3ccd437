package sortperm

import (
	"github.com/hupe1980/gridpls/linalg"
)

const insertionThreshold = 16

// Float64s sorts values ascending in place and returns perm such that
// perm[k] is the original index of the value now at position k. Runs of
// values within tol of the run head are ordered by ascending original index.
func Float64s(values []float64, tol float64) []int {
	perm := make([]int, len(values))
	for i := range perm {
		perm[i] = i
	}
	if len(values) > 1 {
		dualPivot(values, perm, 0, len(values)-1)
		stabilize(values, perm, tol)
	}
	return perm
}

// Vector sorts v in place and returns the permutation as a linalg.Perm.
func Vector(v *linalg.Vector, tol float64) *linalg.Perm {
	return linalg.PermOf(Float64s(v.Data(), tol))
}

func swap(values []float64, perm []int, i, j int) {
	values[i], values[j] = values[j], values[i]
	perm[i], perm[j] = perm[j], perm[i]
}

func insertion(values []float64, perm []int, lo, hi int) {
	for i := lo + 1; i <= hi; i++ {
		for j := i; j > lo && values[j] < values[j-1]; j-- {
			swap(values, perm, j, j-1)
		}
	}
}

// dualPivot partitions values[lo..hi] around p = values[lo] <= q = values[hi]
// into (< p), [p, q], (> q).
func dualPivot(values []float64, perm []int, lo, hi int) {
	for hi-lo >= insertionThreshold {
		// Median-ish pivots from the thirds keep sorted input from degrading.
		third := (hi - lo) / 3
		swap(values, perm, lo, lo+third)
		swap(values, perm, hi, hi-third)
		if values[lo] > values[hi] {
			swap(values, perm, lo, hi)
		}
		p, q := values[lo], values[hi]

		lt, gt := lo+1, hi-1
		for k := lt; k <= gt; {
			switch {
			case values[k] < p:
				swap(values, perm, k, lt)
				lt++
				k++
			case values[k] > q:
				for k < gt && values[gt] > q {
					gt--
				}
				swap(values, perm, k, gt)
				gt--
				if values[k] < p {
					swap(values, perm, k, lt)
					lt++
				}
				k++
			default:
				k++
			}
		}
		lt--
		gt++
		swap(values, perm, lo, lt)
		swap(values, perm, hi, gt)

		dualPivot(values, perm, lo, lt-1)
		if p < q {
			dualPivot(values, perm, lt+1, gt-1)
		}
		lo = gt + 1
	}
	insertion(values, perm, lo, hi)
}

// stabilize reorders every run of tolerance-equal values by original index.
func stabilize(values []float64, perm []int, tol float64) {
	start := 0
	for start < len(values) {
		end := start + 1
		for end < len(values) && values[end]-values[start] <= tol {
			end++
		}
		if end-start > 1 {
			for i := start + 1; i < end; i++ {
				for j := i; j > start && perm[j] < perm[j-1]; j-- {
					swap(values, perm, j, j-1)
				}
			}
		}
		start = end
	}
}
