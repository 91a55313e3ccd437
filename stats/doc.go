// Package stats is the weighted statistics engine.
//
// Means are object weighted over the training set. Standard deviations are
// computed in one pass with West's weighted incremental update over
// per-structure samples: each structure contributes the weight normalized
// average of its training objects, weighted by the sum of their weights.
// With n contributing structures the variance is
//
//	M2 * n / ((n-1) * sum(w))
//
// and the standard deviation is 0 when fewer than two structures contribute.
// Missing values are skipped.
//
// Per-variable passes over a field share one storage.FieldView and fan out
// over a bounded worker pool; fields are processed one at a time.
package stats
