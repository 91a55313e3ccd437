// Package linalg provides growable dense containers: a row-major Matrix, a
// Vector and an integer Perm.
//
// Resize never releases capacity. Growth over-allocates geometrically and
// newly exposed elements read as zero, so repeated shrink/grow cycles in the
// cross-validation loops do not churn the allocator.
//
// Matrix and Vector expose gonum views (Dense, VecDense) sharing the same
// backing storage for callers that hand data to a numerical solver.
package linalg
