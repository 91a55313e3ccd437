// Package cv builds cross-validation partitions over the active structures
// of a dataset.
//
// Three schemes are supported. Leave-one-out holds out every active structure
// once. Leave-two-out holds out every unordered pair. Leave-many-out splits
// the active structures into groups of near equal size, independently for
// each run, drawing members from a shrinking pool with a seeded MT19937 so
// that the same seed always yields the same partition.
//
// A structure is active when it has at least one training object of positive
// weight. Held-out sets are expressed as structure indices, in the order of
// attr.Store.Structures.
package cv
