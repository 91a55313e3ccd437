// Package attr holds the attribute state that decides which objects, fields,
// grid variables and responses take part in a computation.
//
// Object and field membership are closed enums rather than bit sets, so an
// object cannot be both in the training set and the test set. Per-variable
// state stays a bit set because classification bits (two/three/four level,
// Voronoi group, selection) combine freely with ACTIVE and DELETE.
//
// Mutations do not update derived counters. Call Recount (or the session's
// Recompute, which also reclassifies variables) after a batch of changes and
// before trusting any statistic.
//
// # Thread Safety
//
// A Store is not safe for concurrent mutation, with one exception: distinct
// variables of the same field may be updated from different goroutines, which
// is what the parallel classification pass does.
package attr
