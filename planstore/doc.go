// Package planstore records cross-validation plans so a run can be
// reproduced or audited later.
//
// A Record pairs a cv.Plan with the generator seed and a label. Records are
// encoded with a codec from package codec; the codec name is stored next
// to the payload. Two backends are provided: MemoryStore and SQLiteStore
// (pure Go, via modernc.org/sqlite).
package planstore
