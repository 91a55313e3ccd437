// Package gridpls manages molecular interaction field datasets for
// PLS-style chemometric regression.
//
// A dataset holds, for every object (a conformer placed on a 3D grid),
// one value per grid point for each of several fields, plus one or more
// response values. The package provides the storage and statistics core
// of such an analysis: value storage that scales past physical memory,
// attribute masks selecting the objects, fields and grid variables taking
// part, weighted and numerically stable statistics, and cross-validation
// partitioning.
//
// # Quick Start
//
//	g, _ := grid.New([3]float64{-10, -10, -10}, [3]float64{1, 1, 1}, [3]int{21, 21, 21})
//	s, _ := gridpls.New(g, gridpls.WithMode(storage.ModePaged))
//	defer s.Close()
//
//	for i := range molecules {
//	    s.AddObject(i, i)
//	}
//	s.AddYVar("pIC50")
//	s.AddFields(ctx, g, 1)
//	// ... import values with ImportPage / SetX and SetY ...
//
//	counts, _ := s.Recompute(ctx)
//	plan, _ := s.LeaveOneOut(ctx)
//
// # Storage Modes
//
// storage.ModeResident keeps one block per field in memory.
// storage.ModePaged keeps each field in its own backing file and maps one
// field at a time; sequential per-field processing then touches each file
// once. Resident blocks count against WithMemoryLimit.
//
// # Recompute
//
// Attribute changes are not propagated automatically. Call Recompute after
// editing object sets, field or variable flags, weights or cutoffs and
// before trusting any statistic.
//
// # Archives and Plans
//
// Save and Load move a whole session through any blobstore.BlobStore
// (local directory, memory, MinIO, S3). Leave-many-out plans can be
// recorded in a planstore.Store together with the seed they were drawn
// from, and replayed later with ReplayPlan.
package gridpls
