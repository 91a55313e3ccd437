// Package archive saves a dataset to a blob store and loads it back.
//
// An archive is a set of blobs under one store:
//
//	manifest.json      grid, object/field/y-variable records, blob index
//	fields/NNNN.blk    one compressed block of raw x values per field
//	masks/NNNN.roar    the variable flags of each field as roaring bitmaps
//	y.blk              the compressed y value table
//
// Field and y blocks hold little-endian float32 values in object-major
// order without page padding, so an archive written from paged storage
// loads into resident storage and vice versa. Every blob is checksummed
// with xxhash; Load and Verify report ErrChecksumMismatch on corruption.
//
// The manifest is written last. A store without a manifest holds no
// archive, even if some field blobs are present.
package archive
