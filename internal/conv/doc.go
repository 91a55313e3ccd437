// Package conv provides checked integer conversions and page arithmetic.
//
// Use cases:
//   - Page offsets into field backing files, which can exceed 2 GiB
//   - Object and variable indices stored in 32-bit roaring bitmaps
//   - Counts decoded from archive manifests
package conv
