package conv

import (
	"fmt"
	"math"
)

// IntToUint32 converts int to uint32 safely.
func IntToUint32(v int) (uint32, error) {
	if v < 0 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to uint32 (negative)", v)
	}
	if uint64(v) > math.MaxUint32 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to uint32 (too large)", v)
	}
	return uint32(v), nil
}

// Uint64ToInt converts uint64 to int safely.
func Uint64ToInt(v uint64) (int, error) {
	if v > uint64(math.MaxInt) {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to int (too large)", v)
	}
	return int(v), nil
}

// PageOffset returns the byte offset of page index in a file of fixed-size
// pages, checking for overflow of int64.
func PageOffset(index, pageBytes int) (int64, error) {
	if index < 0 || pageBytes < 0 {
		return 0, fmt.Errorf("invalid page offset: index %d, page size %d", index, pageBytes)
	}
	if pageBytes != 0 && int64(index) > math.MaxInt64/int64(pageBytes) {
		return 0, fmt.Errorf("integer overflow: page %d of %d bytes", index, pageBytes)
	}
	return int64(index) * int64(pageBytes), nil
}

// RoundUp rounds n up to a multiple of align. align must be positive.
func RoundUp(n, align int) int {
	return (n + align - 1) / align * align
}
