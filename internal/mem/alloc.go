package mem

import (
	"unsafe"
)

// CacheLine is the alignment of every buffer returned by this package.
const CacheLine = 64

// Bytes returns a zeroed byte slice of length size whose first byte sits on
// a CacheLine boundary. It returns nil for size <= 0.
//
// The backing array is over-allocated by CacheLine bytes and kept alive by
// the returned slice.
func Bytes(size int) []byte {
	if size <= 0 {
		return nil
	}
	buf := make([]byte, size+CacheLine)
	addr := uintptr(unsafe.Pointer(&buf[0])) //nolint:gosec // alignment needs the address
	off := int((CacheLine - addr%CacheLine) % CacheLine)
	return buf[off : off+size : off+size]
}

// Float32s returns a zeroed, CacheLine aligned float32 slice of length n.
func Float32s(n int) []float32 {
	if n <= 0 {
		return nil
	}
	b := Bytes(n * 4)
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), n) //nolint:gosec // b is 4-byte aligned
}
