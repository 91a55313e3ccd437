package linalg

import (
	"errors"
	"fmt"
)

// ErrOutOfMemory is returned when a resize request cannot be satisfied.
var ErrOutOfMemory = errors.New("linalg: out of memory")

// MaxElements bounds the number of elements any container may hold.
const MaxElements = 1 << 34

// ErrDimensionMismatch reports a permutation whose length does not match the
// target container.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("linalg: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func grow(current, needed int) int {
	if needed <= current {
		return current
	}
	next := current * 2
	if next < needed {
		next = needed
	}
	if next < 4 {
		next = 4
	}
	return next
}

func checkSize(rows, cols int) error {
	if rows < 0 || cols < 0 {
		return fmt.Errorf("%w: negative size %dx%d", ErrOutOfMemory, rows, cols)
	}
	if cols != 0 && rows > MaxElements/cols {
		return fmt.Errorf("%w: %dx%d exceeds %d elements", ErrOutOfMemory, rows, cols, MaxElements)
	}
	return nil
}
