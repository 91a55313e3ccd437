package mmap

import "errors"

// AccessPattern provides hints to the kernel about how the data will be accessed.
type AccessPattern int

const (
	// AccessDefault is the default access pattern (no specific advice).
	AccessDefault AccessPattern = iota
	// AccessSequential expects data to be accessed sequentially.
	AccessSequential
	// AccessRandom expects data to be accessed randomly.
	AccessRandom
	// AccessWillNeed expects data to be accessed in the near future.
	AccessWillNeed
	// AccessDontNeed expects data to not be accessed in the near future.
	AccessDontNeed
)

// Mode selects the protection of a mapping.
type Mode int

const (
	// ReadOnly maps pages for reading.
	ReadOnly Mode = iota
	// ReadWrite maps pages shared with the file; stores reach the file.
	ReadWrite
)

// Descriptor is implemented by *os.File and wrappers that expose one.
type Descriptor interface {
	Fd() uintptr
}

var (
	// ErrClosed is returned when attempting to access a closed mapping.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned when the requested size is negative or not representable.
	ErrInvalidSize = errors.New("mmap: invalid size")
	// ErrOutOfBounds is returned when attempting to access a region outside the mapping.
	ErrOutOfBounds = errors.New("mmap: out of bounds")
	// ErrInvalidOffset is returned when the offset is invalid (e.g. negative).
	ErrInvalidOffset = errors.New("mmap: invalid offset")
)
