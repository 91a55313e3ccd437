package storage

import (
	"errors"
	"math"

	"github.com/hupe1980/gridpls/attr"
)

// Missing marks an x or y value with no data.
const Missing float32 = math.MaxFloat32

// IsMissing reports whether v is the Missing sentinel.
func IsMissing(v float64) bool { return v == float64(Missing) }

// Flags select the transformations applied on read.
type Flags uint8

const (
	// FlagWeight multiplies by the field (or y-variable) weight.
	FlagWeight Flags = 1 << iota
	// FlagCutoff clips to the field's [MinCutoff, MaxCutoff].
	FlagCutoff
	// FlagActiveOnly returns 0 for inactive fields or variables.
	FlagActiveOnly
)

var (
	// ErrOutOfMemory is returned when a block cannot be reserved or mapped.
	ErrOutOfMemory = errors.New("out of memory")
	// ErrCannotReadTempFile is returned when a backing file cannot be read.
	ErrCannotReadTempFile = errors.New("cannot read temp file")
	// ErrCannotWriteTempFile is returned when a backing file cannot be created or written.
	ErrCannotWriteTempFile = errors.New("cannot write temp file")
	// ErrFieldRange is returned for a field index outside the allocated fields.
	ErrFieldRange = errors.New("field index out of range")
	// ErrIndexRange is returned for an object, variable or y-variable index out of range.
	ErrIndexRange = errors.New("index out of range")
	// ErrGridMismatch is returned when the attribute store and grid disagree on the variable count.
	ErrGridMismatch = errors.New("variable count does not match grid")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("storage is closed")
)

// transform applies the read rules to a raw stored value.
func transform(raw float32, f attr.Field, active bool, flags Flags) float64 {
	if flags&FlagActiveOnly != 0 && !active {
		return 0
	}
	if raw == Missing {
		return float64(Missing)
	}
	v := float64(raw)
	if flags&FlagWeight != 0 {
		v *= f.Weight
	}
	if flags&FlagCutoff != 0 {
		if v < f.MinCutoff {
			v = f.MinCutoff
		} else if v > f.MaxCutoff {
			v = f.MaxCutoff
		}
	}
	return v
}
