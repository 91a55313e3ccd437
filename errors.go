package gridpls

import (
	"errors"
	"fmt"

	"github.com/hupe1980/gridpls/attr"
	"github.com/hupe1980/gridpls/cv"
	"github.com/hupe1980/gridpls/grid"
	"github.com/hupe1980/gridpls/storage"
)

// Error kinds, re-exported from the packages that raise them.
var (
	ErrOutOfMemory         = storage.ErrOutOfMemory
	ErrNotEnoughObjects    = cv.ErrNotEnoughObjects
	ErrInvalidListRange    = attr.ErrInvalidListRange
	ErrCannotReadTempFile  = storage.ErrCannotReadTempFile
	ErrCannotWriteTempFile = storage.ErrCannotWriteTempFile
	ErrWrongDataFormat     = attr.ErrWrongDataFormat

	// ErrClosed is returned by a Session after Close.
	ErrClosed = errors.New("session closed")
	// ErrLayoutFrozen is returned when objects or y variables are added
	// after values were allocated.
	ErrLayoutFrozen = errors.New("object layout is frozen once values are allocated")
	// ErrNoPlanStore is returned by plan operations on a session without
	// a plan store.
	ErrNoPlanStore = errors.New("no plan store configured")
)

// ErrGridMismatch is returned when fields on a different grid are added to
// a session.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrGridMismatch struct {
	Have  grid.Grid
	Got   grid.Grid
	cause error
}

func (e *ErrGridMismatch) Error() string {
	return fmt.Sprintf("grid mismatch: session nodes %v, new fields nodes %v", e.Have.Nodes, e.Got.Nodes)
}

func (e *ErrGridMismatch) Unwrap() error { return e.cause }

// translateError maps lower-level range errors onto the session taxonomy.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var gm *grid.ErrMismatch
	if errors.As(err, &gm) {
		return &ErrGridMismatch{Have: gm.Have, Got: gm.Got, cause: err}
	}
	if errors.Is(err, storage.ErrGridMismatch) {
		return &ErrGridMismatch{cause: err}
	}
	if errors.Is(err, storage.ErrFieldRange) || errors.Is(err, storage.ErrIndexRange) {
		return fmt.Errorf("%w: %w", ErrInvalidListRange, err)
	}
	if errors.Is(err, storage.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	return err
}
