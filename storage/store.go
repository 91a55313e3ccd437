package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/gridpls/attr"
	"github.com/hupe1980/gridpls/grid"
	"github.com/hupe1980/gridpls/internal/conv"
	"github.com/hupe1980/gridpls/internal/fs"
	"github.com/hupe1980/gridpls/internal/mem"
	"github.com/hupe1980/gridpls/internal/mmap"
)

// Store is the large array storage of one dataset.
//
// The object count, the grid and the y-variable count are fixed when the
// Store is created; fields may be appended with AddFields.
type Store struct {
	opts  options
	attrs *attr.Store
	grid  grid.Grid

	objects int
	xVars   int
	yVars   int

	// stride is the distance in float32s between consecutive object pages.
	stride    int
	pageBytes int
	fields    int

	// resident
	blocks   [][]float32
	reserved int64

	// paged
	dir     string
	mapMu   sync.Mutex
	current int
	mapping *mmap.Mapping

	writeMu sync.Mutex
	handles []fs.File

	y []float32

	closed atomic.Bool
}

// New creates an empty Store for the objects and y variables already present
// in attrs. attrs.XVars must equal g.XVars.
func New(attrs *attr.Store, g grid.Grid, optFns ...Option) (*Store, error) {
	o := options{
		mode:   ModeResident,
		fs:     fs.Default,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, fn := range optFns {
		fn(&o)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if attrs.XVars() != g.XVars() {
		return nil, fmt.Errorf("%w: attributes have %d variables, grid has %d", ErrGridMismatch, attrs.XVars(), g.XVars())
	}

	s := &Store{
		opts:    o,
		attrs:   attrs,
		grid:    g,
		objects: attrs.NumObjects(),
		xVars:   g.XVars(),
		yVars:   attrs.NumYVars(),
		current: -1,
	}

	s.pageBytes = s.xVars * 4
	if o.mode == ModePaged {
		s.pageBytes = conv.RoundUp(s.pageBytes, os.Getpagesize())
		dir, err := o.fs.MkdirTemp(o.dir, "gridpls-*")
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCannotWriteTempFile, err)
		}
		s.dir = dir
	}
	s.stride = s.pageBytes / 4

	n := s.objects * s.yVars
	s.y = make([]float32, n)
	for i := range s.y {
		s.y[i] = Missing
	}

	o.logger.Debug("storage created",
		slog.String("mode", o.mode.String()),
		slog.Int("objects", s.objects),
		slog.Int("x_vars", s.xVars),
		slog.Int("page_bytes", s.pageBytes))

	return s, nil
}

// Mode returns the storage mode.
func (s *Store) Mode() Mode { return s.opts.mode }

// Grid returns the grid every field shares.
func (s *Store) Grid() grid.Grid { return s.grid }

// NumFields returns the number of allocated fields.
func (s *Store) NumFields() int { return s.fields }

// NumObjects returns the object count.
func (s *Store) NumObjects() int { return s.objects }

// XVars returns the number of variables per field.
func (s *Store) XVars() int { return s.xVars }

// NumYVars returns the number of y variables.
func (s *Store) NumYVars() int { return s.yVars }

// PageBytes returns the size of one object page in a backing file.
func (s *Store) PageBytes() int { return s.pageBytes }

// Dir returns the directory holding the backing files, empty in resident mode.
func (s *Store) Dir() string { return s.dir }

func (s *Store) fieldPath(f int) string {
	return filepath.Join(s.dir, fmt.Sprintf("field-%04d.dat", f))
}

// AddFields allocates n more fields. Fresh values are 0.
func (s *Store) AddFields(n int) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if n < 0 {
		return ErrIndexRange
	}
	for range n {
		var err error
		if s.opts.mode == ModePaged {
			err = s.createFieldFile(s.fields)
		} else {
			err = s.allocBlock()
		}
		if err != nil {
			return err
		}
		s.fields++
	}
	return nil
}

func (s *Store) allocBlock() error {
	elems := s.objects * s.xVars
	if elems < 0 || elems > math.MaxInt/4 {
		return ErrOutOfMemory
	}
	bytes := int64(elems) * 4
	if rc := s.opts.resources; rc != nil {
		if err := rc.AcquireMemory(bytes); err != nil {
			return fmt.Errorf("%w: field block of %d bytes: %w", ErrOutOfMemory, bytes, err)
		}
	}
	s.reserved += bytes
	s.blocks = append(s.blocks, mem.Float32s(elems))
	return nil
}

func (s *Store) createFieldFile(f int) error {
	size, err := conv.PageOffset(s.objects, s.pageBytes)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutOfMemory, err)
	}
	path := s.fieldPath(f)

	file, err := s.opts.fs.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCannotWriteTempFile, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrCannotWriteTempFile, err)
	}
	if err := s.opts.fs.Truncate(path, size); err != nil {
		return fmt.Errorf("%w: %w", ErrCannotWriteTempFile, err)
	}
	s.handles = append(s.handles, nil)
	return nil
}

// mapField makes f the mapped field. Caller holds mapMu.
func (s *Store) mapField(f int) error {
	if s.current == f && s.mapping != nil {
		return nil
	}
	start := time.Now()
	from := s.current

	if s.mapping != nil {
		if err := s.mapping.Close(); err != nil {
			return fmt.Errorf("%w: unmap field %d: %w", ErrCannotReadTempFile, s.current, err)
		}
		s.mapping = nil
		s.current = -1
	}

	file, err := s.opts.fs.OpenFile(s.fieldPath(f), os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCannotReadTempFile, err)
	}
	defer file.Close()

	m, err := mmap.Map(file, s.objects*s.pageBytes, mmap.ReadWrite)
	if err != nil {
		return fmt.Errorf("%w: map field %d: %w", ErrOutOfMemory, f, err)
	}
	_ = m.Advise(mmap.AccessSequential)

	s.mapping = m
	s.current = f

	d := time.Since(start)
	s.opts.logger.Debug("field mapped", slog.Int("from", from), slog.Int("to", f), slog.Duration("took", d))
	if s.opts.onSwitch != nil {
		s.opts.onSwitch(from, f, d)
	}
	return nil
}

// Acquire pins field f and returns a view of its values. In paged mode the
// view holds the mapping lock until Release.
func (s *Store) Acquire(f int) (*FieldView, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if f < 0 || f >= s.fields {
		return nil, fmt.Errorf("%w: %d", ErrFieldRange, f)
	}

	v := &FieldView{s: s, field: f, info: s.attrs.Field(f)}
	if s.opts.mode == ModeResident {
		v.data = s.blocks[f]
		return v, nil
	}

	s.mapMu.Lock()
	if err := s.mapField(f); err != nil {
		s.mapMu.Unlock()
		return nil, err
	}
	v.data = s.mapping.Float32s()
	v.unlock = s.mapMu.Unlock
	return v, nil
}

func (s *Store) checkXY(obj, x int) error {
	if obj < 0 || obj >= s.objects {
		return fmt.Errorf("%w: object %d", ErrIndexRange, obj)
	}
	if x < 0 || x >= s.xVars {
		return fmt.Errorf("%w: variable %d", ErrIndexRange, x)
	}
	return nil
}

// GetX reads one x value with the read rules selected by flags.
func (s *Store) GetX(f, obj, x int, flags Flags) (float64, error) {
	if err := s.checkXY(obj, x); err != nil {
		return 0, err
	}
	v, err := s.Acquire(f)
	if err != nil {
		return 0, err
	}
	defer v.Release()
	return v.X(obj, x, flags), nil
}

// SetX stores one raw x value through the mapped view.
func (s *Store) SetX(f, obj, x int, value float32) error {
	if err := s.checkXY(obj, x); err != nil {
		return err
	}
	v, err := s.Acquire(f)
	if err != nil {
		return err
	}
	defer v.Release()
	v.SetX(obj, x, value)
	return nil
}

// SetXYZ stores value at a grid node.
func (s *Store) SetXYZ(f, obj int, n grid.Node, value float32) error {
	x, err := s.grid.Index(n)
	if err != nil {
		return err
	}
	return s.SetX(f, obj, x, value)
}

func (s *Store) handle(f int) (fs.File, error) {
	if h := s.handles[f]; h != nil {
		return h, nil
	}
	h, err := s.opts.fs.OpenFile(s.fieldPath(f), os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	s.handles[f] = h
	return h, nil
}

// writeAt seeks and writes b under writeMu.
func (s *Store) writeAt(f int, off int64, b []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed.Load() {
		return ErrClosed
	}

	h, err := s.handle(f)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCannotWriteTempFile, err)
	}
	if _, err := h.Seek(off, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %w", ErrCannotWriteTempFile, err)
	}
	if _, err := h.Write(b); err != nil {
		return fmt.Errorf("%w: %w", ErrCannotWriteTempFile, err)
	}
	return nil
}

// writeResident copies values into the block of field f at off under writeMu.
func (s *Store) writeResident(f, off int, values []float32) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed.Load() {
		return ErrClosed
	}
	copy(s.blocks[f][off:], values)
	return nil
}

// SetXUnbuffered writes one raw x value directly to the backing file. It is
// safe for concurrent use.
func (s *Store) SetXUnbuffered(f, obj, x int, value float32) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if f < 0 || f >= s.fields {
		return fmt.Errorf("%w: %d", ErrFieldRange, f)
	}
	if err := s.checkXY(obj, x); err != nil {
		return err
	}

	if s.opts.mode == ModeResident {
		return s.writeResident(f, obj*s.stride+x, []float32{value})
	}

	off, err := conv.PageOffset(obj, s.pageBytes)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCannotWriteTempFile, err)
	}
	var buf [4]byte
	binary.NativeEndian.PutUint32(buf[:], math.Float32bits(value))
	return s.writeAt(f, off+int64(x)*4, buf[:])
}

// WritePage writes the xVars raw values of one object directly to the
// backing file, throttled by the resource controller's IO budget.
func (s *Store) WritePage(ctx context.Context, f, obj int, values []float32) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if f < 0 || f >= s.fields {
		return fmt.Errorf("%w: %d", ErrFieldRange, f)
	}
	if obj < 0 || obj >= s.objects {
		return fmt.Errorf("%w: object %d", ErrIndexRange, obj)
	}
	if len(values) != s.xVars {
		return fmt.Errorf("%w: page of %d values, want %d", ErrIndexRange, len(values), s.xVars)
	}
	if err := s.opts.resources.AcquireIO(ctx, len(values)*4); err != nil {
		return err
	}

	if s.opts.mode == ModeResident {
		return s.writeResident(f, obj*s.stride, values)
	}

	off, err := conv.PageOffset(obj, s.pageBytes)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCannotWriteTempFile, err)
	}
	buf := make([]byte, len(values)*4)
	for i, v := range values {
		binary.NativeEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return s.writeAt(f, off, buf)
}

// ReadPage copies the raw values of one object into dst, which must hold
// XVars values.
func (s *Store) ReadPage(f, obj int, dst []float32) error {
	if obj < 0 || obj >= s.objects || len(dst) < s.xVars {
		return ErrIndexRange
	}
	v, err := s.Acquire(f)
	if err != nil {
		return err
	}
	defer v.Release()
	copy(dst, v.Page(obj))
	return nil
}

// GetY reads y variable y of object obj. With FlagWeight a present value is
// multiplied by the y-variable weight. Out of range reads return Missing.
func (s *Store) GetY(obj, y int, flags Flags) float64 {
	if obj < 0 || obj >= s.objects || y < 0 || y >= s.yVars {
		return float64(Missing)
	}
	raw := s.y[obj*s.yVars+y]
	if raw == Missing {
		return float64(Missing)
	}
	v := float64(raw)
	if flags&FlagWeight != 0 {
		v *= s.attrs.YVar(y).Weight
	}
	return v
}

// SetY stores y variable y of object obj.
func (s *Store) SetY(obj, y int, value float32) error {
	if obj < 0 || obj >= s.objects || y < 0 || y >= s.yVars {
		return fmt.Errorf("%w: object %d, y %d", ErrIndexRange, obj, y)
	}
	s.y[obj*s.yVars+y] = value
	return nil
}

// Flush forces mapped pages and unbuffered writes to the backing files.
func (s *Store) Flush() error {
	var errs []error

	s.mapMu.Lock()
	if s.mapping != nil {
		errs = append(errs, s.mapping.Flush())
	}
	s.mapMu.Unlock()

	s.writeMu.Lock()
	for _, h := range s.handles {
		if h != nil {
			errs = append(errs, h.Sync())
		}
	}
	s.writeMu.Unlock()

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrCannotWriteTempFile, err)
	}
	return nil
}

// Reset drops every field. The Store stays usable and AddFields starts again
// at field 0; y values are set back to Missing.
func (s *Store) Reset() error {
	if s.closed.Load() {
		return ErrClosed
	}
	var errs []error

	s.mapMu.Lock()
	if s.mapping != nil {
		errs = append(errs, s.mapping.Close())
		s.mapping = nil
	}
	s.current = -1
	s.mapMu.Unlock()

	s.writeMu.Lock()
	for f, h := range s.handles {
		if h != nil {
			errs = append(errs, h.Close())
		}
		errs = append(errs, s.opts.fs.Remove(s.fieldPath(f)))
	}
	s.handles = nil
	s.writeMu.Unlock()

	if s.reserved > 0 {
		s.opts.resources.ReleaseMemory(s.reserved)
		s.reserved = 0
	}
	s.blocks = nil
	s.fields = 0
	for i := range s.y {
		s.y[i] = Missing
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrCannotWriteTempFile, err)
	}
	return nil
}

// Close releases every block, unmaps the current field and removes the
// backing files. It is idempotent.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	var errs []error

	s.mapMu.Lock()
	if s.mapping != nil {
		errs = append(errs, s.mapping.Close())
		s.mapping = nil
	}
	s.current = -1
	s.mapMu.Unlock()

	s.writeMu.Lock()
	for i, h := range s.handles {
		if h != nil {
			errs = append(errs, h.Close())
			s.handles[i] = nil
		}
	}
	s.blocks = nil
	s.writeMu.Unlock()

	if s.dir != "" {
		errs = append(errs, s.opts.fs.RemoveAll(s.dir))
	}
	if s.reserved > 0 {
		s.opts.resources.ReleaseMemory(s.reserved)
		s.reserved = 0
	}
	s.y = nil

	return errors.Join(errs...)
}
