package mmap

import (
	"io"
	"os"
	"sync/atomic"
	"unsafe"
)

// Mapping represents a memory-mapped file.
// It owns the underlying byte slice and is responsible for unmapping it.
type Mapping struct {
	data   []byte
	size   int
	mode   Mode
	closed atomic.Bool
	unmap  func([]byte) error
	flush  func([]byte) error
}

// Open maps the file at path into memory as read-only.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if fi.Size() < 0 || fi.Size() > int64(maxInt) {
		return nil, ErrInvalidSize
	}
	return Map(f, int(fi.Size()), ReadOnly)
}

const maxInt = int(^uint(0) >> 1)

// Map maps the first size bytes of an open file. The file may be closed once
// Map returns; the mapping keeps its own reference to the pages. The file must
// already be at least size bytes long.
func Map(f Descriptor, size int, mode Mode) (*Mapping, error) {
	if size < 0 {
		return nil, ErrInvalidSize
	}
	if size == 0 {
		return &Mapping{mode: mode}, nil
	}

	data, unmap, flush, err := osMap(f.Fd(), size, mode)
	if err != nil {
		return nil, err
	}

	return &Mapping{
		data:  data,
		size:  size,
		mode:  mode,
		unmap: unmap,
		flush: flush,
	}, nil
}

// Close unmaps the memory. It is idempotent.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	if m.unmap != nil && m.data != nil {
		return m.unmap(m.data)
	}
	return nil
}

// Bytes returns the underlying byte slice.
// Warning: The slice is valid only until Close() is called.
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Float32s reinterprets the whole mapping as native-endian float32 values.
// The slice is valid only until Close() is called.
func (m *Mapping) Float32s() []float32 {
	return float32View(m.Bytes())
}

// Size returns the size of the mapping in bytes.
func (m *Mapping) Size() int {
	return m.size
}

// Writable reports whether stores into Bytes reach the file.
func (m *Mapping) Writable() bool {
	return m.mode == ReadWrite
}

// Flush writes dirty pages back to the file synchronously.
func (m *Mapping) Flush() error {
	if m.closed.Load() {
		return ErrClosed
	}
	if m.flush == nil || m.data == nil || m.mode != ReadWrite {
		return nil
	}
	return m.flush(m.data)
}

// Advise provides hints to the kernel about how the memory will be accessed.
func (m *Mapping) Advise(pattern AccessPattern) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if m.data == nil {
		return nil
	}
	return osAdvise(m.data, pattern)
}

// ReadAt implements io.ReaderAt.
func (m *Mapping) ReadAt(p []byte, off int64) (n int, err error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, ErrInvalidOffset
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n = copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func float32View(b []byte) []float32 {
	if len(b) < 4 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/4) //nolint:gosec // mapped pages are page aligned
}
