package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist. It aliases
// os.ErrNotExist so local file errors match without translation.
var ErrNotFound = os.ErrNotExist

// BlobStore reads and writes named, immutable blobs.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create starts a streaming write. The blob becomes visible on Close.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Put writes a blob in one call.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a stored blob.
type Blob interface {
	io.Closer
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// ReadRange returns a reader over length bytes starting at off.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
	// Size returns the size of the blob in bytes.
	Size() int64
}

// WritableBlob is a blob being written.
type WritableBlob interface {
	io.WriteCloser
	Sync() error
}

// Mappable is implemented by blobs backed by a memory mapping.
type Mappable interface {
	// Bytes returns the mapped contents. The slice is valid until the Blob
	// is closed.
	Bytes() ([]byte, error)
}

// ReadAll opens name and returns its full contents.
func ReadAll(ctx context.Context, s BlobStore, name string) ([]byte, error) {
	b, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	if m, ok := b.(Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		return append([]byte(nil), data...), nil
	}

	buf := make([]byte, b.Size())
	if len(buf) == 0 {
		return buf, nil
	}
	n, err := b.ReadAt(ctx, buf, 0)
	if err != nil && (err != io.EOF || n != len(buf)) {
		return nil, err
	}
	return buf[:n], nil
}
