package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hupe1980/gridpls/internal/mmap"
)

// LocalStore keeps blobs as files below a root directory. Names may contain
// slashes; intermediate directories are created on write.
type LocalStore struct {
	root string
}

// NewLocalStore creates a LocalStore rooted at root.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Open maps the named file read-only.
func (s *LocalStore) Open(_ context.Context, name string) (Blob, error) {
	m, err := mmap.Open(s.path(name))
	if err != nil {
		return nil, err
	}
	return &localBlob{m: m}, nil
}

// Create writes to a temporary sibling that is renamed into place on Close.
func (s *LocalStore) Create(_ context.Context, name string) (WritableBlob, error) {
	p := s.path(name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, err
	}
	f, err := os.CreateTemp(filepath.Dir(p), ".tmp-"+filepath.Base(p)+"-*")
	if err != nil {
		return nil, err
	}
	return &localWritableBlob{f: f, dst: p}, nil
}

// Put writes data atomically.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	w, err := s.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.(*localWritableBlob).abort()
		return err
	}
	return w.Close()
}

// Delete removes the named file.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	err := os.Remove(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// List walks the root and returns the slash separated names starting with prefix.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}

type localBlob struct {
	m *mmap.Mapping
}

func (b *localBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return b.m.ReadAt(p, off)
}

func (b *localBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	if off < 0 || off >= b.Size() {
		return nil, io.EOF
	}
	length = min(length, b.Size()-off)
	r, err := b.m.Region(int(off), int(length))
	if err != nil {
		return nil, err
	}
	_ = r.Advise(mmap.AccessSequential)
	return io.NopCloser(bytes.NewReader(r.Bytes())), nil
}

func (b *localBlob) Close() error { return b.m.Close() }

func (b *localBlob) Size() int64 { return int64(b.m.Size()) }

func (b *localBlob) Bytes() ([]byte, error) { return b.m.Bytes(), nil }

type localWritableBlob struct {
	f   *os.File
	dst string
}

func (w *localWritableBlob) Write(p []byte) (int, error) { return w.f.Write(p) }

func (w *localWritableBlob) Sync() error { return w.f.Sync() }

func (w *localWritableBlob) Close() error {
	if err := w.f.Sync(); err != nil {
		_ = w.abort()
		return err
	}
	if err := w.f.Close(); err != nil {
		_ = os.Remove(w.f.Name())
		return err
	}
	return os.Rename(w.f.Name(), w.dst)
}

func (w *localWritableBlob) abort() error {
	_ = w.f.Close()
	return os.Remove(w.f.Name())
}
