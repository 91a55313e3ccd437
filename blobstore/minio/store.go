package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/minio/minio-go/v7"

	"github.com/hupe1980/gridpls/blobstore"
)

// Store implements blobstore.BlobStore on a MinIO bucket.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewStore returns a Store writing below rootPrefix in bucket.
func NewStore(client *minio.Client, bucket, rootPrefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: rootPrefix}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

// Open stats the object and returns a range-reading handle.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, blobstore.ErrNotFound
		}
		return nil, err
	}
	return &blob{client: s.client, bucket: s.bucket, key: key, size: info.Size}, nil
}

// Put uploads data in one request.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(name), bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	return err
}

// Create streams writes into an upload that completes on Close.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	pr, pw := io.Pipe()
	w := &writableBlob{pw: pw, done: make(chan error, 1)}

	go func() {
		_, err := s.client.PutObject(ctx, s.bucket, s.key(name), pr, -1, minio.PutObjectOptions{})
		_ = pr.CloseWithError(err)
		w.done <- err
	}()
	return w, nil
}

// Delete removes an object.
func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// List returns the sorted names below prefix, relative to the root prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.key(prefix),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		name := strings.TrimPrefix(strings.TrimPrefix(obj.Key, s.prefix), "/")
		if name != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

type blob struct {
	client *minio.Client
	bucket string
	key    string
	size   int64
}

func (b *blob) Size() int64 { return b.size }

func (b *blob) Close() error { return nil }

func (b *blob) rangeObject(ctx context.Context, off, length int64) (*minio.Object, int64, error) {
	if off < 0 || off >= b.size {
		return nil, 0, io.EOF
	}
	end := min(off+length, b.size) - 1
	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(off, end); err != nil {
		return nil, 0, err
	}
	obj, err := b.client.GetObject(ctx, b.bucket, b.key, opts)
	if err != nil {
		return nil, 0, err
	}
	return obj, end - off + 1, nil
}

func (b *blob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	obj, n, err := b.rangeObject(ctx, off, int64(len(p)))
	if err != nil {
		return 0, err
	}
	defer obj.Close()

	read, err := io.ReadFull(obj, p[:n])
	if err == nil && int(n) < len(p) {
		err = io.EOF
	}
	return read, err
}

func (b *blob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	obj, _, err := b.rangeObject(ctx, off, length)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

type writableBlob struct {
	pw       *io.PipeWriter
	done     chan error
	finished atomic.Bool
}

func (w *writableBlob) Write(p []byte) (int, error) { return w.pw.Write(p) }

func (w *writableBlob) Sync() error { return nil }

func (w *writableBlob) Close() error {
	if !w.finished.CompareAndSwap(false, true) {
		return errors.New("minio: blob already closed")
	}
	if err := w.pw.Close(); err != nil {
		return err
	}
	return <-w.done
}

// Abort cancels an upload in progress.
func (w *writableBlob) Abort() error {
	if !w.finished.CompareAndSwap(false, true) {
		return nil
	}
	return w.pw.CloseWithError(errors.New("minio: upload aborted"))
}
