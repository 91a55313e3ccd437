package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hupe1980/gridpls/blobstore"
)

// Client is the subset of *s3.Client the store calls.
type Client interface {
	manager.UploadAPIClient
	s3.ListObjectsV2APIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// UploadConfig tunes multipart uploads.
type UploadConfig struct {
	// PartSize is the part size of multipart uploads. Default 8 MiB.
	PartSize int64
	// Concurrency is the number of parts uploaded in parallel. Default 5.
	Concurrency int
	// LeavePartsOnError keeps uploaded parts when an upload fails.
	LeavePartsOnError bool
}

// DefaultUploadConfig returns the upload settings used by NewStore.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{PartSize: 8 << 20, Concurrency: 5}
}

// Store implements blobstore.BlobStore on an S3 bucket.
type Store struct {
	client   Client
	bucket   string
	prefix   string
	uploader *manager.Uploader
}

// NewStore returns a Store writing below rootPrefix in bucket.
func NewStore(client Client, bucket, rootPrefix string) *Store {
	return NewStoreWithConfig(client, bucket, rootPrefix, DefaultUploadConfig())
}

// NewStoreWithConfig is NewStore with explicit upload settings.
func NewStoreWithConfig(client Client, bucket, rootPrefix string, cfg UploadConfig) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			if cfg.PartSize > 0 {
				u.PartSize = cfg.PartSize
			}
			if cfg.Concurrency > 0 {
				u.Concurrency = cfg.Concurrency
			}
			u.LeavePartsOnError = cfg.LeavePartsOnError
		}),
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	return errors.As(err, &nf) || errors.As(err, &nsk)
}

// Open heads the object and returns a range-reading handle.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, blobstore.ErrNotFound
		}
		return nil, err
	}
	return &blob{client: s.client, bucket: s.bucket, key: key, size: aws.ToInt64(head.ContentLength)}, nil
}

// Put uploads data in a single request.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:            aws.String(s.bucket),
		Key:               aws.String(s.key(name)),
		Body:              bytes.NewReader(data),
		ContentLength:     aws.Int64(int64(len(data))),
		ChecksumAlgorithm: types.ChecksumAlgorithmCrc32c,
	})
	return err
}

// Create streams writes into a multipart upload that completes on Close.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	pr, pw := io.Pipe()
	w := &writableBlob{pw: pw, done: make(chan error, 1)}

	go func() {
		_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key(name)),
			Body:   pr,
		})
		_ = pr.CloseWithError(err)
		w.done <- err
	}()
	return w, nil
}

// Delete removes an object.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// List returns the sorted names below prefix, relative to the root prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.key(prefix)),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(strings.TrimPrefix(aws.ToString(obj.Key), s.prefix), "/")
			if name != "" {
				names = append(names, name)
			}
		}
	}
	slices.Sort(names)
	return names, nil
}

type blob struct {
	client Client
	bucket string
	key    string
	size   int64
}

func (b *blob) Size() int64 { return b.size }

func (b *blob) Close() error { return nil }

// get fetches bytes [off, off+length) clamped to the blob size.
func (b *blob) get(ctx context.Context, off, length int64) (io.ReadCloser, int64, error) {
	if off < 0 || off >= b.size {
		return nil, 0, io.EOF
	}
	end := min(off+length, b.size) - 1
	resp, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end)),
	})
	if err != nil {
		return nil, 0, err
	}
	return resp.Body, end - off + 1, nil
}

func (b *blob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	body, n, err := b.get(ctx, off, int64(len(p)))
	if err != nil {
		return 0, err
	}
	defer body.Close()

	read, err := io.ReadFull(body, p[:n])
	if err == nil && int(n) < len(p) {
		err = io.EOF
	}
	return read, err
}

func (b *blob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	body, _, err := b.get(ctx, off, length)
	return body, err
}

type writableBlob struct {
	pw     *io.PipeWriter
	done   chan error
	closed atomic.Bool
}

func (w *writableBlob) Write(p []byte) (int, error) {
	if w.closed.Load() {
		return 0, io.ErrClosedPipe
	}
	return w.pw.Write(p)
}

// Sync is a no-op; the upload completes on Close.
func (w *writableBlob) Sync() error { return nil }

func (w *writableBlob) Close() error {
	if !w.closed.CompareAndSwap(false, true) {
		return io.ErrClosedPipe
	}
	if err := w.pw.Close(); err != nil {
		return err
	}
	return <-w.done
}
