// Package blobstore is the storage abstraction dataset archives are written
// to and read from.
//
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: a directory on the local file system, read through mmap
//   - MemoryStore: process memory, for tests and scratch sessions
//   - minio.Store: MinIO and other S3-compatible servers
//   - s3.Store: Amazon S3 with multipart uploads
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Create(ctx, name) (WritableBlob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Open must return an error satisfying errors.Is(err, ErrNotFound) for a
// missing blob.
package blobstore
