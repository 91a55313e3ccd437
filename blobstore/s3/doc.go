// Package s3 stores dataset archives in an Amazon S3 bucket.
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	if err != nil {
//	    return err
//	}
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "datasets/steroids")
//	err = archive.Save(ctx, store, sess)
//
// Large blobs written through Create are sent as multipart uploads; Put
// sends a single request with a CRC32C checksum.
package s3
