// Package minio stores dataset archives on MinIO and other S3-compatible
// servers through the MinIO client.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    return err
//	}
//	store := minioblob.NewStore(client, "datasets", "steroids/")
//	err = archive.Save(ctx, store, sess)
package minio
