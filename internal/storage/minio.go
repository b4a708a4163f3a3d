// Package storage persists opaque blobs (incoming audio, rendered PDFs) in
// an S3-compatible object store. The core pipeline never depends on storage
// semantics beyond "accepts bytes, returns a reference".
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Hardik-Sankhla/VoiceInvoice/internal/config"
)

// ErrObjectNotFound is returned when the requested object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore is the blob facade the handlers depend on.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, object string, data []byte, contentType string) (string, error)
	Download(ctx context.Context, bucket, object string) ([]byte, error)
	Exists(ctx context.Context, bucket, object string) (bool, error)
}

// MinioStore implements ObjectStore against MinIO (or any S3-compatible
// endpoint).
type MinioStore struct {
	client *minio.Client
}

// NewMinioStore connects to the configured endpoint and ensures the audio
// and PDF buckets exist.
func NewMinioStore(ctx context.Context, cfg config.StorageConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	s := &MinioStore{client: client}
	for _, bucket := range []string{cfg.AudioBucket, cfg.PDFBucket} {
		if err := s.ensureBucket(ctx, bucket); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *MinioStore) ensureBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %q: %w", bucket, err)
	}
	return nil
}

// Upload stores data under bucket/object and returns the logical reference.
func (s *MinioStore) Upload(ctx context.Context, bucket, object string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, bucket, object, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", bucket, object, err)
	}
	return bucket + "/" + object, nil
}

// Download fetches the full object payload.
func (s *MinioStore) Download(ctx context.Context, bucket, object string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("download %s/%s: %w", bucket, object, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("read %s/%s: %w", bucket, object, err)
	}
	return data, nil
}

// Exists reports whether bucket/object is present.
func (s *MinioStore) Exists(ctx context.Context, bucket, object string) (bool, error) {
	_, err := s.client.StatObject(ctx, bucket, object, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s/%s: %w", bucket, object, err)
	}
	return true, nil
}

func isNoSuchKey(err error) bool {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code == "NoSuchKey"
	}
	return false
}

var _ ObjectStore = (*MinioStore)(nil)
