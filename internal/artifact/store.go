// Package artifact moves intermediate media files through object storage so
// the pipeline's stage adapters only exchange small opaque handles.
package artifact

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Handle identifies one stored artifact. Its string form ("bucket/object")
// is what travels between pipeline stages.
type Handle struct {
	Bucket string
	Object string
}

func (h Handle) String() string {
	return h.Bucket + "/" + h.Object
}

// ParseHandle parses the "bucket/object" form produced by Handle.String.
func ParseHandle(s string) (Handle, error) {
	bucket, object, ok := strings.Cut(s, "/")
	if !ok || bucket == "" || object == "" {
		return Handle{}, fmt.Errorf("malformed artifact handle %q", s)
	}
	return Handle{Bucket: bucket, Object: object}, nil
}

// Store wraps a MinIO client with a fixed working bucket.
type Store struct {
	client *minio.Client
	bucket string
}

// Options configures the object storage connection.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
	Bucket    string
}

// New connects to object storage and ensures the working bucket exists.
func New(ctx context.Context, opts Options) (*Store, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio connection: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", opts.Bucket, err)
		}
	}

	return &Store{client: client, bucket: opts.Bucket}, nil
}

// Upload stores a local file under object and returns its handle.
func (s *Store) Upload(ctx context.Context, localPath, object, contentType string) (Handle, error) {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := s.client.FPutObject(ctx, s.bucket, object, localPath, opts); err != nil {
		return Handle{}, fmt.Errorf("upload %s: %w", object, err)
	}
	return Handle{Bucket: s.bucket, Object: object}, nil
}

// Download fetches the artifact into destDir, keeping the object's file
// extension, and returns the local path.
func (s *Store) Download(ctx context.Context, h Handle, destDir string) (string, error) {
	localPath := filepath.Join(destDir, filepath.Base(h.Object))
	if err := s.client.FGetObject(ctx, h.Bucket, h.Object, localPath, minio.GetObjectOptions{}); err != nil {
		return "", fmt.Errorf("download %s: %w", h, err)
	}
	return localPath, nil
}

// Remove deletes the artifact. Missing objects are not an error.
func (s *Store) Remove(ctx context.Context, h Handle) error {
	return s.client.RemoveObject(ctx, h.Bucket, h.Object, minio.RemoveObjectOptions{})
}
