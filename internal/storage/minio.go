package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"pinroom/internal/domain/repositories"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("pinroom-storage")

// publicReadPolicy lets anyone GET objects so stored file URLs open directly
const publicReadPolicy = `{
	"Version": "2012-10-17",
	"Statement": [{
		"Effect": "Allow",
		"Principal": {"AWS": ["*"]},
		"Action": ["s3:GetObject"],
		"Resource": ["arn:aws:s3:::%s/*"]
	}]
}`

// MinioOptions configures the S3 connection
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	PublicURL string // objects are served at PublicURL + "/" + path
}

// MinioBlobStore implements repositories.BlobStore on any S3-compatible endpoint
type MinioBlobStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
	logger    *slog.Logger
}

// NewMinioBlobStore connects to the endpoint and creates the bucket (public-read) if
// it does not exist yet
func NewMinioBlobStore(ctx context.Context, opts MinioOptions, logger *slog.Logger) (*MinioBlobStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		logger.Info("creating bucket", "bucket", opts.Bucket)
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		if err := client.SetBucketPolicy(ctx, opts.Bucket, fmt.Sprintf(publicReadPolicy, opts.Bucket)); err != nil {
			return nil, fmt.Errorf("failed to set bucket policy: %w", err)
		}
	}

	return &MinioBlobStore{
		client:    client,
		bucket:    opts.Bucket,
		publicURL: strings.TrimRight(opts.PublicURL, "/"),
		logger:    logger,
	}, nil
}

var _ repositories.BlobStore = (*MinioBlobStore)(nil)

// Put uploads an object and returns its public URL
func (s *MinioBlobStore) Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) (string, error) {
	ctx, span := tracer.Start(ctx, "minio.put_object",
		trace.WithAttributes(
			attribute.String("object_key", path),
			attribute.Int64("size_bytes", size),
			attribute.String("content_type", contentType),
		),
	)
	defer span.End()

	_, err := s.client.PutObject(ctx, s.bucket, path, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	span.SetAttributes(attribute.Bool("upload_success", true))
	return s.URLFor(path), nil
}

// URLFor returns the public URL of path
func (s *MinioBlobStore) URLFor(path string) string {
	return s.publicURL + "/" + path
}

// Delete removes one object
func (s *MinioBlobStore) Delete(ctx context.Context, path string) error {
	ctx, span := tracer.Start(ctx, "minio.remove_object",
		trace.WithAttributes(
			attribute.String("object_key", path),
		),
	)
	defer span.End()

	if err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete object: %w", err)
	}

	return nil
}

// DeletePrefix lists every object under prefix and removes them one by one. It stops
// at the first failure and reports how many were removed before it.
func (s *MinioBlobStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	ctx, span := tracer.Start(ctx, "minio.remove_prefix",
		trace.WithAttributes(
			attribute.String("prefix", prefix),
		),
	)
	defer span.End()

	// Cancelling stops the listing goroutine if we return early
	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var keys []string
	for obj := range s.client.ListObjects(listCtx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			span.RecordError(obj.Err)
			return 0, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		keys = append(keys, obj.Key)
	}

	removed := 0
	for _, key := range keys {
		if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
			span.RecordError(err)
			return removed, fmt.Errorf("failed to delete object %s: %w", key, err)
		}
		removed++
	}

	span.SetAttributes(attribute.Int("objects_removed", removed))
	s.logger.Debug("objects removed", "prefix", prefix, "count", removed)
	return removed, nil
}
