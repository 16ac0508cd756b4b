package service

import (
	"context"
	"fmt"
	"io"

	"pdf-intake/internal/domain"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/sync/errgroup"
)

// s3DeleteParallelism bounds concurrent RemoveObject calls during Clear.
const s3DeleteParallelism = 8

// S3Options configures an S3-compatible blob store
type S3Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	Bucket    string
}

// S3Storage archives files in an S3-compatible bucket
type S3Storage struct {
	client *minio.Client
	bucket string
	region string
	logger domain.Logger
}

// NewS3Storage creates a blob store; it does not contact the endpoint
func NewS3Storage(opts S3Options, logger domain.Logger) (*S3Storage, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("S3 endpoint must be provided")
	}
	if opts.Bucket == "" {
		opts.Bucket = domain.ContainerName
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init S3 client: %w", err)
	}

	return &S3Storage{
		client: client,
		bucket: opts.Bucket,
		region: opts.Region,
		logger: logger,
	}, nil
}

func (s *S3Storage) EnsureContainer(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		// Lost a race with a concurrent upload creating the same bucket.
		if minio.ToErrorResponse(err).Code == "BucketAlreadyOwnedByYou" {
			return nil
		}
		return fmt.Errorf("failed to create bucket %q: %w", s.bucket, err)
	}
	s.logger.Info("Storage bucket created", "bucket", s.bucket)
	return nil
}

func (s *S3Storage) Put(ctx context.Context, name string, content io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, name, content, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	s.logger.Debug("Object stored", "bucket", s.bucket, "name", name, "size", size)
	return nil
}

func (s *S3Storage) Get(ctx context.Context, name string) (*domain.StoredObject, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapError(err)
	}

	// GetObject is lazy; Stat performs the request and surfaces NoSuchKey.
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, s.mapError(err)
	}

	return &domain.StoredObject{
		Name: name,
		Size: info.Size,
		Body: obj,
	}, nil
}

func (s *S3Storage) Clear(ctx context.Context) error {
	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(listCtx)
	g.SetLimit(s3DeleteParallelism)

	removed := 0
	for obj := range s.client.ListObjects(listCtx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			if minio.ToErrorResponse(obj.Err).Code == "NoSuchBucket" {
				break
			}
			cancel()
			_ = g.Wait()
			return fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		if gctx.Err() != nil {
			break
		}

		key := obj.Key
		removed++
		g.Go(func() error {
			if err := s.client.RemoveObject(gctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
				return fmt.Errorf("failed to remove %q: %w", key, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	s.logger.Info("Storage bucket cleared", "bucket", s.bucket, "removed", removed)
	return nil
}

func (s *S3Storage) mapError(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return domain.ErrObjectNotFound
	}
	return fmt.Errorf("download failed: %w", err)
}
