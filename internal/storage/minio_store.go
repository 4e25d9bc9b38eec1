package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MinioConfig holds connection settings for an S3-compatible endpoint.
type MinioConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	PublicBaseURL string
}

// MinioStore implements ObjectStore on any S3-compatible service.
type MinioStore struct {
	client  *minio.Client
	baseURL string
	logger  *zap.Logger
}

// NewMinioStore connects to the endpoint. Buckets are not created here, see
// EnsureBuckets.
func NewMinioStore(cfg MinioConfig, logger *zap.Logger) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		baseURL = scheme + "://" + cfg.Endpoint
	}

	return &MinioStore{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}, nil
}

// EnsureBuckets creates the given buckets when they do not exist.
func (s *MinioStore) EnsureBuckets(ctx context.Context, buckets ...string) error {
	for _, b := range buckets {
		exists, err := s.client.BucketExists(ctx, b)
		if err != nil {
			return fmt.Errorf("failed to check bucket %s: %w", b, err)
		}
		if exists {
			continue
		}
		if err := s.client.MakeBucket(ctx, b, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", b, err)
		}
		s.logger.Info("storage bucket created", zap.String("bucket", b))
	}
	return nil
}

// Upload stores data under key.
func (s *MinioStore) Upload(ctx context.Context, bucket, key, contentType string, data []byte) (string, error) {
	info, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s/%s: %w", bucket, key, err)
	}
	return info.Key, nil
}

// PublicURL returns the path-style URL of the object.
func (s *MinioStore) PublicURL(bucket, path string) string {
	return s.baseURL + "/" + bucket + "/" + strings.TrimPrefix(path, "/")
}

// Remove deletes keys one by one and returns the first failure.
func (s *MinioStore) Remove(ctx context.Context, bucket string, keys []string) error {
	for _, key := range keys {
		if err := s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to remove %s/%s: %w", bucket, key, err)
		}
	}
	return nil
}
