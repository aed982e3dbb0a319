// Package storage uploads chat media to S3-compatible object storage. The
// relay only carries media URLs; the bytes go through here first.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MediaStorage stores uploaded media files in one bucket.
type MediaStorage struct {
	client  *minio.Client
	bucket  string
	baseURL string
	logger  *slog.Logger
}

// NewMediaStorage connects to the object store and ensures the bucket
// exists.
func NewMediaStorage(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool, logger *slog.Logger) (*MediaStorage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info("created media bucket", "bucket", bucket)
	}

	scheme := "http"
	if useSSL {
		scheme = "https"
	}
	return &MediaStorage{
		client:  client,
		bucket:  bucket,
		baseURL: fmt.Sprintf("%s://%s/%s", scheme, endpoint, bucket),
		logger:  logger,
	}, nil
}

// Upload stores one file under a random object name and returns its public
// URL. The original filename only contributes its extension.
func (s *MediaStorage) Upload(ctx context.Context, filename string, size int64, contentType string, r io.Reader) (string, error) {
	objectName := uuid.New().String() + filepath.Ext(filename)

	_, err := s.client.PutObject(ctx, s.bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload media: %w", err)
	}

	url := s.baseURL + "/" + objectName
	s.logger.Info("media uploaded", "object", objectName, "size", size, "contentType", contentType)
	return url, nil
}

// Delete removes one object given its public URL's object name.
func (s *MediaStorage) Delete(ctx context.Context, objectName string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}
	return nil
}
