package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/config"
)

// MinioClient implements ObjectStorage for MinIO and other S3-compatible
// services.
type MinioClient struct {
	client *minio.Client
	bucket string
}

// NewMinioClient builds a client for the configured bucket. The endpoint
// may carry an http:// or https:// scheme, which overrides UseSSL.
func NewMinioClient(cfg config.StorageConfig) (*MinioClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("storage endpoint must be provided")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("storage credentials must be provided")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket must be provided")
	}

	endpoint, secure := splitEndpoint(cfg.Endpoint, cfg.UseSSL)

	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &MinioClient{client: client, bucket: cfg.Bucket}, nil
}

func splitEndpoint(raw string, useSSL bool) (string, bool) {
	switch {
	case strings.HasPrefix(raw, "https://"):
		return strings.TrimSuffix(strings.TrimPrefix(raw, "https://"), "/"), true
	case strings.HasPrefix(raw, "http://"):
		return strings.TrimSuffix(strings.TrimPrefix(raw, "http://"), "/"), false
	}
	return strings.TrimSuffix(strings.TrimPrefix(raw, "//"), "/"), useSSL
}

// ListObjects lists all objects for a given prefix.
func (c *MinioClient) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	results := make([]ObjectInfo, 0)
	for object := range c.client.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if object.Err != nil {
			return nil, fmt.Errorf("storage list failed: %w", object.Err)
		}
		if strings.HasSuffix(object.Key, "/") {
			continue
		}
		results = append(results, ObjectInfo{Key: object.Key, Size: object.Size})
	}
	return results, nil
}

// DownloadObject downloads an object to the provided destination path.
func (c *MinioClient) DownloadObject(ctx context.Context, key, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed creating directory for %s: %w", destPath, err)
	}
	if err := c.client.FGetObject(ctx, c.bucket, key, destPath, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("storage download of %s failed: %w", key, err)
	}
	return nil
}

// GetObject streams an object. The caller closes the reader.
func (c *MinioClient) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := c.client.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("storage get of %s failed: %w", key, err)
	}
	return obj, nil
}

// UploadObject stores data under key.
func (c *MinioClient) UploadObject(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := c.client.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("storage upload of %s failed: %w", key, err)
	}
	return nil
}

var _ ObjectStorage = (*MinioClient)(nil)
