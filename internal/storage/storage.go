package storage

import (
	"context"
	"io"
)

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStorage captures the S3-compatible operations used by report
// imports and exports.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DownloadObject(ctx context.Context, key string, destPath string) error
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)
	UploadObject(ctx context.Context, key string, data []byte, contentType string) error
}
