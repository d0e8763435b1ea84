package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/ingest"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/storage"
)

// objectDownloader copies importable objects from a bucket prefix to disk.
type objectDownloader struct {
	client  storage.ObjectStorage
	baseDir string
}

func newObjectDownloader(client storage.ObjectStorage, baseDir string) (*objectDownloader, error) {
	if baseDir == "" {
		baseDir = "./data/tmp/objects"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure download dir %s: %w", baseDir, err)
	}
	return &objectDownloader{client: client, baseDir: baseDir}, nil
}

// downloadObjects downloads every supported object under prefix, or only
// override when it is set.
func (d *objectDownloader) downloadObjects(ctx context.Context, prefix, override string) ([]string, error) {
	var keys []string

	if override != "" {
		keys = []string{resolveObjectKey(prefix, override)}
	} else {
		listPrefix := strings.TrimSpace(prefix)
		objects, err := d.client.ListObjects(ctx, listPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects for prefix %s: %w", listPrefix, err)
		}
		for _, obj := range objects {
			if ingest.Supported(obj.Key) {
				keys = append(keys, obj.Key)
			}
		}
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("no report files found for prefix %s", prefix)
	}

	localPaths := make([]string, 0, len(keys))
	for _, key := range keys {
		localPath := filepath.Join(d.baseDir, objectRelativePath(prefix, key))
		if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to prepare directory for %s: %w", localPath, err)
		}
		if err := d.client.DownloadObject(ctx, key, localPath); err != nil {
			return nil, err
		}
		localPaths = append(localPaths, localPath)
	}

	sort.Strings(localPaths)
	return localPaths, nil
}

func resolveObjectKey(prefix, override string) string {
	if override == "" {
		return strings.TrimSpace(prefix)
	}
	if prefix == "" {
		return strings.TrimPrefix(override, "/")
	}

	prefixTrimmed := strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	overrideTrimmed := strings.TrimPrefix(strings.TrimSpace(override), "/")

	if strings.HasPrefix(overrideTrimmed, prefixTrimmed+"/") {
		return overrideTrimmed
	}
	return fmt.Sprintf("%s/%s", prefixTrimmed, overrideTrimmed)
}

func objectRelativePath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	prefixTrimmed := strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	rel := strings.TrimPrefix(key, prefixTrimmed+"/")
	if rel == "" {
		return filepath.Base(key)
	}
	return rel
}

// exportKey joins the export prefix and a file name into an object key.
func exportKey(prefix, name string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
