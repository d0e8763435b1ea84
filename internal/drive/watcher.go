package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/ingest"
)

// DownloadOptions controls how files are pulled from Google Drive.
type DownloadOptions struct {
	FolderID    string
	DownloadDir string
}

// Downloader copies importable files from a Drive folder to disk.
type Downloader struct {
	files Files
}

func NewDownloader(files Files) *Downloader {
	return &Downloader{files: files}
}

// DownloadFolder downloads every file in the folder that the importer can
// decode into DownloadDir and returns the local paths.
func (d *Downloader) DownloadFolder(ctx context.Context, opts DownloadOptions) ([]string, error) {
	if opts.DownloadDir == "" {
		return nil, fmt.Errorf("download dir is required")
	}
	if err := os.MkdirAll(opts.DownloadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	files, err := d.files.ListFiles(ctx, opts.FolderID)
	if err != nil {
		return nil, err
	}

	var localPaths []string
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := f.LocalName()
		if !ingest.Supported(name) {
			continue
		}

		localPath := filepath.Join(opts.DownloadDir, filepath.Base(name))
		if err := d.download(ctx, f, localPath); err != nil {
			return nil, err
		}
		log.Debug().Str("file", name).Str("path", localPath).Msg("downloaded drive file")
		localPaths = append(localPaths, localPath)
	}

	return localPaths, nil
}

func (d *Downloader) download(ctx context.Context, f *File, localPath string) error {
	out, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file %s: %w", localPath, err)
	}
	if err := d.files.DownloadFile(ctx, f, out); err != nil {
		out.Close()
		return fmt.Errorf("failed to download %s: %w", f.Name, err)
	}
	return out.Close()
}
