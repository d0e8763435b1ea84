package drive

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/ingest"
)

// IngestService imports report files stored on Google Drive.
type IngestService struct {
	files    Files
	importer *ingest.Importer
}

func NewIngestService(files Files, importer *ingest.Importer) *IngestService {
	return &IngestService{
		files:    files,
		importer: importer,
	}
}

// IngestFile imports one Drive file. reportType applies to documents
// without their own type.
func (s *IngestService) IngestFile(ctx context.Context, fileID, reportType string) (ingest.Summary, error) {
	f, err := s.files.GetFile(ctx, fileID)
	if err != nil {
		return ingest.Summary{}, err
	}
	return s.ingest(ctx, f, reportType)
}

// IngestFolder imports every supported file in a folder.
func (s *IngestService) IngestFolder(ctx context.Context, folderID, reportType string) (ingest.Summary, error) {
	files, err := s.files.ListFiles(ctx, folderID)
	if err != nil {
		return ingest.Summary{}, err
	}

	var total ingest.Summary
	for _, f := range files {
		if !ingest.Supported(f.LocalName()) {
			continue
		}
		sum, err := s.ingest(ctx, f, reportType)
		total.Files += sum.Files
		total.Created += sum.Created
		total.Failed += sum.Failed
		if err != nil {
			return total, err
		}
	}

	log.Info().
		Str("folder", folderID).
		Int("files", total.Files).
		Int("created", total.Created).
		Int("failed", total.Failed).
		Msg("drive folder ingested")
	return total, nil
}

func (s *IngestService) ingest(ctx context.Context, f *File, reportType string) (ingest.Summary, error) {
	name := f.LocalName()
	if !ingest.Supported(name) {
		return ingest.Summary{}, fmt.Errorf("%w: %s", ingest.ErrUnsupported, f.Name)
	}

	var buf bytes.Buffer
	if err := s.files.DownloadFile(ctx, f, &buf); err != nil {
		return ingest.Summary{}, err
	}
	return s.importer.ImportReader(ctx, name, &buf, reportType)
}
