package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/domain"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/service"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/storage"
)

const defaultConcurrency = 8

// Creator stores one report.
type Creator interface {
	Create(ctx context.Context, in service.CreateReportInput) (*domain.Report, error)
}

// Summary counts the outcome of an import.
type Summary struct {
	Files   int `json:"files"`
	Created int `json:"created"`
	Failed  int `json:"failed"`
}

func (s *Summary) add(o Summary) {
	s.Files += o.Files
	s.Created += o.Created
	s.Failed += o.Failed
}

// Importer decodes files and creates their reports concurrently.
type Importer struct {
	creator     Creator
	concurrency int
	now         func() time.Time
}

func NewImporter(creator Creator, concurrency int) *Importer {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Importer{creator: creator, concurrency: concurrency, now: time.Now}
}

// ImportDocuments creates docs, using defaultType for documents without
// one. Documents without a creation time are stamped in file order, so a
// later save of the same shipment stays the newer one. Documents that fail
// validation are counted and logged; other errors stop the import.
func (im *Importer) ImportDocuments(ctx context.Context, docs []Document, defaultType string) (Summary, error) {
	var (
		mu  sync.Mutex
		sum Summary
	)
	base := im.now().UTC()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(im.concurrency)

	for i, doc := range docs {
		reportType := doc.Type
		if reportType == "" {
			reportType = defaultType
		}
		in := service.CreateReportInput{
			Type:      reportType,
			Reporter:  doc.Reporter,
			Payload:   doc.Payload,
			CreatedAt: doc.CreatedAt,
		}
		if in.CreatedAt == nil {
			// millisecond steps survive the dedup comparison
			ts := base.Add(time.Duration(i) * time.Millisecond)
			in.CreatedAt = &ts
		}

		g.Go(func() error {
			_, err := im.creator.Create(ctx, in)

			mu.Lock()
			defer mu.Unlock()

			var verr *service.ValidationError
			switch {
			case err == nil:
				sum.Created++
			case errors.As(err, &verr):
				sum.Failed++
				log.Warn().Err(err).Int("index", i).Str("type", in.Type).Msg("skipping invalid document")
			default:
				return fmt.Errorf("document %d: %w", i, err)
			}
			return nil
		})
	}

	err := g.Wait()
	return sum, err
}

// ImportReader decodes one file and imports its documents.
func (im *Importer) ImportReader(ctx context.Context, name string, r io.Reader, defaultType string) (Summary, error) {
	docs, err := DecodeFile(name, r)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to decode %s: %w", name, err)
	}

	sum, err := im.ImportDocuments(ctx, docs, defaultType)
	sum.Files = 1
	if err != nil {
		return sum, fmt.Errorf("failed to import %s: %w", name, err)
	}

	log.Info().Str("file", name).Int("created", sum.Created).Int("failed", sum.Failed).Msg("imported file")
	return sum, nil
}

// ImportFiles imports local files one after another.
func (im *Importer) ImportFiles(ctx context.Context, paths []string, defaultType string) (Summary, error) {
	var total Summary
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return total, fmt.Errorf("failed to open %s: %w", path, err)
		}
		sum, err := im.ImportReader(ctx, filepath.Base(path), f, defaultType)
		f.Close()
		total.add(sum)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// ImportDir imports every supported file directly inside dir.
func (im *Importer) ImportDir(ctx context.Context, dir, defaultType string) (Summary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return im.ImportFiles(ctx, paths, defaultType)
}

// ImportObjects imports every supported object under prefix.
func (im *Importer) ImportObjects(ctx context.Context, store storage.ObjectStorage, prefix, defaultType string) (Summary, error) {
	objects, err := store.ListObjects(ctx, prefix)
	if err != nil {
		return Summary{}, err
	}

	var total Summary
	for _, obj := range objects {
		if !Supported(obj.Key) {
			continue
		}

		data, err := readObject(ctx, store, obj.Key)
		if err != nil {
			return total, err
		}
		sum, err := im.ImportReader(ctx, obj.Key, bytes.NewReader(data), defaultType)
		total.add(sum)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func readObject(ctx context.Context, store storage.ObjectStorage, key string) ([]byte, error) {
	rc, err := store.GetObject(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}
