// Package pebble stores reports in an embedded Pebble key-value store.
//
// Reports live under report/<type>/<id> so that a type is one contiguous key
// range; report-id/<id> maps an id back to its type.
package pebble

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/domain"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/repository"
)

const (
	reportPrefix = "report/"
	idPrefix     = "report-id/"
)

type ReportRepository struct {
	db *pebble.DB
	// mu serializes read-modify-write operations.
	mu sync.Mutex
}

var _ repository.ReportRepository = (*ReportRepository)(nil)

func Open(dir string) (*ReportRepository, error) {
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &ReportRepository{db: db}, nil
}

func (p *ReportRepository) Close() error { return p.db.Close() }

func reportKey(reportType, id string) []byte {
	return []byte(reportPrefix + reportType + "/" + id)
}

func idKey(id string) []byte {
	return []byte(idPrefix + id)
}

// prefixEnd returns the first key after every key starting with prefix.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func (p *ReportRepository) get(key []byte) ([]byte, error) {
	v, closer, err := p.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), v...), nil
}

func (p *ReportRepository) Create(_ context.Context, report *domain.Report) error {
	val, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	b := p.db.NewBatch()
	defer b.Close()
	if err := b.Set(reportKey(report.Type, report.ID), val, nil); err != nil {
		return fmt.Errorf("pebble set: %w", err)
	}
	if err := b.Set(idKey(report.ID), []byte(report.Type), nil); err != nil {
		return fmt.Errorf("pebble set: %w", err)
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("pebble commit: %w", err)
	}
	return nil
}

func (p *ReportRepository) Get(_ context.Context, id string) (*domain.Report, error) {
	reportType, err := p.get(idKey(id))
	if err != nil {
		return nil, err
	}
	val, err := p.get(reportKey(string(reportType), id))
	if err != nil {
		return nil, err
	}
	return decodeReport(val)
}

func decodeReport(val []byte) (*domain.Report, error) {
	var r domain.Report
	if err := json.Unmarshal(val, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}

func (p *ReportRepository) ListByType(_ context.Context, reportType string) ([]*domain.Report, error) {
	prefix := []byte(reportPrefix + reportType + "/")
	it, err := p.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: prefixEnd(prefix)})
	if err != nil {
		return nil, fmt.Errorf("pebble iter: %w", err)
	}
	defer it.Close()

	reports := make([]*domain.Report, 0)
	for it.First(); it.Valid(); it.Next() {
		r, err := decodeReport(it.Value())
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("pebble iter: %w", err)
	}

	repository.SortReports(reports)
	return reports, nil
}

func (p *ReportRepository) Update(ctx context.Context, id string, payload json.RawMessage) (*domain.Report, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	r, err := p.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.Payload = append(json.RawMessage(nil), payload...)
	r.UpdatedAt = time.Now().UTC()

	val, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	if err := p.db.Set(reportKey(r.Type, r.ID), val, pebble.Sync); err != nil {
		return nil, fmt.Errorf("pebble set: %w", err)
	}
	return r, nil
}

func (p *ReportRepository) Delete(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	reportType, err := p.get(idKey(id))
	if err != nil {
		return err
	}

	b := p.db.NewBatch()
	defer b.Close()
	if err := b.Delete(reportKey(string(reportType), id), nil); err != nil {
		return fmt.Errorf("pebble delete: %w", err)
	}
	if err := b.Delete(idKey(id), nil); err != nil {
		return fmt.Errorf("pebble delete: %w", err)
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("pebble commit: %w", err)
	}
	return nil
}

// ListTypes walks the report range, seeking past each type once it is seen.
func (p *ReportRepository) ListTypes(_ context.Context) ([]string, error) {
	prefix := []byte(reportPrefix)
	it, err := p.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: prefixEnd(prefix)})
	if err != nil {
		return nil, fmt.Errorf("pebble iter: %w", err)
	}
	defer it.Close()

	types := make([]string, 0)
	for valid := it.First(); valid; {
		rest := bytes.TrimPrefix(it.Key(), prefix)
		slash := bytes.IndexByte(rest, '/')
		if slash < 0 {
			valid = it.Next()
			continue
		}
		reportType := string(rest[:slash])
		types = append(types, reportType)
		valid = it.SeekGE(prefixEnd([]byte(reportPrefix + reportType + "/")))
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("pebble iter: %w", err)
	}
	return types, nil
}
