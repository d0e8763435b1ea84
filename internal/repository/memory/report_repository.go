// Package memory is a map-backed report store for tests and local runs.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/domain"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/repository"
)

type ReportRepository struct {
	mu      sync.RWMutex
	reports map[string]domain.Report
	now     func() time.Time
}

func NewReportRepository() *ReportRepository {
	return &ReportRepository{
		reports: make(map[string]domain.Report),
		now:     time.Now,
	}
}

var _ repository.ReportRepository = (*ReportRepository)(nil)

func clone(r domain.Report) *domain.Report {
	r.Payload = append(json.RawMessage(nil), r.Payload...)
	return &r
}

func (m *ReportRepository) Create(_ context.Context, report *domain.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[report.ID] = *clone(*report)
	return nil
}

func (m *ReportRepository) Get(_ context.Context, id string) (*domain.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(r), nil
}

func (m *ReportRepository) ListByType(_ context.Context, reportType string) ([]*domain.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.Report, 0)
	for _, r := range m.reports {
		if r.Type == reportType {
			out = append(out, clone(r))
		}
	}
	repository.SortReports(out)
	return out, nil
}

func (m *ReportRepository) Update(_ context.Context, id string, payload json.RawMessage) (*domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	r.Payload = append(json.RawMessage(nil), payload...)
	r.UpdatedAt = m.now().UTC()
	m.reports[id] = r
	return clone(r), nil
}

func (m *ReportRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.reports, id)
	return nil
}

func (m *ReportRepository) ListTypes(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	types := make([]string, 0)
	for _, r := range m.reports {
		if _, ok := seen[r.Type]; ok {
			continue
		}
		seen[r.Type] = struct{}{}
		types = append(types, r.Type)
	}
	sort.Strings(types)
	return types, nil
}
