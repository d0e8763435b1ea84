// backend-go/internal/repository/report_repository.go
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/domain"
)

// ErrNotFound is returned when a report id does not exist.
var ErrNotFound = errors.New("report not found")

// ReportRepository stores report documents. ListByType returns reports in
// created_at then id order so that repeated reads see the same sequence.
type ReportRepository interface {
	Create(ctx context.Context, report *domain.Report) error
	Get(ctx context.Context, id string) (*domain.Report, error)
	ListByType(ctx context.Context, reportType string) ([]*domain.Report, error)
	Update(ctx context.Context, id string, payload json.RawMessage) (*domain.Report, error)
	Delete(ctx context.Context, id string) error
	ListTypes(ctx context.Context) ([]string, error)
}

// SortReports orders reports the way ListByType returns them.
func SortReports(reports []*domain.Report) {
	sort.SliceStable(reports, func(i, j int) bool {
		a, b := reports[i], reports[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
