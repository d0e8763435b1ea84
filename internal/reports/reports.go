// Package reports assembles the deduplicated, normalized shipment view of a
// report type.
package reports

import (
	"context"
	"fmt"
	"sort"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/dedup"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/domain"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/normalize"
)

// Lister returns every stored document of a report type.
type Lister interface {
	List(ctx context.Context, reportType string) ([]domain.RawReport, error)
}

// Result is the outcome of FetchAndNormalize.
type Result struct {
	Records []domain.NormalizedRecord
	Stats   dedup.Stats
}

// FetchAndNormalize lists all documents of reportType, drops older
// duplicates and normalizes the survivors. Deduplication runs on the raw
// documents since signatures read their nested structure.
func FetchAndNormalize(ctx context.Context, store Lister, reportType string) ([]domain.NormalizedRecord, error) {
	res, err := FetchAndNormalizeWithStats(ctx, store, reportType)
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

// FetchAndNormalizeWithStats is FetchAndNormalize plus dedup counts.
func FetchAndNormalizeWithStats(ctx context.Context, store Lister, reportType string) (Result, error) {
	raws, err := store.List(ctx, reportType)
	if err != nil {
		return Result{}, fmt.Errorf("list %s reports: %w", reportType, err)
	}

	unique, stats := dedup.DeduplicateWithStats(raws)

	records := make([]domain.NormalizedRecord, 0, len(unique))
	for _, raw := range unique {
		records = append(records, normalize.NormalizeRecord(raw))
	}

	return Result{Records: records, Stats: stats}, nil
}

// SortByReportDate orders records by report date, then creation time, then
// id. Records without a report date sort last in both directions.
func SortByReportDate(records []domain.NormalizedRecord, desc bool) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if (a.ReportDate == "") != (b.ReportDate == "") {
			return b.ReportDate == ""
		}
		if a.ReportDate != b.ReportDate {
			return (a.ReportDate < b.ReportDate) != desc
		}
		ta, tb := normalize.CalendarTime(a.CreatedAt), normalize.CalendarTime(b.CreatedAt)
		if !ta.Equal(tb) {
			return ta.Before(tb) != desc
		}
		if a.ID != b.ID {
			return (a.ID < b.ID) != desc
		}
		return false
	})
}
