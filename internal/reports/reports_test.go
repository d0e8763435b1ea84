package reports

import (
	"context"
	"errors"
	"testing"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/domain"
)

type fakeLister struct {
	docs map[string][]domain.RawReport
	err  error
	last string
}

func (f *fakeLister) List(_ context.Context, reportType string) ([]domain.RawReport, error) {
	f.last = reportType
	if f.err != nil {
		return nil, f.err
	}
	return f.docs[reportType], nil
}

func doc(id, createdAt, invoice string) domain.RawReport {
	return domain.RawReport{
		"id":        id,
		"createdAt": createdAt,
		"payload": map[string]any{
			"reportDate": "2024-01-05",
			"header": map[string]any{
				"shipmentType": "Frozen",
				"invoiceNo":    invoice,
				"supplierName": "Farm",
			},
		},
	}
}

func TestFetchAndNormalize(t *testing.T) {
	store := &fakeLister{docs: map[string][]domain.RawReport{
		"qcs_raw_material": {
			doc("A", "2024-01-01T00:00:00Z", "INV-1"),
			doc("B", "2024-01-02T00:00:00Z", "INV-1"),
			doc("C", "2024-01-01T00:00:00Z", "INV-2"),
		},
	}}

	got, err := FetchAndNormalize(context.Background(), store, "qcs_raw_material")
	if err != nil {
		t.Fatalf("FetchAndNormalize() error = %v", err)
	}
	if store.last != "qcs_raw_material" {
		t.Errorf("listed type %q", store.last)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(got), got)
	}
	if got[0].ID != "B" || got[1].ID != "C" {
		t.Errorf("got ids %q, %q; want B, C", got[0].ID, got[1].ID)
	}
	if got[0].InvoiceNo != "INV-1" || got[0].Supplier != "Farm" || got[0].ReportDate != "2024-01-05" {
		t.Errorf("record not normalized: %+v", got[0])
	}
}

func TestFetchAndNormalizeWithStats(t *testing.T) {
	store := &fakeLister{docs: map[string][]domain.RawReport{
		"t": {doc("A", "2024-01-01T00:00:00Z", "X"), doc("B", "2024-01-02T00:00:00Z", "X")},
	}}

	res, err := FetchAndNormalizeWithStats(context.Background(), store, "t")
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.Dropped != 1 || len(res.Records) != 1 {
		t.Errorf("got %+v", res)
	}
}

func TestFetchAndNormalizeListError(t *testing.T) {
	boom := errors.New("store down")
	_, err := FetchAndNormalize(context.Background(), &fakeLister{err: boom}, "t")
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped %v", err, boom)
	}
}

func TestFetchAndNormalizeEmpty(t *testing.T) {
	got, err := FetchAndNormalize(context.Background(), &fakeLister{}, "none")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %#v, want empty non-nil slice", got)
	}
}

func TestSortByReportDate(t *testing.T) {
	records := []domain.NormalizedRecord{
		{ID: "no-date"},
		{ID: "b", ReportDate: "2024-01-02", CreatedAt: "2024-01-02T09:00:00Z"},
		{ID: "a", ReportDate: "2024-01-02", CreatedAt: "2024-01-02T08:00:00Z"},
		{ID: "c", ReportDate: "2024-01-03"},
		{ID: "d", ReportDate: "2024-01-01"},
	}

	tests := []struct {
		name string
		desc bool
		want []string
	}{
		{name: "ascending", desc: false, want: []string{"d", "a", "b", "c", "no-date"}},
		{name: "descending", desc: true, want: []string{"c", "b", "a", "d", "no-date"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := append([]domain.NormalizedRecord(nil), records...)
			SortByReportDate(got, tt.desc)
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Fatalf("position %d = %q, want %q (all: %+v)", i, got[i].ID, id, got)
				}
			}
		})
	}
}
