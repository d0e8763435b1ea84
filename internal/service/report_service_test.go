package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/cache"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/domain"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/metrics"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/repository"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/repository/memory"
)

type cacheKey struct {
	t string
	v int64
}

// mapCache keeps entries per generation like the Redis cache does.
type mapCache struct {
	mu          sync.Mutex
	entries     map[cacheKey][]domain.NormalizedRecord
	versions    map[string]int64
	invalidated []string
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[cacheKey][]domain.NormalizedRecord), versions: make(map[string]int64)}
}

func (c *mapCache) Get(_ context.Context, t string) (cache.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.versions[t]
	r, ok := c.entries[cacheKey{t, v}]
	return cache.Entry{Records: r, Version: v, Hit: ok}, nil
}

func (c *mapCache) Set(_ context.Context, t string, v int64, r []domain.NormalizedRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey{t, v}] = r
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, t string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey{t, c.versions[t]})
	c.versions[t]++
	c.invalidated = append(c.invalidated, t)
	return nil
}

func (c *mapCache) InvalidateAll(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for t := range c.versions {
		c.versions[t]++
	}
	c.entries = make(map[cacheKey][]domain.NormalizedRecord)
	return nil
}

type recordingPublisher struct {
	events []domain.ReportEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.ReportEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	svc     *ReportService
	cache   *mapCache
	pub     *recordingPublisher
	metrics *metrics.Registry
}

func newFixture() *fixture {
	f := &fixture{cache: newMapCache(), pub: &recordingPublisher{}, metrics: metrics.NewRegistry()}
	f.svc = NewReportService(memory.NewReportRepository(), f.cache, f.pub, f.metrics)
	return f
}

func shipmentPayload(invoice, supplier string) json.RawMessage {
	b, _ := json.Marshal(map[string]any{
		"reportDate": "2024-01-05",
		"header": map[string]any{
			"invoiceNo":    invoice,
			"supplierName": supplier,
			"shipmentType": "Chilled",
		},
	})
	return b
}

func at(day int) *time.Time {
	t := time.Date(2024, 1, day, 8, 0, 0, 0, time.UTC)
	return &t
}

func TestNormalizeType(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "qcs_raw_material", want: "qcs_raw_material"},
		{in: " QCS-Temp ", want: "qcs-temp"},
		{in: "", wantErr: true},
		{in: "bad type", wantErr: true},
		{in: "a/b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeType(tt.in)
			if tt.wantErr {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("error = %v, want ValidationError", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("NormalizeType(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestCreate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	r, err := f.svc.Create(ctx, CreateReportInput{Type: "QCS_Raw_Material", Reporter: " ali ", Payload: shipmentPayload("INV-1", "Farm")})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if r.ID == "" || r.Type != "qcs_raw_material" || r.Reporter != "ali" {
		t.Errorf("unexpected report %+v", r)
	}
	if len(f.pub.events) != 1 || f.pub.events[0].Kind != domain.EventCreated || f.pub.events[0].ReportID != r.ID {
		t.Errorf("events = %+v", f.pub.events)
	}
	if len(f.cache.invalidated) != 1 || f.cache.invalidated[0] != "qcs_raw_material" {
		t.Errorf("invalidated = %v", f.cache.invalidated)
	}
	if got := testutil.ToFloat64(f.metrics.ReportsWritten.WithLabelValues("created")); got != 1 {
		t.Errorf("written metric = %v", got)
	}
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name string
		in   CreateReportInput
	}{
		{name: "missing type", in: CreateReportInput{Payload: json.RawMessage(`{}`)}},
		{name: "array payload", in: CreateReportInput{Type: "t", Payload: json.RawMessage(`[1]`)}},
		{name: "broken payload", in: CreateReportInput{Type: "t", Payload: json.RawMessage(`{"a":`)}},
		{name: "trailing data", in: CreateReportInput{Type: "t", Payload: json.RawMessage(`{} {}`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.svc.Create(context.Background(), tt.in)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if len(f.pub.events) != 0 {
				t.Errorf("event published for rejected report")
			}
		})
	}
}

func TestCreateEmptyPayload(t *testing.T) {
	f := newFixture()
	r, err := f.svc.Create(context.Background(), CreateReportInput{Type: "t"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if string(r.Payload) != "{}" {
		t.Errorf("payload = %s, want {}", r.Payload)
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture()
	f.pub.err = errors.New("broker down")

	if _, err := f.svc.Create(context.Background(), CreateReportInput{Type: "t", Payload: json.RawMessage(`{}`)}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if got := testutil.ToFloat64(f.metrics.EventsFailed); got != 1 {
		t.Errorf("events failed metric = %v", got)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	r, err := f.svc.Create(ctx, CreateReportInput{Type: "t", Payload: json.RawMessage(`{"a":1}`)})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := f.svc.Update(ctx, r.ID, json.RawMessage(`{"a":2}`))
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if string(updated.Payload) != `{"a":2}` {
		t.Errorf("payload = %s", updated.Payload)
	}

	if err := f.svc.Delete(ctx, r.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := f.svc.Get(ctx, r.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Get after delete = %v", err)
	}
	if err := f.svc.Delete(ctx, r.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("second Delete = %v", err)
	}
	if _, err := f.svc.Update(ctx, r.ID, json.RawMessage(`{}`)); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Update missing = %v", err)
	}

	kinds := make([]domain.EventKind, 0, len(f.pub.events))
	for _, ev := range f.pub.events {
		kinds = append(kinds, ev.Kind)
	}
	want := []domain.EventKind{domain.EventCreated, domain.EventUpdated, domain.EventDeleted}
	if len(kinds) != len(want) {
		t.Fatalf("events = %v", kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestList(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, CreateReportInput{Type: "t", Payload: shipmentPayload("INV-1", "Farm"), CreatedAt: at(1)}); err != nil {
		t.Fatal(err)
	}

	raws, err := f.svc.List(ctx, "T")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(raws) != 1 {
		t.Fatalf("got %d raws", len(raws))
	}
	if raws[0]["createdAt"] != "2024-01-01T08:00:00Z" {
		t.Errorf("createdAt = %v", raws[0]["createdAt"])
	}
	payload, ok := raws[0]["payload"].(map[string]any)
	if !ok || payload["reportDate"] != "2024-01-05" {
		t.Errorf("payload = %#v", raws[0]["payload"])
	}
}

func TestNormalizedDeduplicatesAndCaches(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	inputs := []CreateReportInput{
		{Type: "t", Payload: shipmentPayload("INV-1", "Farm"), CreatedAt: at(1)},
		{Type: "t", Payload: shipmentPayload("INV-1", "FARM"), CreatedAt: at(2)},
		{Type: "t", Payload: shipmentPayload("INV-2", "Farm"), CreatedAt: at(1)},
	}
	var ids []string
	for _, in := range inputs {
		r, err := f.svc.Create(ctx, in)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, r.ID)
	}

	got, err := f.svc.Normalized(ctx, "t")
	if err != nil {
		t.Fatalf("Normalized failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(got), got)
	}
	seen := map[string]bool{}
	for _, r := range got {
		seen[r.ID] = true
	}
	if seen[ids[0]] || !seen[ids[1]] || !seen[ids[2]] {
		t.Errorf("kept ids %v, want %s and %s", seen, ids[1], ids[2])
	}
	if v := testutil.ToFloat64(f.metrics.DedupDropped.WithLabelValues("t")); v != 1 {
		t.Errorf("dropped metric = %v", v)
	}

	if _, err := f.svc.Normalized(ctx, "t"); err != nil {
		t.Fatal(err)
	}
	if hits := testutil.ToFloat64(f.metrics.CacheHits); hits != 1 {
		t.Errorf("cache hits = %v, want 1", hits)
	}

	if _, err := f.svc.Create(ctx, CreateReportInput{Type: "t", Payload: shipmentPayload("INV-3", "Farm")}); err != nil {
		t.Fatal(err)
	}
	got, err = f.svc.Normalized(ctx, "t")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("stale cache after create: %d records", len(got))
	}
}

// racingRepo runs duringList once, after the listing is read and before it
// is returned.
type racingRepo struct {
	repository.ReportRepository
	once       sync.Once
	duringList func()
}

func (r *racingRepo) ListByType(ctx context.Context, reportType string) ([]*domain.Report, error) {
	out, err := r.ReportRepository.ListByType(ctx, reportType)
	r.once.Do(r.duringList)
	return out, err
}

func TestNormalizedDoesNotCacheViewOlderThanWrite(t *testing.T) {
	ctx := context.Background()
	c := newMapCache()
	repo := &racingRepo{ReportRepository: memory.NewReportRepository()}
	svc := NewReportService(repo, c, nil, nil)

	if _, err := svc.Create(ctx, CreateReportInput{Type: "t", Payload: shipmentPayload("INV-1", "Farm")}); err != nil {
		t.Fatal(err)
	}
	repo.duringList = func() {
		if _, err := svc.Create(ctx, CreateReportInput{Type: "t", Payload: shipmentPayload("INV-2", "Farm")}); err != nil {
			t.Error(err)
		}
	}

	got, err := svc.Normalized(ctx, "t")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("first read = %d records, want the 1 listed before the write", len(got))
	}

	got, err = svc.Normalized(ctx, "t")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("second read = %d records, want 2", len(got))
	}
}

func TestNormalizedRejectsBadType(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Normalized(context.Background(), "")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("error = %v, want ValidationError", err)
	}
}
