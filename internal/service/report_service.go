// backend-go/internal/service/report_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/cache"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/domain"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/events"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/metrics"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/reports"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/repository"
)

var reportTypePattern = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// ValidationError reports bad client input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// CreateReportInput carries a new report. CreatedAt is set by imports that
// preserve the original submission time; it defaults to now.
type CreateReportInput struct {
	Type      string          `json:"type"`
	Reporter  string          `json:"reporter"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt *time.Time      `json:"createdAt,omitempty"`
}

type ReportService struct {
	repo      repository.ReportRepository
	cache     cache.NormalizedCache
	publisher events.Publisher
	metrics   *metrics.Registry
	now       func() time.Time
}

// NewReportService wires the service. cache and publisher may be nil.
func NewReportService(repo repository.ReportRepository, c cache.NormalizedCache, p events.Publisher, m *metrics.Registry) *ReportService {
	if c == nil {
		c = cache.NewNoopNormalizedCache()
	}
	if p == nil {
		p = events.NewNoopPublisher()
	}
	if m == nil {
		m = metrics.NewRegistry()
	}
	return &ReportService{repo: repo, cache: c, publisher: p, metrics: m, now: time.Now}
}

var _ reports.Lister = (*ReportService)(nil)

// NormalizeType lower-cases and validates a report type.
func NormalizeType(reportType string) (string, error) {
	t := strings.ToLower(strings.TrimSpace(reportType))
	if t == "" {
		return "", &ValidationError{Field: "type", Message: "is required"}
	}
	if !reportTypePattern.MatchString(t) {
		return "", &ValidationError{Field: "type", Message: "must be 1-64 characters of a-z, 0-9, '_' or '-'"}
	}
	return t, nil
}

// validatePayload requires a JSON object; an empty payload becomes {}.
func validatePayload(payload json.RawMessage) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(string(payload))
	if trimmed == "" || trimmed == "null" {
		return json.RawMessage("{}"), nil
	}
	if !strings.HasPrefix(trimmed, "{") {
		return nil, &ValidationError{Field: "payload", Message: "must be a JSON object"}
	}
	if !json.Valid([]byte(trimmed)) {
		return nil, &ValidationError{Field: "payload", Message: "is not valid JSON"}
	}
	return json.RawMessage(trimmed), nil
}

func (s *ReportService) Create(ctx context.Context, in CreateReportInput) (*domain.Report, error) {
	reportType, err := NormalizeType(in.Type)
	if err != nil {
		return nil, err
	}
	payload, err := validatePayload(in.Payload)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	createdAt := now
	if in.CreatedAt != nil && !in.CreatedAt.IsZero() {
		createdAt = in.CreatedAt.UTC()
	}

	report := &domain.Report{
		ID:        uuid.New().String(),
		Type:      reportType,
		Reporter:  strings.TrimSpace(in.Reporter),
		Payload:   payload,
		CreatedAt: createdAt,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	s.afterWrite(ctx, domain.EventCreated, report.ID, report.Type)
	return report, nil
}

func (s *ReportService) Get(ctx context.Context, id string) (*domain.Report, error) {
	return s.repo.Get(ctx, id)
}

func (s *ReportService) Update(ctx context.Context, id string, payload json.RawMessage) (*domain.Report, error) {
	valid, err := validatePayload(payload)
	if err != nil {
		return nil, err
	}

	report, err := s.repo.Update(ctx, id, valid)
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, domain.EventUpdated, report.ID, report.Type)
	return report, nil
}

func (s *ReportService) Delete(ctx context.Context, id string) error {
	report, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.afterWrite(ctx, domain.EventDeleted, report.ID, report.Type)
	return nil
}

// afterWrite drops the cached view of the type and publishes the change.
// Neither failure undoes the write.
func (s *ReportService) afterWrite(ctx context.Context, kind domain.EventKind, id, reportType string) {
	s.metrics.ReportsWritten.WithLabelValues(kind.String()).Inc()

	if err := s.cache.Invalidate(ctx, reportType); err != nil {
		log.Warn().Err(err).Str("type", reportType).Msg("failed to invalidate normalized cache")
	}

	ev := domain.ReportEvent{Kind: kind, ReportID: id, Type: reportType, At: s.now().UTC()}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.metrics.EventsFailed.Inc()
		log.Error().Err(err).Str("type", reportType).Str("id", id).Str("kind", kind.String()).Msg("failed to publish report event")
	}
}

// List returns every stored document of a type in the reports API shape.
func (s *ReportService) List(ctx context.Context, reportType string) ([]domain.RawReport, error) {
	t, err := NormalizeType(reportType)
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.ListByType(ctx, t)
	if err != nil {
		return nil, err
	}

	out := make([]domain.RawReport, 0, len(stored))
	for _, r := range stored {
		raw, err := r.Raw()
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

// Normalized returns the deduplicated, normalized view of a type, newest
// report date first.
func (s *ReportService) Normalized(ctx context.Context, reportType string) ([]domain.NormalizedRecord, error) {
	t, err := NormalizeType(reportType)
	if err != nil {
		return nil, err
	}

	entry, cacheErr := s.cache.Get(ctx, t)
	if cacheErr != nil {
		log.Warn().Err(cacheErr).Str("type", t).Msg("normalized cache read failed")
	}
	if entry.Hit {
		s.metrics.CacheHits.Inc()
		return entry.Records, nil
	}
	s.metrics.CacheMisses.Inc()

	start := time.Now()
	res, err := reports.FetchAndNormalizeWithStats(ctx, s, t)
	if err != nil {
		return nil, err
	}
	reports.SortByReportDate(res.Records, true)

	s.metrics.NormalizeDuration.WithLabelValues(t).Observe(time.Since(start).Seconds())
	s.metrics.DedupInput.WithLabelValues(t).Add(float64(res.Stats.Input))
	s.metrics.DedupDropped.WithLabelValues(t).Add(float64(res.Stats.Dropped))
	log.Debug().
		Str("type", t).
		Int("input", res.Stats.Input).
		Int("dropped", res.Stats.Dropped).
		Msg("normalized reports")

	// Without a known generation the view could outlive a later write.
	if cacheErr == nil {
		if err := s.cache.Set(ctx, t, entry.Version, res.Records); err != nil {
			log.Warn().Err(err).Str("type", t).Msg("normalized cache write failed")
		}
	}

	return res.Records, nil
}

func (s *ReportService) Types(ctx context.Context) ([]string, error) {
	return s.repo.ListTypes(ctx)
}
