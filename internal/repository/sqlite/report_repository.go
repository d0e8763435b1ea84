// Package sqlite stores reports in a local SQLite file for branch
// deployments without a database server.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/domain"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	id         TEXT PRIMARY KEY,
	type       TEXT NOT NULL,
	reporter   TEXT NOT NULL DEFAULT '',
	payload    TEXT NOT NULL DEFAULT '{}',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_type_created ON reports (type, created_at, id);
`

// Open opens (or creates) the database at path and applies the schema. Use
// ":memory:" for a throwaway store.
func Open(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection keeps :memory: databases shared and serializes
	// writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sqlite schema: %w", err)
	}
	return db, nil
}

// ReportRepository implements repository.ReportRepository with SQLite.
// Timestamps are stored as Unix nanoseconds.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new SQLite report repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

var _ repository.ReportRepository = (*ReportRepository)(nil)

type reportRow struct {
	ID        string `db:"id"`
	Type      string `db:"type"`
	Reporter  string `db:"reporter"`
	Payload   string `db:"payload"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt int64  `db:"updated_at"`
}

func (r reportRow) toDomain() *domain.Report {
	return &domain.Report{
		ID:        r.ID,
		Type:      r.Type,
		Reporter:  r.Reporter,
		Payload:   json.RawMessage(r.Payload),
		CreatedAt: time.Unix(0, r.CreatedAt).UTC(),
		UpdatedAt: time.Unix(0, r.UpdatedAt).UTC(),
	}
}

const selectReport = `SELECT id, type, reporter, payload, created_at, updated_at FROM reports`

// Create persists a new report.
func (r *ReportRepository) Create(ctx context.Context, report *domain.Report) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO reports (id, type, reporter, payload, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		report.ID, report.Type, report.Reporter, string(report.Payload),
		report.CreatedAt.UnixNano(), report.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

// Get retrieves a report by its ID.
func (r *ReportRepository) Get(ctx context.Context, id string) (*domain.Report, error) {
	var row reportRow
	err := r.db.GetContext(ctx, &row, selectReport+" WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return row.toDomain(), nil
}

// ListByType returns all reports of a type, oldest first.
func (r *ReportRepository) ListByType(ctx context.Context, reportType string) ([]*domain.Report, error) {
	var rows []reportRow
	if err := r.db.SelectContext(ctx, &rows, selectReport+" WHERE type = ? ORDER BY created_at, id", reportType); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	reports := make([]*domain.Report, 0, len(rows))
	for _, row := range rows {
		reports = append(reports, row.toDomain())
	}
	return reports, nil
}

// Update replaces the payload of a report.
func (r *ReportRepository) Update(ctx context.Context, id string, payload json.RawMessage) (*domain.Report, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE reports SET payload = ?, updated_at = ? WHERE id = ?",
		string(payload), time.Now().UTC().UnixNano(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update report: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("failed to update report: %w", err)
	} else if n == 0 {
		return nil, repository.ErrNotFound
	}
	return r.Get(ctx, id)
}

// Delete removes a report.
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM reports WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListTypes returns the distinct report types in ascending order.
func (r *ReportRepository) ListTypes(ctx context.Context) ([]string, error) {
	var types []string
	if err := r.db.SelectContext(ctx, &types, "SELECT DISTINCT type FROM reports ORDER BY type"); err != nil {
		return nil, fmt.Errorf("failed to list report types: %w", err)
	}
	return types, nil
}
