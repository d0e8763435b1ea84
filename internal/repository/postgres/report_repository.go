package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/domain"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/repository"
)

type reportRepository struct {
	db *DB
}

func NewReportRepository(db *DB) *reportRepository {
	return &reportRepository{db: db}
}

var _ repository.ReportRepository = (*reportRepository)(nil)

// reportRow reads payload as text; jsonb bytes from the driver are reused
// between rows.
type reportRow struct {
	ID        string    `db:"id"`
	Type      string    `db:"type"`
	Reporter  string    `db:"reporter"`
	Payload   string    `db:"payload"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r reportRow) toDomain() *domain.Report {
	return &domain.Report{
		ID:        r.ID,
		Type:      r.Type,
		Reporter:  r.Reporter,
		Payload:   json.RawMessage(r.Payload),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

const selectReport = `
	SELECT id::text AS id, type, reporter, payload::text AS payload, created_at, updated_at
	FROM reports
`

func (r *reportRepository) Create(ctx context.Context, report *domain.Report) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO reports (id, type, reporter, payload, created_at, updated_at)
			VALUES ($1, $2, $3, $4::jsonb, $5, $6)
		`
		_, err := tx.ExecContext(ctx, query,
			report.ID,
			report.Type,
			report.Reporter,
			string(report.Payload),
			report.CreatedAt,
			report.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert report: %w", err)
		}
		return nil
	})
}

// parseID rejects ids that cannot be a stored uuid, which would otherwise
// fail the cast in the query.
func parseID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", repository.ErrNotFound
	}
	return parsed.String(), nil
}

func (r *reportRepository) Get(ctx context.Context, id string) (*domain.Report, error) {
	id, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var row reportRow
	err = sqlx.GetContext(ctx, r.db, &row, selectReport+` WHERE id = $1::uuid`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return row.toDomain(), nil
}

func (r *reportRepository) ListByType(ctx context.Context, reportType string) ([]*domain.Report, error) {
	var rows []reportRow
	err := sqlx.SelectContext(ctx, r.db, &rows, selectReport+` WHERE type = $1 ORDER BY created_at ASC, id ASC`, reportType)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	reports := make([]*domain.Report, 0, len(rows))
	for _, row := range rows {
		reports = append(reports, row.toDomain())
	}
	return reports, nil
}

func (r *reportRepository) Update(ctx context.Context, id string, payload json.RawMessage) (*domain.Report, error) {
	id, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var updated reportRow
	err = r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE reports SET payload = $2::jsonb, updated_at = NOW()
			WHERE id = $1::uuid
			RETURNING id::text, type, reporter, payload::text, created_at, updated_at
		`
		err := tx.QueryRowContext(ctx, query, id, string(payload)).Scan(
			&updated.ID,
			&updated.Type,
			&updated.Reporter,
			&updated.Payload,
			&updated.CreatedAt,
			&updated.UpdatedAt,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to update report: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated.toDomain(), nil
}

func (r *reportRepository) Delete(ctx context.Context, id string) error {
	id, err := parseID(id)
	if err != nil {
		return err
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM reports WHERE id = $1::uuid`, id)
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
	})
}

func (r *reportRepository) ListTypes(ctx context.Context) ([]string, error) {
	var types []string
	if err := r.db.SelectContext(ctx, &types, `SELECT DISTINCT type FROM reports ORDER BY type`); err != nil {
		return nil, fmt.Errorf("failed to list report types: %w", err)
	}
	return types, nil
}
