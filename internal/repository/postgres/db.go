package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/config"
)

type DB struct {
	*sqlx.DB
	sem *semaphore.Weighted
}

var (
	dbInstance *DB
	once       sync.Once
)

// DSN builds a lib/pq connection string from the database settings.
func DSN(cfg *config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// NewDB creates a new database connection pool
func NewDB(cfg *config.DatabaseConfig) (*DB, error) {
	var err error
	once.Do(func() {
		var db *sqlx.DB
		db, err = sqlx.Connect("postgres", DSN(cfg))
		if err != nil {
			return
		}

		dbInstance = Wrap(db)
	})

	return dbInstance, err
}

// Wrap configures the pool of an open connection. The CLI uses it with a
// pgx stdlib connection.
func Wrap(db *sqlx.DB) *DB {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Limit concurrent write transactions
	return &DB{
		DB:  db,
		sem: semaphore.NewWeighted(10),
	}
}

// WithTx executes a function within a transaction
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if err := db.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("could not acquire semaphore: %w", err)
	}
	defer db.sem.Release(1)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	if err := fn(tx.Tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("could not rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	id         UUID PRIMARY KEY,
	type       TEXT NOT NULL,
	reporter   TEXT NOT NULL DEFAULT '',
	payload    JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_reports_type_created ON reports (type, created_at, id);
`

// Migrate creates the reports table and its indexes.
func (db *DB) Migrate(ctx context.Context) error {
	return db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("failed to create reports schema: %w", err)
		}
		return nil
	})
}
