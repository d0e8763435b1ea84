// Package app wires configuration into the report store, cache, event
// publisher and service shared by the binaries.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/cache"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/config"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/events"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/metrics"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/repository"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/repository/memory"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/repository/pebble"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/repository/postgres"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/repository/sqlite"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/service"
)

// App holds the long-lived dependencies of a process.
type App struct {
	Repo      repository.ReportRepository
	Reports   *service.ReportService
	Metrics   *metrics.Registry
	publisher events.Publisher
	closers   []io.Closer
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// OpenRepository opens the store selected by cfg.Driver and creates its
// schema. The returned closer releases it.
func OpenRepository(ctx context.Context, cfg *config.DatabaseConfig) (repository.ReportRepository, io.Closer, error) {
	switch cfg.Driver {
	case "", "postgres":
		db, err := postgres.NewDB(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgres.NewReportRepository(db), db, nil

	case "sqlite":
		if cfg.SQLitePath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
				return nil, nil, fmt.Errorf("failed to create sqlite dir: %w", err)
			}
		}
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return sqlite.NewReportRepository(db), db, nil

	case "pebble":
		repo, err := pebble.Open(cfg.PebbleDir)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo, nil

	case "memory":
		return memory.NewReportRepository(), closerFunc(func() error { return nil }), nil
	}
	return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

// New opens the repository and builds the report service around it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	repo, closer, err := OpenRepository(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	return NewWithRepository(cfg, repo, closer), nil
}

// NewWithRepository builds the service around an already open repository.
// A cache that cannot be reached is logged and replaced by the noop cache.
func NewWithRepository(cfg *config.Config, repo repository.ReportRepository, closer io.Closer) *App {
	normalizedCache, err := cache.NewNormalizedCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("normalized cache disabled")
		normalizedCache = cache.NewNoopNormalizedCache()
	}

	publisher := events.New(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	reg := metrics.NewRegistry()

	a := &App{
		Repo:      repo,
		Reports:   service.NewReportService(repo, normalizedCache, publisher, reg),
		Metrics:   reg,
		publisher: publisher,
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	log.Info().
		Str("driver", cfg.Database.Driver).
		Bool("cache", cfg.Cache.Enabled).
		Int("kafka_brokers", len(cfg.Kafka.Brokers)).
		Msg("report service ready")
	return a
}

// Close flushes the publisher and releases the repository.
func (a *App) Close() error {
	var firstErr error
	if err := a.publisher.Close(); err != nil {
		firstErr = err
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
