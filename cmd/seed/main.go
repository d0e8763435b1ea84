package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/app"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/config"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/ingest"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/reports"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/reportstore"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/repository/postgres"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/pkg/logger"
)

func newDBURLFlag(required bool) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Postgres connection string; the configured store is used when empty",
		Required: required,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newRemoteFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "remote",
		Usage:   "Base URL of a reports API to use instead of a local store",
		EnvVars: []string{"REPORTS_API_URL"},
	}
}

func newTypeFlag(required bool) *cli.StringFlag {
	usage := "Report type"
	if !required {
		usage = "Report type for documents that carry none"
	}
	return &cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: usage, Required: required}
}

func newConcurrencyFlag() *cli.IntFlag {
	return &cli.IntFlag{Name: "concurrency", Usage: "Reports created in parallel", Value: 8}
}

// openPostgres connects through the pgx stdlib driver and creates the schema.
func openPostgres(ctx context.Context, url string) (*postgres.DB, error) {
	db, err := sqlx.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pdb := postgres.Wrap(db)
	if err := pdb.Migrate(ctx); err != nil {
		pdb.Close()
		return nil, err
	}
	return pdb, nil
}

// openApp opens the store named by --db-url, or the configured one.
func openApp(c *cli.Context) (*app.App, error) {
	cfg := config.Load()
	if url := c.String("db-url"); url != "" {
		pdb, err := openPostgres(c.Context, url)
		if err != nil {
			return nil, err
		}
		return app.NewWithRepository(cfg, postgres.NewReportRepository(pdb), pdb), nil
	}
	return app.New(c.Context, cfg)
}

// openLister returns the remote API client when --remote is set, otherwise
// the local report service.
func openLister(c *cli.Context) (reports.Lister, func(), error) {
	if remote := c.String("remote"); remote != "" {
		return reportstore.NewClient(remote), func() {}, nil
	}
	a, err := openApp(c)
	if err != nil {
		return nil, nil, err
	}
	return a.Reports, func() { a.Close() }, nil
}

func openImporter(c *cli.Context) (*ingest.Importer, func(), error) {
	if remote := c.String("remote"); remote != "" {
		creator := remoteCreator{client: reportstore.NewClient(remote)}
		return ingest.NewImporter(creator, c.Int("concurrency")), func() {}, nil
	}
	a, err := openApp(c)
	if err != nil {
		return nil, nil, err
	}
	return ingest.NewImporter(a.Reports, c.Int("concurrency")), func() { a.Close() }, nil
}

func main() {
	cfg := config.Load()
	logger.SetLevel(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cliApp := &cli.App{
		Name:  "seed",
		Usage: "Load, normalize and export QC shipment reports",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Create the reports schema in Postgres",
				Flags:  []cli.Flag{newDBURLFlag(true)},
				Action: runMigrate,
			},
			{
				Name:  "import",
				Usage: "Import JSON, CSV and XLSX report files from a directory",
				Flags: []cli.Flag{
					newDBURLFlag(false),
					newRemoteFlag(),
					newTypeFlag(false),
					newConcurrencyFlag(),
					&cli.StringFlag{
						Name:    "dir",
						Usage:   "Directory containing report files",
						Value:   cfg.App.ImportDir,
						EnvVars: []string{"IMPORT_DIR"},
					},
				},
				Action: runImport,
			},
			{
				Name:  "import-s3",
				Usage: "Import report files from object storage",
				Flags: []cli.Flag{
					newDBURLFlag(false),
					newRemoteFlag(),
					newTypeFlag(false),
					newConcurrencyFlag(),
					&cli.StringFlag{Name: "prefix", Usage: "Object key prefix", Value: cfg.Storage.ImportPrefix},
					&cli.StringFlag{Name: "key", Usage: "Import a single object, relative to --prefix"},
					&cli.StringFlag{Name: "download-dir", Usage: "Keep local copies of the objects in this directory"},
				},
				Action: runImportObjects,
			},
			{
				Name:  "import-drive",
				Usage: "Import report files from a Google Drive folder",
				Flags: []cli.Flag{
					newDBURLFlag(false),
					newRemoteFlag(),
					newTypeFlag(false),
					newConcurrencyFlag(),
					&cli.StringFlag{Name: "folder", Usage: "Drive folder ID", Value: cfg.Drive.FolderID},
					&cli.StringFlag{Name: "path", Usage: "Drive folder path, e.g. qc/imports"},
					&cli.StringFlag{Name: "download-dir", Usage: "Directory for downloaded files", Value: "./data/tmp/drive"},
				},
				Action: runImportDrive,
			},
			{
				Name:  "normalize",
				Usage: "Print the deduplicated shipment view of a report type",
				Flags: []cli.Flag{
					newDBURLFlag(false),
					newRemoteFlag(),
					newTypeFlag(true),
					&cli.IntFlag{Name: "limit", Usage: "Rows to print, 0 for all", Value: 20},
					&cli.BoolFlag{Name: "json", Usage: "Print records as JSON"},
				},
				Action: runNormalize,
			},
			{
				Name:  "export",
				Usage: "Write the shipment view of a report type to CSV or XLSX",
				Flags: []cli.Flag{
					newDBURLFlag(false),
					newRemoteFlag(),
					newTypeFlag(true),
					&cli.StringFlag{Name: "format", Usage: "csv or xlsx", Value: "xlsx"},
					&cli.StringFlag{Name: "out", Usage: "Output file; defaults to the export dir"},
					&cli.BoolFlag{Name: "upload", Usage: "Upload the file to object storage"},
				},
				Action: runExport,
			},
		},
	}

	if err := cliApp.RunContext(ctx, os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("seed failed")
	}
}

func runMigrate(c *cli.Context) error {
	pdb, err := openPostgres(c.Context, c.String("db-url"))
	if err != nil {
		return err
	}
	defer pdb.Close()

	logger.Log.Info().Msg("reports schema is up to date")
	return nil
}
