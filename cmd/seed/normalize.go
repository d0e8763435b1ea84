package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/config"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/dedup"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/domain"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/export"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/ingest"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/reports"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/storage"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/pkg/logger"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	okColor     = color.New(color.FgGreen)
	warnColor   = color.New(color.FgYellow)
)

func fetch(c *cli.Context) (reports.Result, error) {
	lister, done, err := openLister(c)
	if err != nil {
		return reports.Result{}, err
	}
	defer done()

	res, err := reports.FetchAndNormalizeWithStats(c.Context, lister, c.String("type"))
	if err != nil {
		return reports.Result{}, err
	}
	reports.SortByReportDate(res.Records, true)
	return res, nil
}

func runNormalize(c *cli.Context) error {
	res, err := fetch(c)
	if err != nil {
		return err
	}

	w := c.App.Writer
	if c.Bool("json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Records)
	}

	printDedupStats(w, c.String("type"), res.Stats)
	printRecords(w, res.Records, c.Int("limit"))
	return nil
}

func runExport(c *cli.Context) error {
	format, err := export.ParseFormat(c.String("format"))
	if err != nil {
		return err
	}

	res, err := fetch(c)
	if err != nil {
		return err
	}

	reportType := c.String("type")
	var buf bytes.Buffer
	if err := export.Write(&buf, format, reportType, res.Records); err != nil {
		return err
	}

	cfg := config.Load()
	out := c.String("out")
	if out == "" {
		name := fmt.Sprintf("%s-%s.%s", reportType, time.Now().UTC().Format("20060102-150405"), format)
		out = filepath.Join(cfg.App.ExportDir, name)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	okColor.Fprintf(c.App.Writer, "wrote %d records to %s\n", len(res.Records), out)

	if !c.Bool("upload") {
		return nil
	}
	store, err := storage.NewMinioClient(cfg.Storage)
	if err != nil {
		return err
	}
	key := exportKey(cfg.Storage.ExportPrefix, filepath.Base(out))
	if err := store.UploadObject(c.Context, key, buf.Bytes(), format.ContentType()); err != nil {
		return err
	}
	logger.Log.Info().Str("bucket", cfg.Storage.Bucket).Str("key", key).Msg("uploaded export")
	okColor.Fprintf(c.App.Writer, "uploaded to %s/%s\n", cfg.Storage.Bucket, key)
	return nil
}

func printSummary(w io.Writer, sum ingest.Summary) {
	headerColor.Fprintln(w, "Import summary")
	fmt.Fprintf(w, "  files:   %d\n", sum.Files)
	okColor.Fprintf(w, "  created: %d\n", sum.Created)
	if sum.Failed > 0 {
		warnColor.Fprintf(w, "  skipped: %d\n", sum.Failed)
	}
}

func printDedupStats(w io.Writer, reportType string, stats dedup.Stats) {
	headerColor.Fprintf(w, "%s\n", reportType)
	fmt.Fprintf(w, "  documents: %d\n", stats.Input)
	okColor.Fprintf(w, "  shipments: %d\n", stats.Output)
	if stats.Dropped > 0 {
		warnColor.Fprintf(w, "  duplicates dropped: %d\n", stats.Dropped)
	}
	fmt.Fprintln(w)
}

func printRecords(w io.Writer, records []domain.NormalizedRecord, limit int) {
	if limit <= 0 || limit > len(records) {
		limit = len(records)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "REPORT DATE\tSUPPLIER\tINVOICE\tAWB\tSTATUS\tQTY\tWEIGHT\tSLAUGHTER\tEXPIRY")
	for _, r := range records[:limit] {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ReportDate, r.Supplier, r.InvoiceNo, r.AWB, r.Status,
			r.TotalQty, r.TotalWeightKg, r.SlaughterDate, r.ExpiryDate)
	}
	tw.Flush()

	if limit < len(records) {
		warnColor.Fprintf(w, "... %d more\n", len(records)-limit)
	}
}
