package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/app"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/config"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/drive"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/ingest"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/pkg/logger"
)

// Drive import API. Runs next to the main server and writes into the same
// report store.
func main() {
	cfg := config.Load()
	logger.SetLevel(cfg.Server.Mode)
	ctx := context.Background()

	if cfg.Drive.CredentialsJSON == "" {
		logger.Log.Fatal().Msg("GOOGLE_DRIVE_CREDENTIALS_JSON is required")
	}
	driveService, err := drive.NewService(ctx, cfg.Drive.CredentialsJSON)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize Google Drive service")
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to open report store")
	}
	defer a.Close()

	ingestService := drive.NewIngestService(driveService, ingest.NewImporter(a.Reports, 0))

	r := mux.NewRouter()
	drive.NewHandler(driveService, ingestService).RegisterRoutes(r)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "status": "healthy"})
	}).Methods("GET")
	r.Handle("/metrics", a.Metrics.Handler()).Methods("GET")

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Log.Info().Str("addr", addr).Str("folder", cfg.Drive.FolderID).Msg("Drive API starting")
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Log.Fatal().Err(err).Msg("Drive API stopped")
	}
}
