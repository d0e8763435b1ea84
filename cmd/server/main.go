// backend-go/cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/api"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/app"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/config"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/ingest"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/pkg/logger"
)

func main() {
	cfg := config.Load()

	level := cfg.Server.LogLevel
	if level == "" {
		level = cfg.Server.Mode
	}
	logger.SetLevel(level)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to open report store")
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Log.Error().Err(err).Msg("Failed to close report store")
		}
	}()

	router := api.NewRouter(&api.Services{
		Reports:  a.Reports,
		Importer: ingest.NewImporter(a.Reports, 0),
		Metrics:  a.Metrics,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Str("driver", cfg.Database.Driver).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error().Err(err).Msg("Failed to start server")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Log.Info().Msg("Shutting down server...")

	// Give in-flight requests 5 seconds to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Server forced to shutdown")
		os.Exit(1)
	}

	logger.Log.Info().Msg("Server exiting")
}
