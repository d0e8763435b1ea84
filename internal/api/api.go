// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/api/handlers"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/api/middleware"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/ingest"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/metrics"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/service"
)

type Services struct {
	Reports  *service.ReportService
	Importer *ingest.Importer
	Metrics  *metrics.Registry
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "status": "healthy"})
	})

	if services == nil {
		return router
	}

	if services.Metrics != nil {
		router.GET("/metrics", gin.WrapH(services.Metrics.Handler()))
	}

	if services.Reports != nil {
		reportHandler := handlers.NewReportHandler(services.Reports, services.Importer)
		reportGroup := router.Group("/api/reports")
		{
			reportGroup.POST("", reportHandler.CreateReport)
			reportGroup.GET("", reportHandler.ListReports)
			reportGroup.GET("/types", reportHandler.ListTypes)
			reportGroup.GET("/normalized", reportHandler.GetNormalized)
			reportGroup.GET("/export", reportHandler.ExportNormalized)
			reportGroup.GET("/:id", reportHandler.GetReport)
			reportGroup.PUT("/:id", reportHandler.UpdateReport)
			reportGroup.DELETE("/:id", reportHandler.DeleteReport)

			if services.Importer != nil {
				reportGroup.POST("/import", reportHandler.UploadReports)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
