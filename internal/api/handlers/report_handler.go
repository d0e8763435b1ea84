// backend-go/internal/api/handlers/report_handler.go
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/export"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/ingest"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/repository"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/service"
)

type ReportHandler struct {
	reports  *service.ReportService
	importer *ingest.Importer
}

// NewReportHandler builds the handler. importer may be nil, which disables
// the upload route.
func NewReportHandler(reports *service.ReportService, importer *ingest.Importer) *ReportHandler {
	return &ReportHandler{reports: reports, importer: importer}
}

type updateReportRequest struct {
	Payload json.RawMessage `json:"payload"`
}

func fail(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": verr.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "report not found"})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": msg})
}

// CreateReport stores a new report document.
func (h *ReportHandler) CreateReport(c *gin.Context) {
	var in service.CreateReportInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}

	report, err := h.reports.Create(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	raw, err := report.Raw()
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "report": raw})
}

// ListReports returns every document of ?type= in the stored shape.
func (h *ReportHandler) ListReports(c *gin.Context) {
	data, err := h.reports.List(c.Request.Context(), c.Query("type"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": data})
}

func (h *ReportHandler) ListTypes(c *gin.Context) {
	types, err := h.reports.Types(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	if types == nil {
		types = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": types})
}

func (h *ReportHandler) GetReport(c *gin.Context) {
	report, err := h.reports.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	raw, err := report.Raw()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "report": raw})
}

func (h *ReportHandler) UpdateReport(c *gin.Context) {
	var in updateReportRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}

	report, err := h.reports.Update(c.Request.Context(), c.Param("id"), in.Payload)
	if err != nil {
		fail(c, err)
		return
	}
	raw, err := report.Raw()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "report": raw})
}

func (h *ReportHandler) DeleteReport(c *gin.Context) {
	if err := h.reports.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GetNormalized returns the deduplicated shipment view of ?type=.
func (h *ReportHandler) GetNormalized(c *gin.Context) {
	records, err := h.reports.Normalized(c.Request.Context(), c.Query("type"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": records})
}

// ExportNormalized streams the normalized view as a CSV or XLSX attachment.
func (h *ReportHandler) ExportNormalized(c *gin.Context) {
	format, err := export.ParseFormat(c.DefaultQuery("format", "csv"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	reportType := c.Query("type")
	records, err := h.reports.Normalized(c.Request.Context(), reportType)
	if err != nil {
		fail(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, reportType, records); err != nil {
		fail(c, err)
		return
	}

	filename := fmt.Sprintf("%s-%s.%s", reportType, time.Now().UTC().Format("20060102"), format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// UploadReports imports uploaded JSON, CSV or XLSX files. ?type= applies to
// documents that carry no type of their own.
func (h *ReportHandler) UploadReports(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, "invalid form data")
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		badRequest(c, "no files provided")
		return
	}

	var total ingest.Summary
	for _, fh := range files {
		if !ingest.Supported(fh.Filename) {
			badRequest(c, fmt.Sprintf("unsupported file %s", fh.Filename))
			return
		}

		f, err := fh.Open()
		if err != nil {
			log.Error().Err(err).Str("filename", fh.Filename).Msg("failed to open uploaded file")
			badRequest(c, "failed to read "+fh.Filename)
			return
		}
		sum, err := h.importer.ImportReader(c.Request.Context(), fh.Filename, f, c.Query("type"))
		f.Close()

		total.Files += sum.Files
		total.Created += sum.Created
		total.Failed += sum.Failed
		if err != nil {
			fail(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "data": total})
}
