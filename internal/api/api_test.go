package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/ingest"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/metrics"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/repository/memory"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	OK     bool            `json:"ok"`
	Error  string          `json:"error"`
	Data   json.RawMessage `json:"data"`
	Report map[string]any  `json:"report"`
}

func newTestRouter() *gin.Engine {
	svc := service.NewReportService(memory.NewReportRepository(), nil, nil, nil)
	return NewRouter(&Services{
		Reports:  svc,
		Importer: ingest.NewImporter(svc, 2),
		Metrics:  metrics.NewRegistry(),
	}, nil)
}

func do(t *testing.T, router http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func TestHealth(t *testing.T) {
	rec, env := do(t, newTestRouter(), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || !env.OK {
		t.Fatalf("health = %d %s", rec.Code, rec.Body.String())
	}
}

func TestReportLifecycle(t *testing.T) {
	router := newTestRouter()

	rec, env := do(t, router, http.MethodPost, "/api/reports",
		`{"type":"qcs_raw_material","reporter":"sam","payload":{"header":{"invoiceNo":"INV-1"}}}`)
	if rec.Code != http.StatusCreated || !env.OK {
		t.Fatalf("create = %d %s", rec.Code, rec.Body.String())
	}
	id, _ := env.Report["_id"].(string)
	if id == "" {
		t.Fatalf("created report has no id: %v", env.Report)
	}

	rec, env = do(t, router, http.MethodGet, "/api/reports/"+id, "")
	if rec.Code != http.StatusOK || env.Report["type"] != "qcs_raw_material" {
		t.Fatalf("get = %d %s", rec.Code, rec.Body.String())
	}

	rec, _ = do(t, router, http.MethodPut, "/api/reports/"+id, `{"payload":{"header":{"invoiceNo":"INV-2"}}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update = %d %s", rec.Code, rec.Body.String())
	}

	rec, env = do(t, router, http.MethodGet, "/api/reports/normalized?type=qcs_raw_material", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("normalized = %d %s", rec.Code, rec.Body.String())
	}
	var records []map[string]any
	if err := json.Unmarshal(env.Data, &records); err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0]["invoiceNo"] != "INV-2" {
		t.Errorf("normalized = %v", records)
	}

	rec, env = do(t, router, http.MethodGet, "/api/reports/types", "")
	var types []string
	if err := json.Unmarshal(env.Data, &types); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(types, []string{"qcs_raw_material"}) {
		t.Errorf("types = %v", types)
	}

	rec, _ = do(t, router, http.MethodDelete, "/api/reports/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete = %d", rec.Code)
	}

	rec, env = do(t, router, http.MethodGet, "/api/reports/"+id, "")
	if rec.Code != http.StatusNotFound || env.OK {
		t.Errorf("get after delete = %d %s", rec.Code, rec.Body.String())
	}
}

func TestErrorResponses(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
	}{
		{"list without type", http.MethodGet, "/api/reports", "", http.StatusBadRequest},
		{"bad type", http.MethodPost, "/api/reports", `{"type":"Bad Type","payload":{}}`, http.StatusBadRequest},
		{"array payload", http.MethodPost, "/api/reports", `{"type":"t","payload":[1]}`, http.StatusBadRequest},
		{"broken body", http.MethodPost, "/api/reports", `{"type":`, http.StatusBadRequest},
		{"missing report", http.MethodGet, "/api/reports/nope", "", http.StatusNotFound},
		{"update missing", http.MethodPut, "/api/reports/nope", `{"payload":{}}`, http.StatusNotFound},
		{"delete missing", http.MethodDelete, "/api/reports/nope", "", http.StatusNotFound},
		{"bad export format", http.MethodGet, "/api/reports/export?type=t&format=pdf", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, router, tt.method, tt.target, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if env.OK || env.Error == "" {
				t.Errorf("body = %s, want ok:false with error", rec.Body.String())
			}
		})
	}
}

func TestListReturnsEmptyArray(t *testing.T) {
	rec, env := do(t, newTestRouter(), http.MethodGet, "/api/reports?type=qcs_temp", "")
	if rec.Code != http.StatusOK || string(env.Data) != "[]" {
		t.Errorf("list = %d %s", rec.Code, rec.Body.String())
	}
}

func TestExportCSV(t *testing.T) {
	router := newTestRouter()
	do(t, router, http.MethodPost, "/api/reports", `{"type":"qcs_temp","payload":{"supplier":"Farm","totalQty":"3"}}`)

	rec, _ := do(t, router, http.MethodGet, "/api/reports/export?type=qcs_temp&format=csv", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export = %d %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "qcs_temp-") || !strings.Contains(cd, ".csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.Contains(rec.Body.String(), "Farm") {
		t.Errorf("csv = %s", rec.Body.String())
	}
}

func TestUploadReports(t *testing.T) {
	router := newTestRouter()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("files", "receiving.json")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte(`[{"payload":{"invoiceNo":"A"}},{"payload":{"invoiceNo":"B"}}]`))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/reports/import?type=qcs_raw_material", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("upload = %d %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"created":2`) {
		t.Errorf("body = %s", rec.Body.String())
	}

	_, env := do(t, router, http.MethodGet, "/api/reports?type=qcs_raw_material", "")
	var listed []map[string]any
	if err := json.Unmarshal(env.Data, &listed); err != nil {
		t.Fatal(err)
	}
	if len(listed) != 2 {
		t.Errorf("listed %d reports, want 2", len(listed))
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter()
	do(t, router, http.MethodGet, "/api/reports/normalized?type=qcs_temp", "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "qc_cache_misses_total") {
		t.Errorf("metrics = %d %s", rec.Code, rec.Body.String())
	}
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	got, all := normalizeAllowedOrigins([]string{"https://a.example, https://b.example", " ", "*"})
	if !all || !reflect.DeepEqual(got, []string{"https://a.example", "https://b.example"}) {
		t.Errorf("normalizeAllowedOrigins() = %v, %v", got, all)
	}
}
