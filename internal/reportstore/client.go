// Package reportstore talks to a remote reports API, such as the one the
// QC forms post to.
package reportstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/domain"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/reports"
)

const (
	reportsPath    = "/api/reports"
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 4 << 10
)

// listKeys are the envelope keys a list response may wrap its array in.
var listKeys = []string{"data", "reports", "items"}

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("reports api returned %d", e.StatusCode)
	}
	return fmt.Sprintf("reports api returned %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

var _ reports.Lister = (*Client)(nil)

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// List fetches every document of reportType.
func (c *Client) List(ctx context.Context, reportType string) ([]domain.RawReport, error) {
	u := strings.TrimRight(c.BaseURL, "/") + reportsPath + "?" + url.Values{"type": {reportType}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return decodeList(body)
}

// Create posts a new report and returns the stored document. A non-nil
// createdAt keeps the original submission time.
func (c *Client) Create(ctx context.Context, reportType, reporter string, payload json.RawMessage, createdAt *time.Time) (domain.RawReport, error) {
	in := map[string]any{
		"type":     reportType,
		"reporter": reporter,
		"payload":  payload,
	}
	if createdAt != nil && !createdAt.IsZero() {
		in["createdAt"] = createdAt.UTC().Format(time.RFC3339Nano)
	}
	reqBody, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.BaseURL, "/")+reportsPath, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var resp map[string]any
	if err := decode(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode create response: %w", err)
	}
	if report, ok := resp["report"].(map[string]any); ok {
		return domain.RawReport(report), nil
	}
	return domain.RawReport(resp), nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

func decode(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(v)
}

// decodeList accepts a bare array or an object wrapping one.
func decodeList(body []byte) ([]domain.RawReport, error) {
	var v any
	if err := decode(body, &v); err != nil {
		return nil, fmt.Errorf("failed to decode reports: %w", err)
	}

	items, ok := v.([]any)
	if obj, isObj := v.(map[string]any); isObj {
		for _, key := range listKeys {
			if items, ok = obj[key].([]any); ok {
				break
			}
		}
	}
	if !ok {
		return nil, fmt.Errorf("unexpected reports response of type %T", v)
	}

	out := make([]domain.RawReport, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, domain.RawReport(obj))
		}
	}
	return out, nil
}
