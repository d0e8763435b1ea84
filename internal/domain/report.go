// backend-go/internal/domain/report.go
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// RawReport is a report document as returned by the reports store. Its
// contents depend on the form that produced it; numbers are decoded as
// json.Number.
type RawReport map[string]any

// Report is a stored report document.
type Report struct {
	ID        string          `json:"id" db:"id"`
	Type      string          `json:"type" db:"type"`
	Reporter  string          `json:"reporter" db:"reporter"`
	Payload   json.RawMessage `json:"payload" db:"payload"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
}

// Raw converts a stored report into the document shape served by the
// reports API.
func (r *Report) Raw() (RawReport, error) {
	payload, err := DecodeObject(r.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload of report %s: %w", r.ID, err)
	}

	return RawReport{
		"_id":       r.ID,
		"id":        r.ID,
		"type":      r.Type,
		"reporter":  r.Reporter,
		"payload":   payload,
		"createdAt": r.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updatedAt": r.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

// DecodeObject decodes a JSON object keeping numbers as json.Number. An
// empty or null document decodes to an empty map.
func DecodeObject(data []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// NormalizedRecord is the flat view of a shipment report used by report
// tables and exports. All fields are always set.
type NormalizedRecord struct {
	ID            string   `json:"id"`
	CreatedAt     string   `json:"createdAt"`
	ReportDate    string   `json:"reportDate"`
	Supplier      string   `json:"supplier"`
	ShipmentType  string   `json:"shipmentType"`
	InvoiceNo     string   `json:"invoiceNo"`
	AWB           string   `json:"awb"`
	Status        string   `json:"status"`
	TotalQty      Quantity `json:"totalQty"`
	TotalWeightKg Quantity `json:"totalWeightKg"`
	SlaughterDate string   `json:"slaughterDate"`
	ExpiryDate    string   `json:"expiryDate"`
}
