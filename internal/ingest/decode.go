// Package ingest bulk-loads report documents exported from the forms or
// kept in spreadsheets at the branches.
package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/normalize"
)

// Document is one report waiting to be stored. Type and Reporter are empty
// when the source does not carry them.
type Document struct {
	Type      string
	Reporter  string
	Payload   json.RawMessage
	CreatedAt *time.Time
}

// ErrUnsupported is returned for files DecodeFile cannot read.
var ErrUnsupported = errors.New("unsupported file type")

// listKeys are the envelope keys API dumps wrap their report arrays in.
var listKeys = []string{"data", "reports", "items"}

// DecodeFile picks a decoder from the file extension.
func DecodeFile(name string, r io.Reader) ([]Document, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return DecodeCSV(r)
	case ".xlsx":
		return DecodeSheet(r)
	case ".json", ".ndjson", ".jsonl", "":
		return DecodeDocuments(r)
	}
	return nil, fmt.Errorf("%w %q", ErrUnsupported, filepath.Ext(name))
}

// Supported reports whether DecodeFile can read a file name.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx", ".json", ".ndjson", ".jsonl":
		return true
	}
	return false
}

// DecodeDocuments reads a JSON array of reports, a single report, an
// envelope such as {"data": [...]}, or newline-delimited reports.
func DecodeDocuments(r io.Reader) ([]Document, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var docs []Document
	for {
		var v any
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode documents: %w", err)
		}

		decoded, err := documentsIn(v)
		if err != nil {
			return nil, err
		}
		docs = append(docs, decoded...)
	}
	return docs, nil
}

func documentsIn(v any) ([]Document, error) {
	switch t := v.(type) {
	case []any:
		docs := make([]Document, 0, len(t))
		for i, item := range t {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("element %d is not an object", i)
			}
			doc, err := documentFrom(obj)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
		return docs, nil
	case map[string]any:
		if _, hasPayload := t["payload"]; !hasPayload {
			for _, key := range listKeys {
				if list, ok := t[key].([]any); ok {
					return documentsIn(list)
				}
			}
		}
		doc, err := documentFrom(t)
		if err != nil {
			return nil, err
		}
		return []Document{doc}, nil
	}
	return nil, fmt.Errorf("unexpected JSON value %T", v)
}

// documentFrom accepts the reports API shape {type, reporter, payload,
// createdAt} as well as a flattened form, which is stored whole.
func documentFrom(obj map[string]any) (Document, error) {
	doc := Document{
		Type:     stringField(obj, "type"),
		Reporter: stringField(obj, "reporter"),
	}
	if v, ok := obj["createdAt"]; ok {
		if ts, ok := normalize.ParseTimestamp(v); ok {
			ts = ts.UTC()
			doc.CreatedAt = &ts
		}
	}

	body := any(obj)
	if payload, ok := obj["payload"]; ok {
		body = payload
	}
	if s, ok := body.(string); ok {
		body = json.RawMessage(s)
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return Document{}, fmt.Errorf("failed to encode payload: %w", err)
	}
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		return Document{}, fmt.Errorf("payload is not an object")
	}
	doc.Payload = raw
	return doc, nil
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return strings.TrimSpace(s)
}

// DecodeCSV reads a sheet exported as CSV: the header row names the payload
// fields and every following row is one flattened report.
func DecodeCSV(r io.Reader) ([]Document, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		rows = append(rows, record)
	}
	return documentsFromRows(header, rows)
}

// DecodeSheet reads the first sheet of a workbook the same way as DecodeCSV.
func DecodeSheet(r io.Reader) ([]Document, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx file has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	var header []string
	var records [][]string
	for rows.Next() {
		record, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read row from sheet %s: %w", sheet, err)
		}
		if header == nil {
			header = record
			continue
		}
		records = append(records, record)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("error iterating rows in sheet %s: %w", sheet, err)
	}
	if header == nil {
		return nil, nil
	}
	return documentsFromRows(header, records)
}

func documentsFromRows(header []string, rows [][]string) ([]Document, error) {
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(h)
	}

	docs := make([]Document, 0, len(rows))
	for _, record := range rows {
		obj := make(map[string]any, len(cols))
		for i, col := range cols {
			if col == "" || i >= len(record) {
				continue
			}
			if v := strings.TrimSpace(record[i]); v != "" {
				obj[col] = v
			}
		}
		if len(obj) == 0 {
			continue
		}
		doc, err := documentFrom(obj)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
