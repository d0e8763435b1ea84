// Package export renders normalized report records as CSV or XLSX tables.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/domain"
)

// Columns is the fixed header of every export.
var Columns = []string{
	"Report Date",
	"Supplier",
	"Shipment Type",
	"Invoice No",
	"AWB",
	"Status",
	"Total Qty",
	"Total Weight (kg)",
	"Slaughter Date",
	"Expiry Date",
	"Created At",
	"ID",
}

const (
	qtyColumn    = 6
	weightColumn = 7

	// Excel rejects longer sheet names.
	maxSheetName = 31
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" and "xlsx"; empty means csv.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// Write renders records in the given format.
func Write(w io.Writer, format Format, sheet string, records []domain.NormalizedRecord) error {
	if format == FormatXLSX {
		return WriteXLSX(w, sheet, records)
	}
	return WriteCSV(w, records)
}

func row(r domain.NormalizedRecord) []string {
	return []string{
		r.ReportDate,
		r.Supplier,
		r.ShipmentType,
		r.InvoiceNo,
		r.AWB,
		r.Status,
		r.TotalQty.String(),
		r.TotalWeightKg.String(),
		r.SlaughterDate,
		r.ExpiryDate,
		r.CreatedAt,
		r.ID,
	}
}

// Totals sums the numeric quantities and weights. Free-text quantities are
// skipped.
func Totals(records []domain.NormalizedRecord) (qty, weight decimal.Decimal) {
	for _, r := range records {
		if d, ok := r.TotalQty.Decimal(); ok {
			qty = qty.Add(d)
		}
		if d, ok := r.TotalWeightKg.Decimal(); ok {
			weight = weight.Add(d)
		}
	}
	return qty, weight
}

func WriteCSV(w io.Writer, records []domain.NormalizedRecord) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Columns); err != nil {
		return err
	}
	for _, r := range records {
		if err := writer.Write(row(r)); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteXLSX writes records to a single-sheet workbook. Date columns are
// string cells so month values such as 2024-07 stay months; numeric
// quantities are number cells and a totals row closes the table.
func WriteXLSX(w io.Writer, sheet string, records []domain.NormalizedRecord) error {
	if sheet == "" {
		sheet = "Reports"
	}
	if len(sheet) > maxSheetName {
		sheet = sheet[:maxSheetName]
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range records {
		cells := make([]any, 0, len(Columns))
		for col, v := range row(r) {
			cells = append(cells, cellValue(col, v))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	qty, weight := Totals(records)
	totalsRow := len(records) + 2
	totals := make([]any, len(Columns))
	totals[0] = "Total"
	totals[qtyColumn] = qty.InexactFloat64()
	totals[weightColumn] = weight.InexactFloat64()
	cell, err := excelize.CoordinatesToCellName(1, totalsRow)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &totals); err != nil {
		return fmt.Errorf("failed to write totals: %w", err)
	}

	if err := styleSheet(f, sheet, totalsRow); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func cellValue(col int, v string) any {
	if col == qtyColumn || col == weightColumn {
		if d, ok := domain.Quantity(v).Decimal(); ok {
			return d.InexactFloat64()
		}
	}
	return v
}

func styleSheet(f *excelize.File, sheet string, totalsRow int) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	last, err := excelize.ColumnNumberToName(len(Columns))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", totalsRow), fmt.Sprintf("%s%d", last, totalsRow), bold); err != nil {
		return fmt.Errorf("failed to style totals: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", last, 18); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}
