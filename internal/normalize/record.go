package normalize

import (
	"strings"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/domain"
)

// Placeholder is shown for display fields that have no value.
const Placeholder = "—"

// recordFields maps each NormalizedRecord field to its lookup chain. Adding
// an alias is a one-line change here.
var recordFields = struct {
	id, createdAt, supplier, shipmentType, invoice, awb, status, qty, weight fieldRule
}{
	id: fieldRule{lookups: []lookup{
		{from: fromRaw, aliases: []string{"id", "_id"}},
		{from: fromPayload, aliases: []string{"id", "_id"}},
	}},
	createdAt: createdAtRule,
	supplier: fieldRule{
		lookups: acrossSections("supplierName", "supplier", "supplier_name", "vendor",
			"vendorName", "company", "exporter"),
		fallback: Placeholder,
	},
	shipmentType: fieldRule{
		lookups: acrossSections("shipmentType", "shipment_type", "shipmentKind",
			"productType", "product_type"),
	},
	invoice: fieldRule{
		lookups: acrossSections("invoiceNo", "invoiceNumber", "invoice", "invoice_no",
			"invNo"),
		fallback: Placeholder,
	},
	awb: fieldRule{
		lookups: acrossSections("awb", "awbNo", "awbNumber", "airwayBill", "air_waybill",
			"awb_no"),
		fallback: Placeholder,
	},
	status: fieldRule{
		lookups: acrossSections("status", "shipmentStatus", "state", "result",
			"inspectionStatus"),
		fallback: Placeholder,
	},
	qty: fieldRule{
		lookups: acrossSections("totalQty", "totalQuantity", "qty", "quantity",
			"total_qty", "totalPieces"),
	},
	weight: fieldRule{
		lookups: acrossSections("totalWeightKg", "totalWeight", "weightKg",
			"total_weight_kg", "grossWeight", "netWeight"),
	},
}

// NormalizeRecord flattens a raw report into a display record. It never
// fails: missing or malformed sections fall back to defaults.
func NormalizeRecord(raw domain.RawReport) domain.NormalizedRecord {
	v := viewOf(raw)
	lots := deriveLotDates(v)

	return domain.NormalizedRecord{
		ID:            recordFields.id.text(v),
		CreatedAt:     recordFields.createdAt.text(v),
		ReportDate:    reportDate(v),
		Supplier:      recordFields.supplier.text(v),
		ShipmentType:  recordFields.shipmentType.text(v),
		InvoiceNo:     recordFields.invoice.text(v),
		AWB:           recordFields.awb.text(v),
		Status:        recordFields.status.text(v),
		TotalQty:      domain.Quantity(recordFields.qty.text(v)),
		TotalWeightKg: domain.Quantity(recordFields.weight.text(v)),
		SlaughterDate: lots.SlaughterDate,
		ExpiryDate:    lots.ExpiryDate,
	}
}

// Identity is the part of a report that decides whether two documents
// describe the same shipment.
type Identity struct {
	ReportDate   string
	ShipmentType string
	Invoice      string
	AWB          string
	Supplier     string
}

// ShipmentIdentity resolves the identity fields of a raw report using the
// same lookups as NormalizeRecord. Absent fields are "" rather than the
// display placeholder.
func ShipmentIdentity(raw domain.RawReport) Identity {
	v := viewOf(raw)
	return Identity{
		ReportDate:   reportDate(v),
		ShipmentType: identityText(recordFields.shipmentType, v),
		Invoice:      identityText(recordFields.invoice, v),
		AWB:          identityText(recordFields.awb, v),
		Supplier:     identityText(recordFields.supplier, v),
	}
}

func identityText(rule fieldRule, v docView) string {
	rule.fallback = ""
	return strings.TrimSpace(rule.text(v))
}
