// Package dedup collapses repeated submissions of the same shipment report
// into one record per shipment.
package dedup

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/domain"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/normalize"
)

const (
	signatureSeparator = "|"

	// missingID stands in for a shipment with neither invoice nor AWB.
	missingID = "NA"
)

// SignatureOf returns the grouping key of a raw report:
// "<date>|<SHIPMENT TYPE>|<INVOICE or AWB or NA>|<SUPPLIER>".
// Two reports with the same signature describe the same shipment.
func SignatureOf(raw domain.RawReport) string {
	id := normalize.ShipmentIdentity(raw)

	idPart := foldKey(id.Invoice)
	if idPart == "" {
		idPart = foldKey(id.AWB)
	}
	if idPart == "" {
		idPart = missingID
	}

	return strings.Join([]string{
		id.ReportDate,
		foldKey(id.ShipmentType),
		idPart,
		foldKey(id.Supplier),
	}, signatureSeparator)
}

// foldKey trims, NFKC-normalizes and upper-cases s so that visually equal
// values typed on different keyboards compare equal.
func foldKey(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.ToUpper(norm.NFKC.String(s))
}
