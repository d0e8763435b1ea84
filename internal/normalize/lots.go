package normalize

// LotDates is the display form of the slaughter and expiry dates found
// across a report: empty, a single date, or a "first — last" range.
type LotDates struct {
	SlaughterDate string `json:"slaughterDate"`
	ExpiryDate    string `json:"expiryDate"`
}

var slaughterAliases = []string{
	"slaughterDate",
	"dateOfSlaughter",
	"productionDate",
	"manufactureDate",
	"manufacturedDate",
	"mfgDate",
	"mfd",
	"prodDate",
	"dateOfProduction",
	"slaughter_date",
	"production_date",
}

var expiryAliases = []string{
	"expiryDate",
	"expDate",
	"expiry",
	"bestBefore",
	"bestBeforeDate",
	"bbd",
	"useBy",
	"useByDate",
	"expiry_date",
	"exp_date",
}

// lineItemKeys are alternative names for the line-item array. Only the
// first non-empty one is read.
var lineItemKeys = []string{"rows", "products", "items", "lines", "details"}

// DeriveSlaughterAndExpiry collects slaughter/production and expiry dates
// from the header, general info, every sample and every line item of a
// payload, and formats each set as a date or range.
func DeriveSlaughterAndExpiry(payload map[string]any) LotDates {
	if payload == nil {
		return LotDates{}
	}
	v := newDocView(map[string]any{"payload": payload})
	return deriveLotDates(v)
}

func deriveLotDates(v docView) LotDates {
	var slaughter, expiry []string

	collect := func(obj map[string]any) {
		if val, ok := firstPresent(obj, slaughterAliases); ok {
			slaughter = append(slaughter, ExtractAllDates(val)...)
		}
		if val, ok := firstPresent(obj, expiryAliases); ok {
			expiry = append(expiry, ExtractAllDates(val)...)
		}
	}

	collect(v.header)
	collect(v.generalInfo)
	for _, sample := range objectsIn(v.payload["samples"]) {
		collect(sample)
	}
	for _, item := range lineItems(v.payload) {
		collect(item)
	}

	return LotDates{
		SlaughterDate: FormatDateList(uniqueSorted(slaughter)),
		ExpiryDate:    FormatDateList(uniqueSorted(expiry)),
	}
}

func lineItems(payload map[string]any) []map[string]any {
	for _, key := range lineItemKeys {
		if items, ok := asArray(payload[key]); ok && len(items) > 0 {
			return objectsIn(items)
		}
	}
	return nil
}
