package dedup

import (
	"encoding/json"
	"testing"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/domain"
)

func shipment(id, createdAt, invoice, supplier string) domain.RawReport {
	raw := domain.RawReport{
		"id": id,
		"payload": map[string]any{
			"reportDate": "2024-01-05",
			"header": map[string]any{
				"shipmentType": "Chilled",
				"invoiceNo":    invoice,
				"supplierName": supplier,
			},
		},
	}
	if createdAt != "" {
		raw["createdAt"] = createdAt
	}
	return raw
}

func ids(raws []domain.RawReport) []string {
	out := make([]string, len(raws))
	for i, r := range raws {
		out[i], _ = r["id"].(string)
	}
	return out
}

func TestSignatureOf(t *testing.T) {
	tests := []struct {
		name string
		raw  domain.RawReport
		want string
	}{
		{
			name: "invoice",
			raw:  shipment("a", "", "inv-1", " Al Mawashi "),
			want: "2024-01-05|CHILLED|INV-1|AL MAWASHI",
		},
		{
			name: "awb when invoice missing",
			raw: domain.RawReport{"payload": map[string]any{
				"reportDate": "2024-01-05",
				"header":     map[string]any{"awb": "176-555", "supplier": "x"},
			}},
			want: "2024-01-05||176-555|X",
		},
		{
			name: "no identifiers",
			raw:  domain.RawReport{},
			want: "||NA|",
		},
		{
			name: "date from createdAt",
			raw:  domain.RawReport{"createdAt": "2024-02-03T08:00:00Z"},
			want: "2024-02-03||NA|",
		},
		{
			name: "fullwidth text folded",
			raw:  shipment("a", "", "ＩＮＶ１", "ｆａｒｍ"),
			want: "2024-01-05|CHILLED|INV1|FARM",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SignatureOf(tt.raw); got != tt.want {
				t.Errorf("SignatureOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSignatureOfIsDeterministicAndCaseInsensitive(t *testing.T) {
	a := shipment("a", "", "INV-1", "Al Mawashi")
	b := shipment("b", "", "INV-1", "AL MAWASHI")

	if SignatureOf(a) != SignatureOf(a) {
		t.Fatal("SignatureOf is not deterministic")
	}
	if SignatureOf(a) != SignatureOf(b) {
		t.Errorf("supplier casing changed the signature: %q vs %q", SignatureOf(a), SignatureOf(b))
	}
}

func TestCreatedAtMillis(t *testing.T) {
	tests := []struct {
		name string
		raw  domain.RawReport
		want int64
	}{
		{name: "rfc3339", raw: domain.RawReport{"createdAt": "2024-03-02T10:00:00Z"}, want: 1709373600000},
		{name: "epoch millis", raw: domain.RawReport{"createdAt": json.Number("1709373600000")}, want: 1709373600000},
		{name: "snake case", raw: domain.RawReport{"created_at": "2024-03-02 10:00:00"}, want: 1709373600000},
		{name: "nested in payload", raw: domain.RawReport{"payload": map[string]any{"createdAt": "2024-03-02T10:00:00Z"}}, want: 1709373600000},
		{name: "missing", raw: domain.RawReport{}, want: 0},
		{name: "invalid", raw: domain.RawReport{"createdAt": "yesterday"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CreatedAtMillis(tt.raw); got != tt.want {
				t.Errorf("CreatedAtMillis() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDeduplicate(t *testing.T) {
	tests := []struct {
		name string
		raws []domain.RawReport
		want []string
	}{
		{
			name: "keeps newest",
			raws: []domain.RawReport{
				shipment("old", "2024-01-01T00:00:00Z", "INV-1", "A"),
				shipment("new", "2024-01-02T00:00:00Z", "INV-1", "A"),
			},
			want: []string{"new"},
		},
		{
			name: "newest wins regardless of order",
			raws: []domain.RawReport{
				shipment("new", "2024-01-02T00:00:00Z", "INV-1", "A"),
				shipment("old", "2024-01-01T00:00:00Z", "INV-1", "A"),
			},
			want: []string{"new"},
		},
		{
			name: "distinct invoices survive",
			raws: []domain.RawReport{
				shipment("one", "2024-01-01T00:00:00Z", "INV-1", "A"),
				shipment("two", "2024-01-01T00:00:00Z", "INV-2", "A"),
			},
			want: []string{"one", "two"},
		},
		{
			name: "equal timestamps keep the later one",
			raws: []domain.RawReport{
				shipment("first", "2024-01-01T00:00:00Z", "INV-1", "A"),
				shipment("second", "2024-01-01T00:00:00Z", "INV-1", "A"),
			},
			want: []string{"second"},
		},
		{
			name: "real timestamp beats missing one",
			raws: []domain.RawReport{
				shipment("dated", "2024-01-01T00:00:00Z", "INV-1", "A"),
				shipment("undated", "", "INV-1", "A"),
			},
			want: []string{"dated"},
		},
		{
			name: "lone undated record kept",
			raws: []domain.RawReport{shipment("undated", "garbage", "INV-1", "A")},
			want: []string{"undated"},
		},
		{
			name: "first seen group order",
			raws: []domain.RawReport{
				shipment("b1", "2024-01-01T00:00:00Z", "INV-B", "A"),
				shipment("a1", "2024-01-01T00:00:00Z", "INV-A", "A"),
				shipment("b2", "2024-01-03T00:00:00Z", "INV-B", "A"),
			},
			want: []string{"b2", "a1"},
		},
		{
			name: "empty",
			raws: nil,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Deduplicate(tt.raws))
			if len(got) != len(tt.want) {
				t.Fatalf("Deduplicate() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Deduplicate() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestDeduplicateWithStats(t *testing.T) {
	raws := []domain.RawReport{
		shipment("1", "2024-01-01T00:00:00Z", "INV-1", "A"),
		shipment("2", "2024-01-02T00:00:00Z", "INV-1", "A"),
		shipment("3", "2024-01-03T00:00:00Z", "INV-1", "A"),
		shipment("4", "2024-01-01T00:00:00Z", "INV-2", "A"),
	}

	_, stats := DeduplicateWithStats(raws)
	want := Stats{Input: 4, Output: 2, Dropped: 2}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

func TestDeduplicateDoesNotModifyInput(t *testing.T) {
	raws := []domain.RawReport{
		shipment("old", "2024-01-01T00:00:00Z", "INV-1", "A"),
		shipment("new", "2024-01-02T00:00:00Z", "INV-1", "A"),
	}

	Deduplicate(raws)

	if got := ids(raws); got[0] != "old" || got[1] != "new" || len(got) != 2 {
		t.Errorf("input reordered: %v", got)
	}
}
