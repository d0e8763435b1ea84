package domain

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Quantity is a report quantity as captured by the forms: either a number or
// free text such as "12 cartons". It marshals to a JSON number when it holds
// a plain decimal and to a JSON string otherwise.
type Quantity string

// Decimal returns the numeric value and whether the quantity is numeric.
func (q Quantity) Decimal() (decimal.Decimal, bool) {
	s := strings.TrimSpace(string(q))
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// IsNumeric reports whether the quantity holds a plain decimal.
func (q Quantity) IsNumeric() bool {
	_, ok := q.Decimal()
	return ok
}

func (q Quantity) String() string { return string(q) }

func (q Quantity) MarshalJSON() ([]byte, error) {
	if d, ok := q.Decimal(); ok {
		return []byte(d.String()), nil
	}
	return json.Marshal(string(q))
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*q = Quantity(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*q = Quantity(s)
	return nil
}
