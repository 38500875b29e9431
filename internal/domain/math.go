package domain

import (
	"github.com/shopspring/decimal"
)

// Identity keys compare quantities at 8 places and money at 2 places.
const (
	QuantityScale = 8
	MoneyScale    = 2
)

// DecimalPtr returns a pointer to a copy of d.
func DecimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

// CopyDecimal returns a new pointer holding the same value, or nil.
func CopyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	return DecimalPtr(*d)
}

// Scaled renders d rounded half away from zero to the given places. Nil renders as "".
// Decimals equal after rescaling render identically, which makes the result usable in map keys.
func Scaled(d *decimal.Decimal, places int32) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(places)
}

// Coalesce returns a if it is non-nil, otherwise b.
func Coalesce(a, b *decimal.Decimal) *decimal.Decimal {
	if a != nil {
		return a
	}
	return b
}

// AddDecimals sums a and b when both are present and returns a otherwise.
func AddDecimals(a, b *decimal.Decimal) *decimal.Decimal {
	if a == nil || b == nil {
		return a
	}
	return DecimalPtr(a.Add(*b))
}
