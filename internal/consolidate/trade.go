package consolidate

import (
	"github.com/shopspring/decimal"

	"github.com/mtlprog/revolut/internal/domain"
)

// PriceScale is the scale of the implied trade price.
const PriceScale = 8

// PriceTolerance is the largest accepted difference between the implied and the declared trade price.
var PriceTolerance = decimal.RequireFromString("0.005")

// ReconcileTrade checks a trade against its own amounts and returns a copy whose price is the one
// implied by value, fees, commission and quantity: value net of fees and commission for a buy, value
// plus fees and commission for a sell, divided by quantity.
func ReconcileTrade(t domain.Transaction) (domain.Transaction, error) {
	switch {
	case t.Quantity == nil || t.Price == nil || t.Value == nil || t.Fees == nil || t.Commission == nil:
		return domain.Transaction{}, &DataError{Reason: "trade with missing amounts", Transaction: t}
	case t.Quantity.IsZero():
		return domain.Transaction{}, &DataError{Reason: "trade with zero quantity", Transaction: t}
	case t.Fees.IsNegative():
		return domain.Transaction{}, &DataError{Reason: "negative fees", Transaction: t}
	case t.Commission.IsNegative():
		return domain.Transaction{}, &DataError{Reason: "negative commission", Transaction: t}
	}

	charges := t.Fees.Add(*t.Commission)
	var traded decimal.Decimal
	switch t.Side {
	case domain.SideBuy:
		traded = t.Value.Sub(charges)
	case domain.SideSell:
		traded = t.Value.Add(charges)
	default:
		return domain.Transaction{}, &DataError{Reason: "trade without side", Transaction: t}
	}

	implied := traded.DivRound(*t.Quantity, PriceScale)
	if implied.Sub(*t.Price).Abs().GreaterThan(PriceTolerance) {
		return domain.Transaction{}, &DataError{
			Reason:      "declared price differs from implied price " + implied.String(),
			Transaction: t,
		}
	}

	out := t.Clone()
	out.Price = &implied
	return out, nil
}
