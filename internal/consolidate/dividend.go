package consolidate

import (
	"github.com/mtlprog/revolut/internal/domain"
)

// MergeDividend combines two records of the same dividend payment. Fields set on existing win; fields
// only incoming carries are taken from it. A date-only timestamp on existing is replaced by the
// incoming timestamp when that one carries a time of day.
func MergeDividend(existing, incoming domain.Transaction) domain.Transaction {
	m := existing.Clone()
	if !m.HasTimeOfDay() && incoming.HasTimeOfDay() {
		m.Date = incoming.Date
	}
	m.Symbol = coalesceString(m.Symbol, incoming.Symbol)
	m.SecurityName = coalesceString(m.SecurityName, incoming.SecurityName)
	m.ISIN = coalesceString(m.ISIN, incoming.ISIN)
	m.Country = coalesceString(m.Country, incoming.Country)
	if m.Currency == "" {
		m.Currency = incoming.Currency
	}
	m.GrossAmount = domain.CopyDecimal(domain.Coalesce(m.GrossAmount, incoming.GrossAmount))
	m.WithholdingTax = domain.CopyDecimal(domain.Coalesce(m.WithholdingTax, incoming.WithholdingTax))
	m.Value = domain.CopyDecimal(domain.Coalesce(m.Value, incoming.Value))
	m.Fees = domain.CopyDecimal(domain.Coalesce(m.Fees, incoming.Fees))
	m.Commission = domain.CopyDecimal(domain.Coalesce(m.Commission, incoming.Commission))
	return m
}

func coalesceString(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// SumDividendLines folds runs of consecutive dividend rows that describe the same payment into one
// row. Statements split a payment into several rows when it is paid on lots with different tax
// treatment. Rows belong to the same payment when timestamp, symbol, ISIN, security name, country
// and currency agree; amounts are summed where both rows carry them. The input is not modified.
func SumDividendLines(ts []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(ts))
	for _, t := range ts {
		if n := len(out); n > 0 && sameDividendPayment(out[n-1], t) {
			prev := out[n-1]
			prev.GrossAmount = domain.AddDecimals(prev.GrossAmount, t.GrossAmount)
			prev.WithholdingTax = domain.AddDecimals(prev.WithholdingTax, t.WithholdingTax)
			prev.Value = domain.AddDecimals(prev.Value, t.Value)
			prev.Fees = domain.AddDecimals(prev.Fees, t.Fees)
			prev.Commission = domain.AddDecimals(prev.Commission, t.Commission)
			out[n-1] = prev
			continue
		}
		out = append(out, t.Clone())
	}
	return out
}

func sameDividendPayment(a, b domain.Transaction) bool {
	return a.Type == domain.TransactionTypeDividend &&
		b.Type == domain.TransactionTypeDividend &&
		a.Date.Equal(b.Date) &&
		a.Symbol == b.Symbol &&
		a.ISIN == b.ISIN &&
		a.SecurityName == b.SecurityName &&
		a.Country == b.Country &&
		a.Currency == b.Currency
}
