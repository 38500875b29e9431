package domain

import (
	"time"

	"cloud.google.com/go/civil"
)

// TransactionKey identifies one economic event regardless of the statement that reported it.
type TransactionKey struct {
	Type       TransactionType
	Date       string
	Symbol     string
	Quantity   string
	Price      string
	Side       Side
	Value      string
	Fees       string
	Commission string
	Currency   Currency
}

// KeyOf derives the transaction identity key of t.
func KeyOf(t Transaction) TransactionKey {
	return TransactionKey{
		Type:       t.Type,
		Date:       t.Date.Format(time.RFC3339Nano),
		Symbol:     t.Symbol,
		Quantity:   Scaled(t.Quantity, QuantityScale),
		Price:      Scaled(t.Price, MoneyScale),
		Side:       t.Side,
		Value:      Scaled(t.Value, MoneyScale),
		Fees:       Scaled(t.Fees, MoneyScale),
		Commission: Scaled(t.Commission, MoneyScale),
		Currency:   t.Currency,
	}
}

// DividendKey identifies a dividend payment. It ignores the time of day and every amount except the
// net value because the two statement layouts report the same payment with different detail.
type DividendKey struct {
	Date     civil.Date
	Symbol   string
	Value    string
	Currency Currency
}

// DividendKeyOf derives the dividend identity key of t.
func DividendKeyOf(t Transaction) DividendKey {
	return DividendKey{
		Date:     civil.DateOf(t.Date),
		Symbol:   t.Symbol,
		Value:    Scaled(t.Value, MoneyScale),
		Currency: t.Currency,
	}
}
