package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger event reported by the broker.
type TransactionType string

const (
	TransactionTypeCashTopUp      TransactionType = "CASH_TOP_UP"
	TransactionTypeCashWithdrawal TransactionType = "CASH_WITHDRAWAL"
	TransactionTypeCustodyFee     TransactionType = "CUSTODY_FEE"
	TransactionTypeDividend       TransactionType = "DIVIDEND"
	TransactionTypeSpinoff        TransactionType = "SPINOFF"
	TransactionTypeStockSplit     TransactionType = "STOCK_SPLIT"
	TransactionTypeTradeMarket    TransactionType = "TRADE_MARKET"
	TransactionTypeTradeLimit     TransactionType = "TRADE_LIMIT"
)

// IsTrade reports whether the type is a market or limit trade.
func (t TransactionType) IsTrade() bool {
	return t == TransactionTypeTradeMarket || t == TransactionTypeTradeLimit
}

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Currency is an ISO 4217 code.
type Currency string

// CurrencyUSD is the reporting currency of every supported statement.
const CurrencyUSD Currency = "USD"

// Transaction is one ledger event. Optional amounts are nil when the report does not carry them;
// optional strings are empty.
type Transaction struct {
	Date           time.Time        `json:"date"`
	Type           TransactionType  `json:"type"`
	Symbol         string           `json:"symbol,omitempty"`
	Country        string           `json:"country,omitempty"`
	Quantity       *decimal.Decimal `json:"quantity,omitempty"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	Value          *decimal.Decimal `json:"value,omitempty"`
	GrossAmount    *decimal.Decimal `json:"grossAmount,omitempty"`
	WithholdingTax *decimal.Decimal `json:"withholdingTax,omitempty"`
	Side           Side             `json:"side,omitempty"`
	Fees           *decimal.Decimal `json:"fees,omitempty"`
	Commission     *decimal.Decimal `json:"commission,omitempty"`
	SecurityName   string           `json:"securityName,omitempty"`
	ISIN           string           `json:"isin,omitempty"`
	Currency       Currency         `json:"currency"`
}

// Clone returns a copy that shares no pointers with t.
func (t Transaction) Clone() Transaction {
	c := t
	c.Quantity = CopyDecimal(t.Quantity)
	c.Price = CopyDecimal(t.Price)
	c.Value = CopyDecimal(t.Value)
	c.GrossAmount = CopyDecimal(t.GrossAmount)
	c.WithholdingTax = CopyDecimal(t.WithholdingTax)
	c.Fees = CopyDecimal(t.Fees)
	c.Commission = CopyDecimal(t.Commission)
	return c
}

// HasTimeOfDay reports whether the timestamp carries an intraday time.
// Dates reported without a time are stored at midnight.
func (t Transaction) HasTimeOfDay() bool {
	h, m, s := t.Date.Clock()
	return h != 0 || m != 0 || s != 0 || t.Date.Nanosecond() != 0
}
