package domain

import (
	"maps"
	"slices"

	"cloud.google.com/go/civil"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Holding is a single position line of a portfolio breakdown.
type Holding struct {
	Symbol   string          `json:"symbol"`
	Company  string          `json:"company"`
	ISIN     string          `json:"isin"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Value    decimal.Decimal `json:"value"`
	Currency Currency        `json:"currency"`
}

// PortfolioBreakdown is the cash and holdings of an account at the end of one day.
type PortfolioBreakdown struct {
	Date     civil.Date                   `json:"date"`
	Cash     map[Currency]decimal.Decimal `json:"cash"`
	Holdings []Holding                    `json:"holdings"`
}

// Clone returns a copy that shares no maps or slices with b.
func (b PortfolioBreakdown) Clone() PortfolioBreakdown {
	return PortfolioBreakdown{
		Date:     b.Date,
		Cash:     maps.Clone(b.Cash),
		Holdings: slices.Clone(b.Holdings),
	}
}

// PortfolioPeriod is an account's transactions and snapshots over the inclusive range
// [PeriodFrom, PeriodTo]. One parsed statement produces one period; consolidation merges many.
type PortfolioPeriod struct {
	AccountNumber string                            `json:"accountNumber"`
	AccountName   string                            `json:"accountName"`
	PeriodFrom    civil.Date                        `json:"periodFrom"`
	PeriodTo      civil.Date                        `json:"periodTo"`
	Breakdowns    map[civil.Date]PortfolioBreakdown `json:"breakdowns"`
	Transactions  []Transaction                     `json:"transactions"`
}

// SnapshotDates returns the breakdown dates in ascending order.
func (p PortfolioPeriod) SnapshotDates() []civil.Date {
	dates := lo.Keys(p.Breakdowns)
	slices.SortFunc(dates, CompareDates)
	return dates
}

// Account returns the account identity of the period.
func (p PortfolioPeriod) Account() Account {
	return Account{Number: p.AccountNumber, Name: p.AccountName}
}

// PortfolioValue is the account summary line printed for the first and last day of an account statement.
type PortfolioValue struct {
	AccountNumber string          `json:"accountNumber"`
	AccountName   string          `json:"accountName"`
	Day           civil.Date      `json:"day"`
	CashValue     decimal.Decimal `json:"cashValue"`
	StocksValue   decimal.Decimal `json:"stocksValue"`
	TotalValue    decimal.Decimal `json:"totalValue"`
	Currency      Currency        `json:"currency"`
}
