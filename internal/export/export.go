package export

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/revolut/internal/domain"
)

// Sheet names written by every SheetWriter.
const (
	TransactionsSheet = "TRANSACTIONS"
	HoldingsSheet     = "HOLDINGS"
	ValuesSheet       = "VALUES"
)

const timeLayout = "2006-01-02 15:04:05"

// Sheet is one named table. Rows[0] is the header row.
type Sheet struct {
	Name string
	Rows [][]any
}

// SheetWriter writes sheets to a spreadsheet destination, replacing their previous content.
type SheetWriter interface {
	Write(ctx context.Context, sheets []Sheet) error
}

// Service builds the account sheets and delegates writing to its SheetWriters.
type Service struct {
	writers []SheetWriter
}

// NewService creates a new export Service.
func NewService(writers ...SheetWriter) *Service {
	return &Service{writers: writers}
}

// Export writes the consolidated accounts to every writer. A failing writer does not stop the others.
// Implements service.Exporter.
func (s *Service) Export(ctx context.Context, accounts map[string]domain.PortfolioPeriod, values map[string][]domain.PortfolioValue) error {
	sheets := BuildSheets(accounts, values)

	var errs []error
	for _, w := range s.writers {
		if err := w.Write(ctx, sheets); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", w, err))
		}
	}
	return errors.Join(errs...)
}

// BuildSheets lays out the accounts as transaction, holding and value tables, accounts ordered by number.
func BuildSheets(accounts map[string]domain.PortfolioPeriod, values map[string][]domain.PortfolioValue) []Sheet {
	numbers := lo.Keys(accounts)
	slices.Sort(numbers)

	return []Sheet{
		{Name: TransactionsSheet, Rows: buildTransactions(numbers, accounts)},
		{Name: HoldingsSheet, Rows: buildHoldings(numbers, accounts)},
		{Name: ValuesSheet, Rows: buildValues(numbers, values)},
	}
}

// Columns: Account | Date | Type | Symbol | Side | Quantity | Price | Value | Gross | Tax | Fees | Commission | Security | ISIN | Country | Currency
func buildTransactions(numbers []string, accounts map[string]domain.PortfolioPeriod) [][]any {
	data := [][]any{{
		"Account", "Date", "Type", "Symbol", "Side",
		"Quantity", "Price", "Value", "Gross", "Tax", "Fees", "Commission",
		"Security", "ISIN", "Country", "Currency",
	}}

	for _, number := range numbers {
		for _, t := range accounts[number].Transactions {
			data = append(data, []any{
				number, t.Date.UTC().Format(timeLayout), string(t.Type), t.Symbol, string(t.Side),
				ptrFloat(t.Quantity), ptrFloat(t.Price), ptrFloat(t.Value),
				ptrFloat(t.GrossAmount), ptrFloat(t.WithholdingTax), ptrFloat(t.Fees), ptrFloat(t.Commission),
				t.SecurityName, t.ISIN, t.Country, string(t.Currency),
			})
		}
	}
	return data
}

// Columns: Account | Date | Symbol | Company | ISIN | Quantity | Price | Value | Currency
// Cash balances are listed as rows with an empty symbol and the currency as company.
func buildHoldings(numbers []string, accounts map[string]domain.PortfolioPeriod) [][]any {
	data := [][]any{{"Account", "Date", "Symbol", "Company", "ISIN", "Quantity", "Price", "Value", "Currency"}}

	for _, number := range numbers {
		p := accounts[number]
		for _, date := range p.SnapshotDates() {
			b := p.Breakdowns[date]
			for _, h := range b.Holdings {
				data = append(data, []any{
					number, date.String(), h.Symbol, h.Company, h.ISIN,
					toFloat(h.Quantity), toFloat(h.Price), toFloat(h.Value), string(h.Currency),
				})
			}
			currencies := lo.Keys(b.Cash)
			slices.Sort(currencies)
			for _, c := range currencies {
				data = append(data, []any{
					number, date.String(), "", "Cash " + string(c), "",
					nil, nil, toFloat(b.Cash[c]), string(c),
				})
			}
		}
	}
	return data
}

// Columns: Account | Day | Cash | Stocks | Total | Currency
func buildValues(numbers []string, values map[string][]domain.PortfolioValue) [][]any {
	data := [][]any{{"Account", "Day", "Cash", "Stocks", "Total", "Currency"}}

	for _, number := range numbers {
		for _, v := range values[number] {
			data = append(data, []any{
				number, v.Day.String(),
				toFloat(v.CashValue), toFloat(v.StocksValue), toFloat(v.TotalValue),
				string(v.Currency),
			})
		}
	}
	return data
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func ptrFloat(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	f, _ := d.Float64()
	return f
}
