package export

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mtlprog/revolut/internal/domain"
)

func ptr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func sampleAccounts() (map[string]domain.PortfolioPeriod, map[string][]domain.PortfolioValue) {
	jan31 := civil.Date{Year: 2023, Month: time.January, Day: 31}
	accounts := map[string]domain.PortfolioPeriod{
		"RVL2": {AccountNumber: "RVL2", AccountName: "Jane"},
		"RVL1": {
			AccountNumber: "RVL1",
			AccountName:   "John",
			PeriodFrom:    civil.Date{Year: 2023, Month: time.January, Day: 1},
			PeriodTo:      jan31,
			Breakdowns: map[civil.Date]domain.PortfolioBreakdown{
				jan31: {
					Date: jan31,
					Cash: map[domain.Currency]decimal.Decimal{domain.CurrencyUSD: decimal.RequireFromString("1349")},
					Holdings: []domain.Holding{{
						Symbol: "AAPL", Company: "Apple Inc.", ISIN: "US0378331005",
						Quantity: decimal.NewFromInt(5), Price: decimal.NewFromInt(130), Value: decimal.NewFromInt(650),
						Currency: domain.CurrencyUSD,
					}},
				},
			},
			Transactions: []domain.Transaction{
				{
					Date:     time.Date(2023, time.January, 3, 14, 30, 0, 0, time.UTC),
					Type:     domain.TransactionTypeTradeMarket,
					Symbol:   "AAPL",
					Side:     domain.SideBuy,
					Quantity: ptr("5"),
					Price:    ptr("130"),
					Value:    ptr("651"),
					Currency: domain.CurrencyUSD,
				},
			},
		},
	}
	values := map[string][]domain.PortfolioValue{
		"RVL1": {{AccountNumber: "RVL1", Day: jan31, CashValue: decimal.RequireFromString("1349"),
			StocksValue: decimal.NewFromInt(650), TotalValue: decimal.RequireFromString("1999"), Currency: domain.CurrencyUSD}},
	}
	return accounts, values
}

func TestBuildSheets(t *testing.T) {
	accounts, values := sampleAccounts()

	sheets := BuildSheets(accounts, values)
	require.Len(t, sheets, 3)

	tx := sheets[0]
	require.Equal(t, TransactionsSheet, tx.Name)
	require.Len(t, tx.Rows, 2)
	row := tx.Rows[1]
	require.Equal(t, "RVL1", row[0])
	require.Equal(t, "2023-01-03 14:30:00", row[1])
	require.Equal(t, "TRADE_MARKET", row[2])
	require.Equal(t, 5.0, row[5])
	require.Equal(t, 651.0, row[7])
	require.Nil(t, row[8], "missing gross amount must stay empty")

	holdings := sheets[1]
	require.Len(t, holdings.Rows, 3, "expected header, holding and cash rows")
	require.Equal(t, "AAPL", holdings.Rows[1][2])
	require.Equal(t, "Cash USD", holdings.Rows[2][3])
	require.Equal(t, 1349.0, holdings.Rows[2][7])

	vals := sheets[2]
	require.Len(t, vals.Rows, 2)
	require.Equal(t, "2023-01-31", vals.Rows[1][1])
	require.Equal(t, 1999.0, vals.Rows[1][4])
}

type mockWriter struct {
	sheets []Sheet
	err    error
}

func (m *mockWriter) Write(_ context.Context, sheets []Sheet) error {
	m.sheets = sheets
	return m.err
}

func TestService_Export(t *testing.T) {
	accounts, values := sampleAccounts()
	failing := &mockWriter{err: errors.New("quota exceeded")}
	ok := &mockWriter{}

	err := NewService(failing, ok).Export(context.Background(), accounts, values)
	require.ErrorIs(t, err, failing.err)
	require.Len(t, ok.sheets, 3, "a failing writer must not stop the others")
}

func TestXLSXWriter(t *testing.T) {
	accounts, values := sampleAccounts()
	path := filepath.Join(t.TempDir(), "accounts.xlsx")

	require.NoError(t, NewXLSXWriter(path).Write(context.Background(), BuildSheets(accounts, values)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	names := f.GetSheetList()
	require.Len(t, names, 3)
	require.Equal(t, TransactionsSheet, names[0])
	rows, err := f.GetRows(HoldingsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "RVL1", rows[1][0])
	require.Equal(t, "AAPL", rows[1][2])
}
