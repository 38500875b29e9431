package statement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mtlprog/revolut/internal/domain"
)

func profitAndLossLines() []string {
	return []string{
		"Profit and Loss Statement",
		"Generated on the 02 Apr 2024",
		"Account name John Doe",
		"Account number RVL123456",
		"Period 01 Jan 2024 - 31 Mar 2024",
		"",
		"EUR Profit and Loss Statement",
		"Dividends",
		"Total €0.00",
		"",
		"USD Profit and Loss Statement",
		"Sells",
		"Dividends",
		"Date Symbol Security name ISIN Country Gross Amount Withholding Tax Net Amount",
		// inline tax
		"2024-01-10 MSFT Microsoft Corp US5949181045 US US$8.82 US$1.32 US$7.50",
		"Corporation",
		"",
		"",
		// dash tax
		"2024-02-01 O Realty Income Corp US7561091049 US US$2.56 - US$2.56",
		"",
		"",
		"",
		// tax on a following line
		"2024-02-15 KO Coca-Cola Co US1912161007 US US$4.60",
		"",
		"US$0.69",
		"",
		"US$3.91",
		"",
		"",
		// tax after a rate line, with a page header repeated inside the record
		"2024-03-05 COP ConocoPhillips US20825C1045 US US$16.38",
		"Date Symbol Security name ISIN Country Gross Amount Withholding Tax Net Amount",
		"ConocoPhillips",
		"Rate: 15%",
		"US$2.46",
		"",
		"US$13.92",
		"",
		// blank tax line
		"2024-03-20 VZ Verizon US92343V1044 US US$1.00",
		"",
		"",
		"",
		"US$1.00",
		"",
		"",
		"Total US$28.89",
		"2024-03-25 BAD Not Parsed XX0000000000 US nonsense",
	}
}

func TestParseProfitAndLoss(t *testing.T) {
	p, err := Parse(profitAndLossLines())
	require.NoError(t, err)

	require.Equal(t, "RVL123456", p.AccountNumber)
	require.Equal(t, "John Doe", p.AccountName)
	require.NotNil(t, p.Breakdowns)
	require.Empty(t, p.Breakdowns)
	require.Len(t, p.Transactions, 5)

	for _, d := range p.Transactions {
		require.Equal(t, domain.TransactionTypeDividend, d.Type)
		require.Equal(t, domain.CurrencyUSD, d.Currency)
		require.False(t, d.HasTimeOfDay())
		require.Equal(t, time.UTC, d.Date.Location())
		require.Equal(t, "US", d.Country)
		require.Nil(t, d.Fees)
		require.Nil(t, d.Commission)
	}

	msft := p.Transactions[0]
	require.Equal(t, "MSFT", msft.Symbol)
	require.Equal(t, "Microsoft Corp", msft.SecurityName)
	require.Equal(t, "US5949181045", msft.ISIN)
	require.Equal(t, time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC), msft.Date)
	requireDecimalPtr(t, "8.82", msft.GrossAmount)
	requireDecimalPtr(t, "1.32", msft.WithholdingTax)
	requireDecimalPtr(t, "7.50", msft.Value)

	o := p.Transactions[1]
	require.Equal(t, "O", o.Symbol)
	requireDecimalPtr(t, "0", o.WithholdingTax)
	requireDecimalPtr(t, "2.56", o.Value)

	ko := p.Transactions[2]
	require.Equal(t, "KO", ko.Symbol)
	requireDecimalPtr(t, "4.60", ko.GrossAmount)
	requireDecimalPtr(t, "0.69", ko.WithholdingTax)
	requireDecimalPtr(t, "3.91", ko.Value)

	cop := p.Transactions[3]
	require.Equal(t, "COP", cop.Symbol)
	require.Equal(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), cop.Date)
	requireDecimalPtr(t, "16.38", cop.GrossAmount)
	requireDecimalPtr(t, "2.46", cop.WithholdingTax)
	requireDecimalPtr(t, "13.92", cop.Value)

	vz := p.Transactions[4]
	requireDecimalPtr(t, "0", vz.WithholdingTax)
	requireDecimalPtr(t, "1.00", vz.Value)
}

func TestParseProfitAndLoss_NoUSDSection(t *testing.T) {
	lines := profitAndLossLines()[:10]
	p, err := ParseProfitAndLoss(lines)
	require.NoError(t, err)
	require.Empty(t, p.Transactions)
}

func TestParseProfitAndLoss_BadDividendLine(t *testing.T) {
	lines := profitAndLossLines()
	lines[14] = "2024-01-10 MSFT Microsoft Corp"

	_, err := Parse(lines)
	var le *LineError
	require.ErrorAs(t, err, &le)
	require.Equal(t, 15, le.Line)
	require.ErrorIs(t, err, ErrNoMatch)
	require.Contains(t, err.Error(), "parsing dividends section")
}

func TestExtractDividend(t *testing.T) {
	t.Run("inline tax consumes four lines", func(t *testing.T) {
		d, n, err := ExtractDividend([]string{"2024-01-10 MSFT Microsoft Corp US5949181045 US US$8.82 US$1.32 US$7.50"}, 0)
		require.NoError(t, err)
		require.Equal(t, 4, n)
		requireDecimalPtr(t, "1.32", d.WithholdingTax)
	})
	t.Run("dash tax consumes four lines", func(t *testing.T) {
		d, n, err := ExtractDividend([]string{"2024-02-01 O Realty Income Corp US7561091049 US US$2.56 - US$2.56"}, 0)
		require.NoError(t, err)
		require.Equal(t, 4, n)
		requireDecimalPtr(t, "0", d.WithholdingTax)
	})
	t.Run("following-line tax consumes seven lines", func(t *testing.T) {
		lines := []string{"x", "2024-02-15 KO Coca-Cola Co US1912161007 US US$4.60", "", "-", "", "US$4.60", "", ""}
		d, n, err := ExtractDividend(lines, 1)
		require.NoError(t, err)
		require.Equal(t, 7, n)
		requireDecimalPtr(t, "0", d.WithholdingTax)
		requireDecimalPtr(t, "4.60", d.Value)
	})
	t.Run("truncated record", func(t *testing.T) {
		_, _, err := ExtractDividend([]string{"2024-02-15 KO Coca-Cola Co US1912161007 US US$4.60", "", "US$0.69"}, 0)
		var le *LineError
		require.ErrorAs(t, err, &le)
		require.Equal(t, 1, le.Line)
		require.ErrorIs(t, err, errTruncatedRecord)
	})
	t.Run("net without currency marker", func(t *testing.T) {
		lines := []string{"2024-02-15 KO Coca-Cola Co US1912161007 US US$4.60", "", "US$0.69", "", "3.91", "", ""}
		_, _, err := ExtractDividend(lines, 0)
		var le *LineError
		require.ErrorAs(t, err, &le)
		require.Equal(t, 5, le.Line)
		require.ErrorIs(t, err, ErrMissingCurrencyMarker)
	})
}
