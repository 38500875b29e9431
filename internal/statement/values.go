package statement

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/revolut/internal/domain"
)

var (
	summaryStartRegex  = regexp.MustCompile(`Starting\s+Ending`)
	summaryStocksRegex = regexp.MustCompile(`^Stocks\s+value\s+(?P<start>` + moneyToken + `)\s+(?P<end>` + moneyToken + `)\s*$`)
	summaryCashRegex   = regexp.MustCompile(`^Cash\s+value\s*\*?\s+(?P<start>` + moneyToken + `)\s+(?P<end>` + moneyToken + `)\s*$`)
	summaryTotalRegex  = regexp.MustCompile(`^Total\s+(?P<start>` + moneyToken + `)\s+(?P<end>` + moneyToken + `)\s*$`)
)

// ParseValues returns the portfolio values printed in the account summary of an account statement:
// one for the first and one for the last day of the period. Profit and loss statements carry no
// summary and yield nil.
func ParseValues(lines []string) ([]domain.PortfolioValue, error) {
	typ, err := Detect(lines)
	if err != nil {
		return nil, err
	}
	if typ != TypeAccountStatement {
		return nil, nil
	}

	ls := numberLines(lines)
	h, err := scanHeader(ls, accountNameField, accountNumberField, periodField)
	if err != nil {
		return nil, err
	}

	for i, l := range ls {
		if !summaryStartRegex.MatchString(l.text) {
			continue
		}
		if i+3 >= len(ls) {
			return nil, lineError(l, errTruncatedRecord)
		}
		stocks, err := summaryRow(ls[i+1], "stocks value", summaryStocksRegex)
		if err != nil {
			return nil, err
		}
		cash, err := summaryRow(ls[i+2], "cash value", summaryCashRegex)
		if err != nil {
			return nil, err
		}
		total, err := summaryRow(ls[i+3], "total", summaryTotalRegex)
		if err != nil {
			return nil, err
		}

		value := func(col int) domain.PortfolioValue {
			v := domain.PortfolioValue{
				AccountNumber: h.accountNumber,
				AccountName:   h.accountName,
				Day:           h.periodFrom,
				StocksValue:   stocks[col],
				CashValue:     cash[col],
				TotalValue:    total[col],
				Currency:      domain.CurrencyUSD,
			}
			if col == 1 {
				v.Day = h.periodTo
			}
			return v
		}
		return []domain.PortfolioValue{value(0), value(1)}, nil
	}
	return nil, ErrValueSummaryMissing
}

// summaryRow parses the starting and ending amounts of one summary row.
func summaryRow(l line, name string, re *regexp.Regexp) ([2]decimal.Decimal, error) {
	m, ok := matchLine(re, l.text)
	if !ok {
		return [2]decimal.Decimal{}, lineError(l, fmt.Errorf("%s: %w", name, ErrNoMatch))
	}
	start, err := ParseMoney(m.get("start"))
	if err != nil {
		return [2]decimal.Decimal{}, lineError(l, err)
	}
	end, err := ParseMoney(m.get("end"))
	if err != nil {
		return [2]decimal.Decimal{}, lineError(l, err)
	}
	return [2]decimal.Decimal{start, end}, nil
}
