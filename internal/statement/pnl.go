package statement

import (
	"regexp"

	"cloud.google.com/go/civil"

	"github.com/mtlprog/revolut/internal/domain"
)

const dividendColumnHeader = "Date Symbol Security name ISIN Country Gross Amount Withholding Tax Net Amount"

var dividendsSection = section{
	name: "dividends",
	starts: []*regexp.Regexp{
		wholeLine(`USD Profit and Loss Statement`),
		wholeLine(`Dividends`),
	},
	header: wholeLine(`Date\s+Symbol\s+Security\s+name\s+ISIN\s+Country\s+Gross\s+Amount\s+Withholding\s+Tax\s+Net\s+Amount`),
	end:    wholeLine(`Total\s+.*`),
	drop:   []string{dividendColumnHeader},
}

// ParseProfitAndLoss parses the profit and loss layout. It reports dividends only and carries no
// holdings or cash, so the breakdown map is empty.
func ParseProfitAndLoss(lines []string) (domain.PortfolioPeriod, error) {
	ls := numberLines(lines)
	h, err := scanHeader(ls, accountNameField, accountNumberField, periodField)
	if err != nil {
		return domain.PortfolioPeriod{}, err
	}

	var dividends []domain.Transaction
	err = dividendsSection.scan(ls, func(ls []line, i int) (int, error) {
		t, n, err := extractDividend(ls, i)
		if err != nil {
			return 0, err
		}
		dividends = append(dividends, t)
		return n, nil
	})
	if err != nil {
		return domain.PortfolioPeriod{}, err
	}

	return domain.PortfolioPeriod{
		AccountNumber: h.accountNumber,
		AccountName:   h.accountName,
		PeriodFrom:    h.periodFrom,
		PeriodTo:      h.periodTo,
		Breakdowns:    map[civil.Date]domain.PortfolioBreakdown{},
		Transactions:  dividends,
	}, nil
}
