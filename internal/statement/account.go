package statement

import (
	"regexp"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/revolut/internal/domain"
)

var holdingsSection = section{
	name:   "holdings",
	starts: []*regexp.Regexp{wholeLine(`Portfolio\s+breakdown`)},
	header: wholeLine(`Symbol\s+Company\s+ISIN\s+Quantity\s+Price\s+Value\s+%\s+of\s+Portfolio`),
	end:    wholeLine(`Stocks\s+value.*`),
}

var transactionsSection = section{
	name:   "transactions",
	starts: []*regexp.Regexp{wholeLine(`USD Transactions`)},
	header: wholeLine(`Date\s*Symbol\s*Type\s*Quantity\s*Price\s*Side\s*Value\s*Fees\s*Commission`),
	end:    wholeLine(`(?:Report\s+lost\s+or\s+stolen\s+card)|(?:Get help directly In app)`),
	skip: []string{
		"Transfer from Revolut Bank UAB to Revolut Securities Europe UAB",
		"Transfer from Revolut Trading Ltd to Revolut Securities Europe UAB",
	},
}

// ParseAccountStatement parses the account statement layout. The period carries one breakdown dated at
// the period end with the cash balance and holdings of the statement.
func ParseAccountStatement(lines []string) (domain.PortfolioPeriod, error) {
	ls := numberLines(lines)
	h, err := scanHeader(ls, accountNameField, accountNumberField, periodField, cashField)
	if err != nil {
		return domain.PortfolioPeriod{}, err
	}

	var holdings []domain.Holding
	err = holdingsSection.scan(ls, func(ls []line, i int) (int, error) {
		hl, err := extractHolding(ls[i])
		if err != nil {
			return 0, lineError(ls[i], err)
		}
		holdings = append(holdings, hl)
		return 1, nil
	})
	if err != nil {
		return domain.PortfolioPeriod{}, err
	}

	var transactions []domain.Transaction
	err = transactionsSection.scan(ls, func(ls []line, i int) (int, error) {
		t, err := extractTransaction(ls[i])
		if err != nil {
			return 0, lineError(ls[i], err)
		}
		transactions = append(transactions, t)
		return 1, nil
	})
	if err != nil {
		return domain.PortfolioPeriod{}, err
	}

	return domain.PortfolioPeriod{
		AccountNumber: h.accountNumber,
		AccountName:   h.accountName,
		PeriodFrom:    h.periodFrom,
		PeriodTo:      h.periodTo,
		Breakdowns: map[civil.Date]domain.PortfolioBreakdown{
			h.periodTo: {
				Date:     h.periodTo,
				Cash:     map[domain.Currency]decimal.Decimal{domain.CurrencyUSD: *h.cash},
				Holdings: holdings,
			},
		},
		Transactions: transactions,
	}, nil
}
