package statement

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/revolut/internal/domain"
)

const dividendDateLayout = "2006-01-02"

const dividendRecordPrefix = `^(?P<date>\d{4}-\d{2}-\d{2})` +
	`\s+(?P<symbol>\S+)` +
	`\s+(?P<name>.+)` +
	`\s+(?P<isin>\S{12})` +
	`\s+(?P<country>\S{2})` +
	`\s+(?P<gross>` + moneyToken + `)`

var errTruncatedRecord = errors.New("record truncated")

// dividendGrammar is one layout of the first line of a P&L dividend record.
type dividendGrammar struct {
	name string
	re   *regexp.Regexp
	// tax and net complete the record from the matched first line and the lines that follow it.
	// consumed counts the first line.
	complete func(m match, ls []line, i int) (tax, net *decimal.Decimal, consumed int, err error)
}

// dividendGrammars are tried in order; the first matching grammar owns the record.
var dividendGrammars = []dividendGrammar{
	{
		name: "inline tax",
		re: regexp.MustCompile(dividendRecordPrefix +
			`\s+(?P<tax>` + moneyToken + `)` +
			`\s+(?P<net>` + moneyToken + `)\s*$`),
		complete: func(m match, _ []line, _ int) (*decimal.Decimal, *decimal.Decimal, int, error) {
			tax, err := m.money("tax")
			if err != nil {
				return nil, nil, 0, err
			}
			net, err := m.money("net")
			if err != nil {
				return nil, nil, 0, err
			}
			return tax, net, 4, nil
		},
	},
	{
		name: "dash tax",
		re: regexp.MustCompile(dividendRecordPrefix +
			`\s+-` +
			`\s+(?P<net>` + moneyToken + `)\s*$`),
		complete: func(m match, _ []line, _ int) (*decimal.Decimal, *decimal.Decimal, int, error) {
			net, err := m.money("net")
			if err != nil {
				return nil, nil, 0, err
			}
			return domain.DecimalPtr(decimal.Zero), net, 4, nil
		},
	},
	{
		name: "following-line tax",
		re:   regexp.MustCompile(dividendRecordPrefix + `\s*$`),
		complete: func(_ match, ls []line, i int) (*decimal.Decimal, *decimal.Decimal, int, error) {
			taxAt, netAt := i+2, i+4
			if taxAt < len(ls) && strings.HasPrefix(ls[taxAt].text, "Rate:") {
				taxAt, netAt = i+3, i+5
			}
			if netAt >= len(ls) {
				return nil, nil, 0, errTruncatedRecord
			}
			tax := domain.DecimalPtr(decimal.Zero)
			if t := ls[taxAt].text; t != "" && t != "-" {
				d, err := moneyPtr(t)
				if err != nil {
					return nil, nil, 0, lineError(ls[taxAt], fmt.Errorf("tax: %w", err))
				}
				tax = d
			}
			net, err := moneyPtr(ls[netAt].text)
			if err != nil {
				return nil, nil, 0, lineError(ls[netAt], fmt.Errorf("net: %w", err))
			}
			return tax, net, 7, nil
		},
	},
}

// ExtractDividend parses the P&L dividend record starting at lines[i] and reports how many lines
// the record spans. Lines must be trimmed and carry no repeated column headers.
func ExtractDividend(lines []string, i int) (domain.Transaction, int, error) {
	return extractDividend(numberLines(lines), i)
}

func extractDividend(ls []line, i int) (domain.Transaction, int, error) {
	l := ls[i]
	for _, g := range dividendGrammars {
		m, ok := matchLine(g.re, l.text)
		if !ok {
			continue
		}
		t, n, err := buildDividend(g, m, ls, i)
		if err != nil {
			var le *LineError
			if errors.As(err, &le) {
				return domain.Transaction{}, 0, err
			}
			return domain.Transaction{}, 0, lineError(l, fmt.Errorf("dividend %s: %w", g.name, err))
		}
		return t, n, nil
	}
	return domain.Transaction{}, 0, lineError(l, fmt.Errorf("dividend: %w", ErrNoMatch))
}

func buildDividend(g dividendGrammar, m match, ls []line, i int) (domain.Transaction, int, error) {
	day, err := time.Parse(dividendDateLayout, m.get("date"))
	if err != nil {
		return domain.Transaction{}, 0, fmt.Errorf("invalid date: %w", err)
	}
	gross, err := m.money("gross")
	if err != nil {
		return domain.Transaction{}, 0, err
	}
	tax, net, n, err := g.complete(m, ls, i)
	if err != nil {
		return domain.Transaction{}, 0, err
	}
	return domain.Transaction{
		Date:           day.UTC(),
		Type:           domain.TransactionTypeDividend,
		Symbol:         m.get("symbol"),
		SecurityName:   m.get("name"),
		ISIN:           m.get("isin"),
		Country:        m.get("country"),
		GrossAmount:    gross,
		WithholdingTax: tax,
		Value:          net,
		Currency:       domain.CurrencyUSD,
	}, n, nil
}
