package statement

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/revolut/internal/domain"
)

const transactionTimeLayout = "02 Jan 2006 15:04:05"

var holdingLineRegex = regexp.MustCompile(`^(?P<symbol>\S+)` +
	`\s+(?P<company>.+)` +
	`\s+(?P<isin>\S{12})` +
	`\s+(?P<quantity>` + quantityToken + `)` +
	`\s+(?P<price>` + moneyToken + `)` +
	`\s+(?P<value>` + moneyToken + `)` +
	`\s+` + percentToken + `$`)

var transactionLineRegex = regexp.MustCompile(`^(?P<date>\d{2}\s+[A-Za-z]{3}\s+\d{4}\s+\d{2}:\d{2}:\d{2})` +
	`\s+(?P<zone>[A-Z]{3})` +
	`(?:\s+(?P<symbol>.+?))?` +
	`\s+(?P<type>Custody fee|Dividend|Cash top-up|Cash withdrawal|Trade - Market|Trade - Limit|Stock split|Spinoff)` +
	`\s+(?P<numbers>.*)$`)

// Amount grammars of the transaction line, selected by its type label.
var (
	cashAmountsRegex = regexp.MustCompile(`^\s*(?P<value>` + moneyToken + `)` +
		`\s+(?P<fees>` + moneyToken + `)` +
		`\s+(?P<commission>` + moneyToken + `)\s*$`)

	corporateActionAmountsRegex = regexp.MustCompile(`^\s*(?P<quantity>` + quantityToken + `)` +
		`\s+(?P<value>` + moneyToken + `)` +
		`\s+(?P<fees>` + moneyToken + `)` +
		`\s+(?P<commission>` + moneyToken + `)\s*$`)

	tradeAmountsRegex = regexp.MustCompile(`^\s*(?P<quantity>` + quantityToken + `)` +
		`\s+(?P<price>` + priceToken + `)` +
		`\s+(?P<side>Buy|Sell)` +
		`\s+(?P<value>` + moneyToken + `)` +
		`\s+(?P<fees>` + moneyToken + `)` +
		`\s+(?P<commission>` + moneyToken + `)\s*$`)
)

var transactionTypeLabels = map[string]domain.TransactionType{
	"Custody fee":     domain.TransactionTypeCustodyFee,
	"Dividend":        domain.TransactionTypeDividend,
	"Cash top-up":     domain.TransactionTypeCashTopUp,
	"Cash withdrawal": domain.TransactionTypeCashWithdrawal,
	"Trade - Market":  domain.TransactionTypeTradeMarket,
	"Trade - Limit":   domain.TransactionTypeTradeLimit,
	"Stock split":     domain.TransactionTypeStockSplit,
	"Spinoff":         domain.TransactionTypeSpinoff,
}

var sideLabels = map[string]domain.Side{
	"Buy":  domain.SideBuy,
	"Sell": domain.SideSell,
}

// match gives access to the named groups of one regexp match.
type match struct {
	re     *regexp.Regexp
	groups []string
}

func matchLine(re *regexp.Regexp, s string) (match, bool) {
	groups := re.FindStringSubmatch(s)
	if groups == nil {
		return match{}, false
	}
	return match{re: re, groups: groups}, true
}

func (m match) get(name string) string {
	idx := m.re.SubexpIndex(name)
	if idx < 0 || idx >= len(m.groups) {
		return ""
	}
	return strings.TrimSpace(m.groups[idx])
}

func (m match) money(name string) (*decimal.Decimal, error) {
	d, err := moneyPtr(m.get(name))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}

func (m match) quantity(name string) (*decimal.Decimal, error) {
	d, err := ParseQuantity(m.get(name))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &d, nil
}

// ExtractHolding parses one row of the portfolio breakdown table.
func ExtractHolding(no int, text string) (domain.Holding, error) {
	l := line{no: no, text: strings.TrimSpace(text)}
	h, err := extractHolding(l)
	if err != nil {
		return domain.Holding{}, lineError(l, err)
	}
	return h, nil
}

func extractHolding(l line) (domain.Holding, error) {
	m, ok := matchLine(holdingLineRegex, l.text)
	if !ok {
		return domain.Holding{}, fmt.Errorf("holding: %w", ErrNoMatch)
	}
	quantity, err := m.quantity("quantity")
	if err != nil {
		return domain.Holding{}, err
	}
	price, err := m.money("price")
	if err != nil {
		return domain.Holding{}, err
	}
	value, err := m.money("value")
	if err != nil {
		return domain.Holding{}, err
	}
	return domain.Holding{
		Symbol:   m.get("symbol"),
		Company:  m.get("company"),
		ISIN:     m.get("isin"),
		Quantity: *quantity,
		Price:    *price,
		Value:    *value,
		Currency: domain.CurrencyUSD,
	}, nil
}

// ExtractTransaction parses one row of the account statement transactions table.
func ExtractTransaction(no int, text string) (domain.Transaction, error) {
	l := line{no: no, text: strings.TrimSpace(text)}
	t, err := extractTransaction(l)
	if err != nil {
		return domain.Transaction{}, lineError(l, err)
	}
	return t, nil
}

func extractTransaction(l line) (domain.Transaction, error) {
	m, ok := matchLine(transactionLineRegex, l.text)
	if !ok {
		return domain.Transaction{}, fmt.Errorf("transaction: %w", ErrNoMatch)
	}
	date, err := parseZonedTime(m.get("date"), m.get("zone"))
	if err != nil {
		return domain.Transaction{}, err
	}
	label := m.get("type")
	typ := transactionTypeLabels[label]

	t := domain.Transaction{
		Date:     date,
		Type:     typ,
		Symbol:   m.get("symbol"),
		Currency: domain.CurrencyUSD,
	}

	var amountsRegex *regexp.Regexp
	switch typ {
	case domain.TransactionTypeCashTopUp, domain.TransactionTypeCashWithdrawal,
		domain.TransactionTypeCustodyFee, domain.TransactionTypeDividend:
		amountsRegex = cashAmountsRegex
	case domain.TransactionTypeSpinoff, domain.TransactionTypeStockSplit:
		amountsRegex = corporateActionAmountsRegex
	case domain.TransactionTypeTradeMarket, domain.TransactionTypeTradeLimit:
		amountsRegex = tradeAmountsRegex
	default:
		return domain.Transaction{}, fmt.Errorf("unsupported transaction type %q", label)
	}

	amounts, ok := matchLine(amountsRegex, m.get("numbers"))
	if !ok {
		return domain.Transaction{}, fmt.Errorf("%s amounts: %w", label, ErrNoMatch)
	}
	if t.Value, err = amounts.money("value"); err != nil {
		return domain.Transaction{}, err
	}
	if t.Fees, err = amounts.money("fees"); err != nil {
		return domain.Transaction{}, err
	}
	if t.Commission, err = amounts.money("commission"); err != nil {
		return domain.Transaction{}, err
	}

	switch amountsRegex {
	case corporateActionAmountsRegex:
		if t.Quantity, err = amounts.quantity("quantity"); err != nil {
			return domain.Transaction{}, err
		}
	case tradeAmountsRegex:
		if t.Quantity, err = amounts.quantity("quantity"); err != nil {
			return domain.Transaction{}, err
		}
		price, err := ParsePrice(amounts.get("price"))
		if err != nil {
			return domain.Transaction{}, fmt.Errorf("price: %w", err)
		}
		t.Price = &price
		t.Side = sideLabels[amounts.get("side")]
	}
	return t, nil
}

// parseTime parses s with layout after collapsing runs of whitespace.
func parseTime(layout, s string) (time.Time, error) {
	return time.Parse(layout, strings.Join(strings.Fields(s), " "))
}

// parseZonedTime parses a statement timestamp. Statements print GMT; UTC is accepted as its synonym.
func parseZonedTime(s, zone string) (time.Time, error) {
	if zone != "GMT" && zone != "UTC" {
		return time.Time{}, fmt.Errorf("unsupported time zone %q", zone)
	}
	t, err := parseTime(transactionTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
