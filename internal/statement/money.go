package statement

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrMissingCurrencyMarker is returned for a money token without the "$" marker.
var ErrMissingCurrencyMarker = errors.New("money token without currency marker")

// Token grammars shared by the line extractors.
const (
	integerPart   = `(?:\d{1,3}(?:,\d{3})*|\d+)`
	moneyToken    = `(?:-?(?:US)?\$|US-\$)` + integerPart + `(?:\.\d+)?`
	quantityToken = `-?` + integerPart + `(?:\.\d+)?`
	priceToken    = `(?:` + moneyToken + `|` + quantityToken + `)`
	percentToken  = `\d+(?:\.\d+)?\s*%`
)

// Thousands separators, when present, must group by three.
var plainNumberRegex = regexp.MustCompile(`^` + integerPart + `(?:\.\d+)?$`)

// ParseMoney parses a USD amount such as "US$1,234.56", "$0.12" or "-$5".
// The "$" marker is required; the "US" prefix and the thousands separator are optional.
func ParseMoney(token string) (decimal.Decimal, error) {
	s := strings.TrimSpace(token)
	negative := false
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		negative, s = true, rest
	}
	s = strings.TrimPrefix(s, "US")
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		if negative {
			return decimal.Decimal{}, fmt.Errorf("invalid money token %q", token)
		}
		negative, s = true, rest
	}
	rest, ok := strings.CutPrefix(s, "$")
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrMissingCurrencyMarker, token)
	}
	d, err := parseNumber(rest)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid money token %q: %w", token, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// ParseQuantity parses a signed share quantity such as "1,250.5". Currency markers are rejected.
func ParseQuantity(token string) (decimal.Decimal, error) {
	s := strings.TrimSpace(token)
	negative := false
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		negative, s = true, rest
	}
	d, err := parseNumber(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid quantity %q: %w", token, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// ParsePrice parses a trade unit price. Trade lines print the price with or without the "$" marker.
func ParsePrice(token string) (decimal.Decimal, error) {
	s := strings.TrimSpace(token)
	if strings.Contains(s, "$") {
		return ParseMoney(s)
	}
	return ParseQuantity(s)
}

func parseNumber(s string) (decimal.Decimal, error) {
	if !plainNumberRegex.MatchString(s) {
		return decimal.Decimal{}, fmt.Errorf("not a number: %q", s)
	}
	return decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
}

func moneyPtr(token string) (*decimal.Decimal, error) {
	d, err := ParseMoney(token)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
