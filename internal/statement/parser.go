// Package statement turns the text lines of broker statements into portfolio periods.
package statement

import (
	"fmt"

	"github.com/mtlprog/revolut/internal/domain"
)

// Parse detects the layout of a statement and parses it into one portfolio period.
func Parse(lines []string) (domain.PortfolioPeriod, error) {
	typ, err := Detect(lines)
	if err != nil {
		return domain.PortfolioPeriod{}, err
	}
	var p domain.PortfolioPeriod
	switch typ {
	case TypeAccountStatement:
		p, err = ParseAccountStatement(lines)
	case TypeProfitAndLoss:
		p, err = ParseProfitAndLoss(lines)
	default:
		return domain.PortfolioPeriod{}, fmt.Errorf("%w: %s", ErrUnrecognizedStatementType, typ)
	}
	if err != nil {
		return domain.PortfolioPeriod{}, fmt.Errorf("parsing %s: %w", typ, err)
	}
	return p, nil
}
