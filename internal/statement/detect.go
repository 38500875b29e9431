package statement

import (
	"fmt"
	"strings"
	"unicode"
)

// Type is a statement layout.
type Type int

const (
	TypeUnknown Type = iota
	TypeAccountStatement
	TypeProfitAndLoss
)

func (t Type) String() string {
	switch t {
	case TypeAccountStatement:
		return "account statement"
	case TypeProfitAndLoss:
		return "profit and loss statement"
	default:
		return "unknown"
	}
}

var titles = []struct {
	title string
	typ   Type
}{
	{"Trading Account Statement", TypeAccountStatement},
	{"Account Statement", TypeAccountStatement},
	{"EUR Profit and Loss Statement", TypeProfitAndLoss},
	{"Profit and Loss Statement", TypeProfitAndLoss},
}

// detectLines is how many leading non-blank lines may carry the title.
const detectLines = 2

// Detect chooses the layout from the title on one of the first two non-blank lines.
func Detect(lines []string) (Type, error) {
	inspected := make([]string, 0, detectLines)
	for _, raw := range lines {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		inspected = append(inspected, s)
		if len(inspected) == detectLines {
			break
		}
	}
	for _, s := range inspected {
		for _, t := range titles {
			if hasTitle(s, t.title) {
				return t.typ, nil
			}
		}
	}
	return TypeUnknown, fmt.Errorf("%w: %q", ErrUnrecognizedStatementType, inspected)
}

func hasTitle(s, title string) bool {
	rest, ok := strings.CutPrefix(s, title)
	if !ok {
		return false
	}
	return rest == "" || unicode.IsSpace(rune(rest[0]))
}
