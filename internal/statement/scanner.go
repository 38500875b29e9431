package statement

import (
	"fmt"
	"regexp"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// line is a trimmed input line with its 1-based position in the document.
type line struct {
	no   int
	text string
}

func numberLines(raw []string) []line {
	ls := make([]line, len(raw))
	for i, s := range raw {
		ls[i] = line{no: i + 1, text: strings.TrimSpace(s)}
	}
	return ls
}

// state is the position of a statement scan.
type state int

const (
	stateSeekingHeader state = iota
	stateSeekingSectionStart
	stateInSection
	stateDone
)

func (s state) String() string {
	switch s {
	case stateSeekingHeader:
		return "SeekingHeader"
	case stateSeekingSectionStart:
		return "SeekingSectionStart"
	case stateInSection:
		return "InSection"
	case stateDone:
		return "Done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// header holds the statement header fields.
type header struct {
	accountName   string
	accountNumber string
	periodFrom    civil.Date
	periodTo      civil.Date
	hasPeriod     bool
	cash          *decimal.Decimal
}

// headerField extracts one header value from a matching line. Fields are filled from their first match.
type headerField struct {
	name  string
	re    *regexp.Regexp
	isSet func(h *header) bool
	set   func(h *header, m []string) error
}

const periodDateLayout = "02 Jan 2006"

var (
	accountNameRegex   = regexp.MustCompile(`^Account\s+name\s+(.+)$`)
	accountNumberRegex = regexp.MustCompile(`^Account\s+number\s+(.+)$`)
	periodRegex        = regexp.MustCompile(`^Period\s+(\d{2}\s[A-Za-z]{3}\s\d{4})\s-\s(\d{2}\s[A-Za-z]{3}\s\d{4})`)
	cashValueRegex     = regexp.MustCompile(`^Cash\s+value\s+(` + moneyToken + `)\s+` + percentToken + `$`)
)

var (
	accountNameField = headerField{
		name:  "account name",
		re:    accountNameRegex,
		isSet: func(h *header) bool { return h.accountName != "" },
		set: func(h *header, m []string) error {
			h.accountName = strings.TrimSpace(m[1])
			return nil
		},
	}
	accountNumberField = headerField{
		name:  "account number",
		re:    accountNumberRegex,
		isSet: func(h *header) bool { return h.accountNumber != "" },
		set: func(h *header, m []string) error {
			h.accountNumber = strings.TrimSpace(m[1])
			return nil
		},
	}
	periodField = headerField{
		name:  "period",
		re:    periodRegex,
		isSet: func(h *header) bool { return h.hasPeriod },
		set: func(h *header, m []string) error {
			from, err := parsePeriodDate(m[1])
			if err != nil {
				return err
			}
			to, err := parsePeriodDate(m[2])
			if err != nil {
				return err
			}
			if to.Before(from) {
				return fmt.Errorf("period ends %s before it starts %s", to, from)
			}
			h.periodFrom, h.periodTo, h.hasPeriod = from, to, true
			return nil
		},
	}
	cashField = headerField{
		name:  "cash value",
		re:    cashValueRegex,
		isSet: func(h *header) bool { return h.cash != nil },
		set: func(h *header, m []string) error {
			d, err := moneyPtr(m[1])
			if err != nil {
				return err
			}
			h.cash = d
			return nil
		},
	}
)

func parsePeriodDate(s string) (civil.Date, error) {
	t, err := parseTime(periodDateLayout, s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid period date %q: %w", s, err)
	}
	return civil.DateOf(t), nil
}

// headerScanner stays in SeekingHeader until every field is set.
type headerScanner struct {
	fields []headerField
	h      header
	state  state
}

func newHeaderScanner(fields ...headerField) *headerScanner {
	return &headerScanner{fields: fields, state: stateSeekingHeader}
}

// step feeds one line and returns the next state.
func (s *headerScanner) step(l line) (state, error) {
	if s.state != stateSeekingHeader || l.text == "" {
		return s.state, nil
	}
	for _, f := range s.fields {
		if f.isSet(&s.h) {
			continue
		}
		m := f.re.FindStringSubmatch(l.text)
		if m == nil {
			continue
		}
		if err := f.set(&s.h, m); err != nil {
			return s.state, lineError(l, fmt.Errorf("%s: %w", f.name, err))
		}
		break
	}
	if s.complete() {
		s.state = stateDone
	}
	return s.state, nil
}

func (s *headerScanner) complete() bool {
	for _, f := range s.fields {
		if !f.isSet(&s.h) {
			return false
		}
	}
	return true
}

func (s *headerScanner) missing() []string {
	var names []string
	for _, f := range s.fields {
		if !f.isSet(&s.h) {
			names = append(names, f.name)
		}
	}
	return names
}

func scanHeader(ls []line, fields ...headerField) (header, error) {
	s := newHeaderScanner(fields...)
	for _, l := range ls {
		st, err := s.step(l)
		if err != nil {
			return header{}, err
		}
		if st == stateDone {
			return s.h, nil
		}
	}
	return header{}, fmt.Errorf("%w: %s", ErrHeaderFieldMissing, strings.Join(s.missing(), ", "))
}

// section describes one table of a statement layout.
type section struct {
	name string
	// starts are whole-line markers that must appear in this order before the body begins.
	starts []*regexp.Regexp
	// header is the column header line, skipped wherever it appears in the body.
	header *regexp.Regexp
	// end terminates the body; it is matched against the whole line.
	end *regexp.Regexp
	// skip lists substrings of body lines that are not records.
	skip []string
	// drop lists exact lines removed from the document before scanning, so that page headers
	// repeated inside multi-line records do not shift the lookahead of an extractor.
	drop []string
}

// sectionScanner moves SeekingSectionStart -> InSection -> Done.
type sectionScanner struct {
	sec    *section
	state  state
	passed int
}

func newSectionScanner(sec *section) *sectionScanner {
	return &sectionScanner{sec: sec, state: stateSeekingSectionStart}
}

// step feeds one non-blank line. It returns the next state and whether the line is a record
// that must be dispatched to the extractor.
func (s *sectionScanner) step(text string) (state, bool) {
	switch s.state {
	case stateSeekingSectionStart:
		if s.sec.starts[s.passed].MatchString(text) {
			s.passed++
			if s.passed == len(s.sec.starts) {
				s.state = stateInSection
			}
		}
		return s.state, false
	case stateInSection:
		if s.sec.header != nil && s.sec.header.MatchString(text) {
			return s.state, false
		}
		if s.sec.end.MatchString(text) {
			s.state = stateDone
			return s.state, false
		}
		for _, sub := range s.sec.skip {
			if strings.Contains(text, sub) {
				return s.state, false
			}
		}
		return s.state, true
	default:
		return s.state, false
	}
}

// extractFunc parses the record starting at ls[i] and reports how many lines it consumed.
type extractFunc func(ls []line, i int) (consumed int, err error)

// scan runs the section state machine over ls and dispatches every record line to extract.
// A section that never starts yields no records.
func (sec *section) scan(ls []line, extract extractFunc) error {
	if len(sec.drop) > 0 {
		kept := make([]line, 0, len(ls))
		for _, l := range ls {
			if !lo.Contains(sec.drop, l.text) {
				kept = append(kept, l)
			}
		}
		ls = kept
	}

	s := newSectionScanner(sec)
	for i := 0; i < len(ls) && s.state != stateDone; {
		if ls[i].text == "" {
			i++
			continue
		}
		if _, record := s.step(ls[i].text); !record {
			i++
			continue
		}
		n, err := extract(ls, i)
		if err != nil {
			return fmt.Errorf("parsing %s section: %w", sec.name, err)
		}
		i += max(n, 1)
	}
	return nil
}

func wholeLine(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`^(?:` + pattern + `)$`)
}
