package statement

import (
	"errors"
	"fmt"
)

var (
	// ErrUnrecognizedStatementType is returned when neither inspected line is a known statement title.
	ErrUnrecognizedStatementType = errors.New("unrecognized statement type")
	// ErrHeaderFieldMissing is returned when a required header field never appears.
	ErrHeaderFieldMissing = errors.New("header field missing")
	// ErrNoMatch is returned when a line fits none of the grammars of its section.
	ErrNoMatch = errors.New("line does not match")
	// ErrValueSummaryMissing is returned when an account statement has no starting/ending value summary.
	ErrValueSummaryMissing = errors.New("portfolio value summary missing")
)

// LineError annotates a failure with the 1-based line number and text that caused it.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

func lineError(l line, err error) error {
	return &LineError{Line: l.no, Text: l.text, Err: err}
}
