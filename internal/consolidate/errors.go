package consolidate

import (
	"errors"
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/mtlprog/revolut/internal/domain"
)

var (
	// ErrNoPeriods is returned when there is nothing to consolidate.
	ErrNoPeriods = errors.New("no periods")
	// ErrNonContinuousPeriods is wrapped by *GapError.
	ErrNonContinuousPeriods = errors.New("non-continuous periods")
	// ErrInvalidData is wrapped by *DataError.
	ErrInvalidData = errors.New("invalid data")
	// ErrAccountIdentityMismatch is returned when periods of one account disagree on its identity.
	ErrAccountIdentityMismatch = errors.New("account identity mismatch")
)

// GapError names the calendar days no period covers.
type GapError struct {
	Account domain.Account
	From    civil.Date
	To      civil.Date
}

func (e *GapError) Error() string {
	return fmt.Sprintf("%v: account %s, missing period %s - %s", ErrNonContinuousPeriods, e.Account, e.From, e.To)
}

func (e *GapError) Unwrap() error { return ErrNonContinuousPeriods }

// DataError reports an internally inconsistent transaction.
type DataError struct {
	Reason      string
	Transaction domain.Transaction
}

func (e *DataError) Error() string {
	t := e.Transaction
	return fmt.Sprintf("%v: %s: %s %s %s at %s (quantity=%s price=%s value=%s fees=%s commission=%s)",
		ErrInvalidData, e.Reason, t.Type, t.Side, t.Symbol, t.Date.Format("2006-01-02T15:04:05Z07:00"),
		domain.Scaled(t.Quantity, domain.QuantityScale), domain.Scaled(t.Price, domain.QuantityScale),
		domain.Scaled(t.Value, domain.MoneyScale), domain.Scaled(t.Fees, domain.MoneyScale),
		domain.Scaled(t.Commission, domain.MoneyScale))
}

func (e *DataError) Unwrap() error { return ErrInvalidData }

// AccountError attributes a consolidation failure to one account.
type AccountError struct {
	AccountNumber string
	AccountName   string
	Err           error
}

func (e *AccountError) Error() string {
	return fmt.Sprintf("account %s (%s): %v", e.AccountNumber, e.AccountName, e.Err)
}

func (e *AccountError) Unwrap() error { return e.Err }
