// Package consolidate merges parsed statement periods into one gap-checked, deduplicated timeline
// per account.
package consolidate

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"

	"cloud.google.com/go/civil"
	"github.com/samber/lo"

	"github.com/mtlprog/revolut/internal/domain"
)

// Consolidate merges the periods of one account. Periods may arrive in any order and may overlap.
// The inputs are not modified and share no memory with the result.
func Consolidate(periods []domain.PortfolioPeriod) (domain.PortfolioPeriod, error) {
	if len(periods) == 0 {
		return domain.PortfolioPeriod{}, ErrNoPeriods
	}

	sorted := slices.Clone(periods)
	slices.SortStableFunc(sorted, comparePeriods)

	first := sorted[0]
	account := first.Account()
	result := domain.PortfolioPeriod{
		AccountNumber: first.AccountNumber,
		AccountName:   first.AccountName,
		PeriodFrom:    first.PeriodFrom,
		PeriodTo:      first.PeriodTo,
		Breakdowns:    make(map[civil.Date]domain.PortfolioBreakdown),
	}

	r := newReducer()
	for _, p := range sorted {
		if p.Account() != account {
			return domain.PortfolioPeriod{}, fmt.Errorf("%w: %s and %s", ErrAccountIdentityMismatch, account, p.Account())
		}
		next := result.PeriodTo.AddDays(1)
		if p.PeriodFrom.After(next) {
			return domain.PortfolioPeriod{}, &GapError{Account: account, From: next, To: p.PeriodFrom.AddDays(-1)}
		}
		if p.PeriodTo.After(result.PeriodTo) {
			result.PeriodTo = p.PeriodTo
		}

		for date, b := range p.Breakdowns {
			result.Breakdowns[date] = b.Clone()
		}

		for _, t := range SumDividendLines(p.Transactions) {
			if err := r.add(t); err != nil {
				return domain.PortfolioPeriod{}, err
			}
		}
	}

	result.Transactions = r.sorted()
	slog.Debug("consolidate: merged periods",
		"account", account.String(),
		"periods", len(periods),
		"from", result.PeriodFrom.String(),
		"to", result.PeriodTo.String(),
		"transactions", len(result.Transactions))
	return result, nil
}

// MergeTransactions reduces independently parsed transaction batches of one account to one sorted,
// deduplicated sequence. It applies trade reconciliation and dividend merging but no period checks.
func MergeTransactions(batches ...[]domain.Transaction) ([]domain.Transaction, error) {
	r := newReducer()
	for _, batch := range batches {
		for _, t := range SumDividendLines(batch) {
			if err := r.add(t); err != nil {
				return nil, err
			}
		}
	}
	return r.sorted(), nil
}

// MergeValues keys portfolio values by day. The first value seen for a day wins.
func MergeValues(values []domain.PortfolioValue) map[civil.Date]domain.PortfolioValue {
	out := make(map[civil.Date]domain.PortfolioValue, len(values))
	for _, v := range values {
		if _, ok := out[v.Day]; !ok {
			out[v.Day] = v
		}
	}
	return out
}

func comparePeriods(a, b domain.PortfolioPeriod) int {
	return cmp.Or(
		domain.CompareDates(a.PeriodFrom, b.PeriodFrom),
		domain.CompareDates(a.PeriodTo, b.PeriodTo),
	)
}

// reducer accumulates transactions in arrival order and collapses repeated events.
type reducer struct {
	out       []domain.Transaction
	seen      map[domain.TransactionKey]struct{}
	dividends map[domain.DividendKey]int
}

func newReducer() *reducer {
	return &reducer{
		seen:      make(map[domain.TransactionKey]struct{}),
		dividends: make(map[domain.DividendKey]int),
	}
}

func (r *reducer) add(t domain.Transaction) error {
	switch {
	case t.Type.IsTrade():
		reconciled, err := ReconcileTrade(t)
		if err != nil {
			return err
		}
		t = reconciled
	case t.Type == domain.TransactionTypeDividend:
		key := domain.DividendKeyOf(t)
		if idx, ok := r.dividends[key]; ok {
			r.out[idx] = MergeDividend(r.out[idx], t)
			slog.Debug("consolidate: merged dividend", "symbol", t.Symbol, "date", key.Date.String(), "value", key.Value)
			return nil
		}
		r.dividends[key] = len(r.out)
		r.out = append(r.out, t.Clone())
		return nil
	}

	key := domain.KeyOf(t)
	if _, ok := r.seen[key]; ok {
		slog.Debug("consolidate: dropped duplicate", "type", string(t.Type), "symbol", t.Symbol, "date", key.Date)
		return nil
	}
	r.seen[key] = struct{}{}
	r.out = append(r.out, t.Clone())
	return nil
}

// sorted returns the accumulated transactions ordered by timestamp. Equal timestamps keep arrival order.
func (r *reducer) sorted() []domain.Transaction {
	out := slices.Clone(r.out)
	slices.SortStableFunc(out, func(a, b domain.Transaction) int {
		return a.Date.Compare(b.Date)
	})
	return lo.Ternary(out == nil, []domain.Transaction{}, out)
}
