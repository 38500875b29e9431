package consolidate

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/mtlprog/revolut/internal/domain"
)

// ConsolidateAll groups periods by account number and consolidates every group on its own.
// Groups are independent: the result holds every group that succeeded, and the returned error joins
// one *AccountError per group that failed.
func ConsolidateAll(periods []domain.PortfolioPeriod) (map[string]domain.PortfolioPeriod, error) {
	groups := lo.GroupBy(periods, func(p domain.PortfolioPeriod) string { return p.AccountNumber })
	numbers := lo.Keys(groups)
	sort.Strings(numbers)

	var (
		mu     sync.Mutex
		result = make(map[string]domain.PortfolioPeriod, len(groups))
		errs   = make([]error, len(numbers))
	)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, number := range numbers {
		group := groups[number]
		g.Go(func() error {
			p, err := consolidateAccount(group)
			if err != nil {
				errs[i] = &AccountError{AccountNumber: number, AccountName: group[0].AccountName, Err: err}
				slog.Warn("consolidate: account failed", "account", number, "error", err)
				return nil
			}
			mu.Lock()
			result[number] = p
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return result, errors.Join(errs...)
}

func consolidateAccount(group []domain.PortfolioPeriod) (domain.PortfolioPeriod, error) {
	names := lo.Uniq(lo.Map(group, func(p domain.PortfolioPeriod, _ int) string { return p.AccountName }))
	if len(names) > 1 {
		return domain.PortfolioPeriod{}, fmt.Errorf("%w: account names %q", ErrAccountIdentityMismatch, names)
	}
	return Consolidate(group)
}
