package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/revolut/internal/domain"
)

// ErrNotFound indicates that the requested account was not found.
var ErrNotFound = errors.New("account not found")

// Run describes one import of a batch of statement documents.
type Run struct {
	ID         uuid.UUID `json:"id"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Documents  int       `json:"documents"`
	Failures   int       `json:"failures"`
}

// AccountSummary is a stored account without its transactions and breakdowns.
type AccountSummary struct {
	Number       string     `json:"number"`
	Name         string     `json:"name"`
	PeriodFrom   civil.Date `json:"periodFrom"`
	PeriodTo     civil.Date `json:"periodTo"`
	Transactions int        `json:"transactions"`
	RunID        uuid.UUID  `json:"runId"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Repository defines persistent storage for consolidated accounts.
type Repository interface {
	SaveImport(ctx context.Context, run Run, accounts []domain.PortfolioPeriod, values []domain.PortfolioValue) error
	GetAccount(ctx context.Context, number string) (domain.PortfolioPeriod, error)
	ListAccounts(ctx context.Context) ([]AccountSummary, error)
	ListValues(ctx context.Context, number string) ([]domain.PortfolioValue, error)
	LatestRun(ctx context.Context) (Run, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL account repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// SaveImport records the run and replaces the stored state of every given account in one transaction.
// Accounts absent from the import are left untouched.
func (r *PgRepository) SaveImport(ctx context.Context, run Run, accounts []domain.PortfolioPeriod, values []domain.PortfolioValue) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning import transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO import_runs (id, started_at, finished_at, documents, failures)
		 VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.StartedAt, run.FinishedAt, run.Documents, run.Failures); err != nil {
		return fmt.Errorf("saving import run: %w", err)
	}

	for _, p := range accounts {
		if err := saveAccount(ctx, tx, run.ID, p); err != nil {
			return fmt.Errorf("saving account %s: %w", p.AccountNumber, err)
		}
	}

	for _, v := range values {
		if _, err := tx.Exec(ctx,
			`INSERT INTO portfolio_values (account_number, day, cash_value, stocks_value, total_value, currency)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (account_number, day)
			 DO UPDATE SET cash_value = $3, stocks_value = $4, total_value = $5, currency = $6`,
			v.AccountNumber, dateValue(v.Day), v.CashValue, v.StocksValue, v.TotalValue, string(v.Currency)); err != nil {
			return fmt.Errorf("saving portfolio value %s %s: %w", v.AccountNumber, v.Day, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing import: %w", err)
	}
	return nil
}

func saveAccount(ctx context.Context, tx pgx.Tx, runID uuid.UUID, p domain.PortfolioPeriod) error {
	if _, err := tx.Exec(ctx,
		`INSERT INTO accounts (number, name, period_from, period_to, run_id, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 ON CONFLICT (number)
		 DO UPDATE SET name = $2, period_from = $3, period_to = $4, run_id = $5, updated_at = NOW()`,
		p.AccountNumber, p.AccountName, dateValue(p.PeriodFrom), dateValue(p.PeriodTo), runID); err != nil {
		return fmt.Errorf("upserting account: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM transactions WHERE account_number = $1`, p.AccountNumber); err != nil {
		return fmt.Errorf("clearing transactions: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM breakdowns WHERE account_number = $1`, p.AccountNumber); err != nil {
		return fmt.Errorf("clearing breakdowns: %w", err)
	}

	txRows := make([][]any, 0, len(p.Transactions))
	for i, t := range p.Transactions {
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshaling transaction %d: %w", i, err)
		}
		txRows = append(txRows, []any{p.AccountNumber, i, t.Date, string(t.Type), t.Symbol, data})
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"transactions"},
		[]string{"account_number", "position", "occurred_at", "type", "symbol", "data"},
		pgx.CopyFromRows(txRows)); err != nil {
		return fmt.Errorf("copying transactions: %w", err)
	}

	for _, date := range p.SnapshotDates() {
		data, err := json.Marshal(p.Breakdowns[date])
		if err != nil {
			return fmt.Errorf("marshaling breakdown %s: %w", date, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO breakdowns (account_number, snapshot_date, data) VALUES ($1, $2, $3::jsonb)`,
			p.AccountNumber, dateValue(date), data); err != nil {
			return fmt.Errorf("saving breakdown %s: %w", date, err)
		}
	}
	return nil
}

func (r *PgRepository) GetAccount(ctx context.Context, number string) (domain.PortfolioPeriod, error) {
	p := domain.PortfolioPeriod{AccountNumber: number}
	var from, to time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT name, period_from, period_to FROM accounts WHERE number = $1`, number).Scan(&p.AccountName, &from, &to)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PortfolioPeriod{}, ErrNotFound
		}
		return domain.PortfolioPeriod{}, fmt.Errorf("getting account: %w", err)
	}
	p.PeriodFrom, p.PeriodTo = civil.DateOf(from), civil.DateOf(to)

	rows, err := r.pool.Query(ctx,
		`SELECT data FROM transactions WHERE account_number = $1 ORDER BY position`, number)
	if err != nil {
		return domain.PortfolioPeriod{}, fmt.Errorf("listing transactions: %w", err)
	}
	p.Transactions, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Transaction, error) {
		var data []byte
		var t domain.Transaction
		if err := row.Scan(&data); err != nil {
			return t, err
		}
		return t, json.Unmarshal(data, &t)
	})
	if err != nil {
		return domain.PortfolioPeriod{}, fmt.Errorf("scanning transactions: %w", err)
	}

	rows, err = r.pool.Query(ctx,
		`SELECT data FROM breakdowns WHERE account_number = $1 ORDER BY snapshot_date`, number)
	if err != nil {
		return domain.PortfolioPeriod{}, fmt.Errorf("listing breakdowns: %w", err)
	}
	breakdowns, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.PortfolioBreakdown, error) {
		var data []byte
		var b domain.PortfolioBreakdown
		if err := row.Scan(&data); err != nil {
			return b, err
		}
		return b, json.Unmarshal(data, &b)
	})
	if err != nil {
		return domain.PortfolioPeriod{}, fmt.Errorf("scanning breakdowns: %w", err)
	}
	p.Breakdowns = make(map[civil.Date]domain.PortfolioBreakdown, len(breakdowns))
	for _, b := range breakdowns {
		p.Breakdowns[b.Date] = b
	}
	return p, nil
}

func (r *PgRepository) ListAccounts(ctx context.Context) ([]AccountSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.number, a.name, a.period_from, a.period_to, a.run_id, a.updated_at,
		        (SELECT COUNT(*) FROM transactions t WHERE t.account_number = a.number)
		 FROM accounts a
		 ORDER BY a.number`)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var accounts []AccountSummary
	for rows.Next() {
		var a AccountSummary
		var from, to time.Time
		if err := rows.Scan(&a.Number, &a.Name, &from, &to, &a.RunID, &a.UpdatedAt, &a.Transactions); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		a.PeriodFrom, a.PeriodTo = civil.DateOf(from), civil.DateOf(to)
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accounts: %w", err)
	}
	return accounts, nil
}

func (r *PgRepository) ListValues(ctx context.Context, number string) ([]domain.PortfolioValue, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT v.day, v.cash_value, v.stocks_value, v.total_value, v.currency, a.name
		 FROM portfolio_values v
		 LEFT JOIN accounts a ON a.number = v.account_number
		 WHERE v.account_number = $1
		 ORDER BY v.day`, number)
	if err != nil {
		return nil, fmt.Errorf("listing portfolio values: %w", err)
	}
	defer rows.Close()

	var values []domain.PortfolioValue
	for rows.Next() {
		var (
			day                 time.Time
			cash, stocks, total decimal.Decimal
			currency            string
			name                *string
		)
		if err := rows.Scan(&day, &cash, &stocks, &total, &currency, &name); err != nil {
			return nil, fmt.Errorf("scanning portfolio value: %w", err)
		}
		v := domain.PortfolioValue{
			AccountNumber: number,
			Day:           civil.DateOf(day),
			CashValue:     cash,
			StocksValue:   stocks,
			TotalValue:    total,
			Currency:      domain.Currency(currency),
		}
		if name != nil {
			v.AccountName = *name
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating portfolio values: %w", err)
	}
	return values, nil
}

func (r *PgRepository) LatestRun(ctx context.Context) (Run, error) {
	var run Run
	err := r.pool.QueryRow(ctx,
		`SELECT id, started_at, finished_at, documents, failures
		 FROM import_runs
		 ORDER BY started_at DESC
		 LIMIT 1`).Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Documents, &run.Failures)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Run{}, ErrNotFound
		}
		return Run{}, fmt.Errorf("getting latest run: %w", err)
	}
	return run, nil
}

// dateValue maps a calendar date to the midnight UTC timestamp pgx encodes as a DATE.
func dateValue(d civil.Date) time.Time {
	return d.In(time.UTC)
}
