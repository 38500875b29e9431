// Package service turns batches of statement documents into consolidated, persisted accounts.
package service

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/mtlprog/revolut/internal/consolidate"
	"github.com/mtlprog/revolut/internal/domain"
	"github.com/mtlprog/revolut/internal/pdftext"
	"github.com/mtlprog/revolut/internal/statement"
	"github.com/mtlprog/revolut/internal/store"
)

// Repository persists the outcome of an import.
type Repository interface {
	SaveImport(ctx context.Context, run store.Run, accounts []domain.PortfolioPeriod, values []domain.PortfolioValue) error
}

// Exporter is called after each import with the consolidated accounts.
type Exporter interface {
	Export(ctx context.Context, accounts map[string]domain.PortfolioPeriod, values map[string][]domain.PortfolioValue) error
}

// Document is one parsed statement.
type Document struct {
	Source string                  `json:"source"`
	Type   string                  `json:"type"`
	Period domain.PortfolioPeriod  `json:"period"`
	Values []domain.PortfolioValue `json:"values,omitempty"`
}

// Failure is a document or account that could not be processed.
// Account is set for consolidation failures and Source for document failures.
type Failure struct {
	Source  string
	Account string
	Err     error
}

func (f Failure) MarshalJSON() ([]byte, error) {
	var msg string
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(struct {
		Source  string `json:"source,omitempty"`
		Account string `json:"account,omitempty"`
		Error   string `json:"error"`
	}{f.Source, f.Account, msg})
}

// Result is the outcome of one Process call.
type Result struct {
	RunID     uuid.UUID                          `json:"runId"`
	Documents []Document                         `json:"documents"`
	Accounts  map[string]domain.PortfolioPeriod  `json:"accounts"`
	Values    map[string][]domain.PortfolioValue `json:"values"`
	Failures  []Failure                          `json:"failures"`
}

// Options configures a Service. Zero values select defaults.
type Options struct {
	// Workers bounds the number of documents parsed concurrently. Default 4.
	Workers int
	// Repository, when set, receives every successful import.
	Repository Repository
	// Exporter, when set, runs after the import is persisted. Export failures are logged only.
	Exporter Exporter
	// Extractor picks the text extractor for a document name. Default pdftext.ByExtension.
	Extractor func(name string) pdftext.Extractor
}

// Service parses and consolidates statement documents.
type Service struct {
	workers   int
	repo      Repository
	exporter  Exporter
	extractor func(name string) pdftext.Extractor
	now       func() time.Time
}

// New creates a Service.
func New(opts Options) *Service {
	s := &Service{
		workers:   cmp.Or(opts.Workers, 4),
		repo:      opts.Repository,
		exporter:  opts.Exporter,
		extractor: opts.Extractor,
		now:       time.Now,
	}
	if s.extractor == nil {
		s.extractor = pdftext.ByExtension
	}
	return s
}

// ParseDocument reads and parses one document. Account statements also yield their value summary;
// a missing summary is logged and leaves Values empty.
func (s *Service) ParseDocument(src Source) (Document, error) {
	lines, err := s.readLines(src)
	if err != nil {
		return Document{}, fmt.Errorf("document %s: %w", src.Name, err)
	}

	kind, err := statement.Detect(lines)
	if err != nil {
		return Document{}, fmt.Errorf("document %s: %w", src.Name, err)
	}
	period, err := statement.Parse(lines)
	if err != nil {
		return Document{}, fmt.Errorf("document %s: %w", src.Name, err)
	}

	doc := Document{Source: src.Name, Type: kind.String(), Period: period}
	if kind == statement.TypeAccountStatement {
		values, err := statement.ParseValues(lines)
		switch {
		case errors.Is(err, statement.ErrValueSummaryMissing):
			slog.Warn("statement has no value summary", "document", src.Name)
		case err != nil:
			return Document{}, fmt.Errorf("document %s: %w", src.Name, err)
		default:
			doc.Values = values
		}
	}
	return doc, nil
}

func (s *Service) readLines(src Source) ([]string, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, fmt.Errorf("opening: %w", err)
	}
	defer rc.Close()

	lines, err := s.extractor(src.Name).Lines(rc)
	if err != nil {
		return nil, fmt.Errorf("extracting text: %w", err)
	}
	return lines, nil
}

// Process parses every source, consolidates the parsed periods per account, persists the result and
// runs the exporter. A failing document or account is reported in Result.Failures and never stops
// the others. The returned error is non-nil only when the context ends or persistence fails.
func (s *Service) Process(ctx context.Context, sources []Source) (Result, error) {
	startedAt := s.now()
	result := Result{
		RunID:    uuid.New(),
		Accounts: map[string]domain.PortfolioPeriod{},
		Values:   map[string][]domain.PortfolioValue{},
	}

	docs, failures := s.parseAll(ctx, sources)
	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("processing documents: %w", err)
	}
	result.Documents = docs
	result.Failures = failures

	periods := lo.Map(docs, func(d Document, _ int) domain.PortfolioPeriod { return d.Period })
	accounts, err := consolidate.ConsolidateAll(periods)
	result.Accounts = accounts
	result.Failures = append(result.Failures, accountFailures(err)...)

	var allValues []domain.PortfolioValue
	for number, vs := range mergedValues(docs) {
		if _, ok := accounts[number]; !ok {
			continue
		}
		result.Values[number] = vs
		allValues = append(allValues, vs...)
	}

	slog.Info("import finished",
		"run", result.RunID,
		"documents", len(sources),
		"accounts", len(result.Accounts),
		"failures", len(result.Failures))

	if s.repo != nil {
		run := store.Run{
			ID:         result.RunID,
			StartedAt:  startedAt,
			FinishedAt: s.now(),
			Documents:  len(sources),
			Failures:   len(result.Failures),
		}
		if err := s.repo.SaveImport(ctx, run, sortedAccounts(accounts), allValues); err != nil {
			return result, fmt.Errorf("saving import: %w", err)
		}
	}

	if s.exporter != nil && len(result.Accounts) > 0 {
		if err := s.exporter.Export(ctx, result.Accounts, result.Values); err != nil {
			slog.Warn("export after import failed", "run", result.RunID, "error", err)
		}
	}

	return result, nil
}

func (s *Service) parseAll(ctx context.Context, sources []Source) ([]Document, []Failure) {
	docs := make([]*Document, len(sources))
	errs := make([]error, len(sources))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, src := range sources {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			doc, err := s.ParseDocument(src)
			if err != nil {
				slog.Warn("failed to parse document", "document", src.Name, "error", err)
				errs[i] = err
				return nil
			}
			slog.Debug("parsed document",
				"document", src.Name,
				"type", doc.Type,
				"account", doc.Period.AccountNumber,
				"transactions", len(doc.Period.Transactions))
			docs[i] = &doc
			return nil
		})
	}
	_ = g.Wait()

	var parsed []Document
	var failures []Failure
	for i, doc := range docs {
		switch {
		case doc != nil:
			parsed = append(parsed, *doc)
		case errs[i] != nil:
			failures = append(failures, Failure{Source: sources[i].Name, Err: errs[i]})
		}
	}
	return parsed, failures
}

func accountFailures(err error) []Failure {
	if err == nil {
		return nil
	}
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}

	failures := make([]Failure, 0, len(errs))
	for _, e := range errs {
		var accErr *consolidate.AccountError
		if errors.As(e, &accErr) {
			failures = append(failures, Failure{Account: accErr.AccountNumber, Err: accErr})
			continue
		}
		failures = append(failures, Failure{Err: e})
	}
	return failures
}

// mergedValues groups the documents' value summaries by account, first value per day wins in
// document order, sorted by day.
func mergedValues(docs []Document) map[string][]domain.PortfolioValue {
	byAccount := map[string][]domain.PortfolioValue{}
	for _, d := range docs {
		for _, v := range d.Values {
			byAccount[v.AccountNumber] = append(byAccount[v.AccountNumber], v)
		}
	}

	out := make(map[string][]domain.PortfolioValue, len(byAccount))
	for number, vs := range byAccount {
		days := consolidate.MergeValues(vs)
		keys := lo.Keys(days)
		slices.SortFunc(keys, domain.CompareDates)
		out[number] = lo.Map(keys, func(day civil.Date, _ int) domain.PortfolioValue { return days[day] })
	}
	return out
}

func sortedAccounts(accounts map[string]domain.PortfolioPeriod) []domain.PortfolioPeriod {
	numbers := lo.Keys(accounts)
	slices.Sort(numbers)
	return lo.Map(numbers, func(n string, _ int) domain.PortfolioPeriod { return accounts[n] })
}
