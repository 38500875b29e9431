package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/mtlprog/revolut/internal/service"
)

// Processor imports a batch of statement documents.
type Processor interface {
	Process(ctx context.Context, sources []service.Source) (service.Result, error)
}

// ImportWorker periodically imports the statement documents found in a directory.
// A run is skipped when the directory content has not changed since the last successful import.
type ImportWorker struct {
	processor Processor
	dir       string
	interval  time.Duration
	last      string
}

// NewImportWorker creates a new ImportWorker scanning dir every interval.
func NewImportWorker(processor Processor, dir string, interval time.Duration) *ImportWorker {
	return &ImportWorker{
		processor: processor,
		dir:       dir,
		interval:  interval,
	}
}

// Run starts the import worker loop. It blocks until the context is cancelled.
func (w *ImportWorker) Run(ctx context.Context) {
	slog.Info("ImportWorker: starting", "dir", w.dir, "interval", w.interval)

	// Import immediately on startup
	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("ImportWorker: shutting down")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// runOnce imports the directory if it changed. It reports whether an import ran.
func (w *ImportWorker) runOnce(ctx context.Context) bool {
	fp, err := fingerprint(w.dir)
	if err != nil {
		slog.Error("ImportWorker: scanning directory failed", "dir", w.dir, "error", err)
		return false
	}
	if fp == "" {
		slog.Debug("ImportWorker: no statements found", "dir", w.dir)
		return false
	}
	if fp == w.last {
		slog.Debug("ImportWorker: statements unchanged, skipping")
		return false
	}

	sources, err := service.FileSources(w.dir)
	if err != nil {
		slog.Error("ImportWorker: listing statements failed", "dir", w.dir, "error", err)
		return false
	}

	result, err := w.processor.Process(ctx, sources)
	if err != nil {
		slog.Error("ImportWorker: import failed", "error", err)
		return true
	}

	w.last = fp
	for _, f := range result.Failures {
		slog.Warn("ImportWorker: statement not imported", "document", f.Source, "account", f.Account, "error", f.Err)
	}
	slog.Info("ImportWorker: import completed",
		"run", result.RunID,
		"documents", len(sources),
		"accounts", len(result.Accounts),
		"failures", len(result.Failures))
	return true
}

// fingerprint summarizes the names, sizes and modification times of the statement files in dir.
// It is empty when dir holds no statements.
func fingerprint(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", dir, err)
	}

	var parts []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !service.IsStatementFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		parts = append(parts, fmt.Sprintf("%s:%d:%d", e.Name(), info.Size(), info.ModTime().UnixNano()))
	}
	slices.Sort(parts)
	return strings.Join(parts, "|"), nil
}
