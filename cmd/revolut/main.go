package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/revolut/internal/api"
	"github.com/mtlprog/revolut/internal/config"
	"github.com/mtlprog/revolut/internal/database"
	"github.com/mtlprog/revolut/internal/export"
	"github.com/mtlprog/revolut/internal/service"
	"github.com/mtlprog/revolut/internal/store"
	"github.com/mtlprog/revolut/internal/worker"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(config.Load()).RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(cfg config.Config) *cli.App {
	workersFlag := func() cli.Flag {
		return &cli.IntFlag{Name: "workers", Usage: "documents parsed concurrently", Value: cfg.ParseWorkers}
	}

	return &cli.App{
		Name:  "revolut",
		Usage: "parse and consolidate Revolut trading statements",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log at debug level"},
		},
		Before: func(c *cli.Context) error {
			level := cfg.LogLevel
			if c.Bool("verbose") {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "parse",
				Usage:     "parse statements and print each document as JSON",
				ArgsUsage: "FILE...",
				Action: func(c *cli.Context) error {
					sources, err := sourcesFromArgs(c)
					if err != nil {
						return err
					}
					svc := service.New(service.Options{})
					var docs []service.Document
					for _, src := range sources {
						doc, err := svc.ParseDocument(src)
						if err != nil {
							return err
						}
						docs = append(docs, doc)
					}
					return printJSON(docs)
				},
			},
			{
				Name:      "consolidate",
				Usage:     "consolidate statements per account and print the result as JSON",
				ArgsUsage: "FILE|DIR...",
				Flags:     []cli.Flag{workersFlag()},
				Action: func(c *cli.Context) error {
					result, err := process(c, service.Options{Workers: c.Int("workers")})
					if err != nil {
						return err
					}
					return printJSON(result)
				},
			},
			{
				Name:      "values",
				Usage:     "print the portfolio value summaries per account",
				ArgsUsage: "FILE|DIR...",
				Flags:     []cli.Flag{workersFlag()},
				Action: func(c *cli.Context) error {
					result, err := process(c, service.Options{Workers: c.Int("workers")})
					if err != nil {
						return err
					}
					return printJSON(result.Values)
				},
			},
			{
				Name:      "export",
				Usage:     "consolidate statements and write them to XLSX and/or Google Sheets",
				ArgsUsage: "FILE|DIR...",
				Flags: []cli.Flag{
					workersFlag(),
					&cli.StringFlag{Name: "xlsx", Usage: "workbook path", Value: cfg.XLSXExportPath},
					&cli.StringFlag{Name: "sheet-id", Usage: "Google spreadsheet ID", Value: cfg.GoogleSheetsID},
				},
				Action: func(c *cli.Context) error {
					exportCfg := cfg
					exportCfg.XLSXExportPath = c.String("xlsx")
					exportCfg.GoogleSheetsID = c.String("sheet-id")
					exporter, err := newExporter(c.Context, exportCfg)
					if err != nil {
						return err
					}
					if exporter == nil {
						return errors.New("nothing to export to: set --xlsx or --sheet-id")
					}
					_, err = process(c, service.Options{Workers: c.Int("workers"), Exporter: exporter})
					return err
				},
			},
			{
				Name:  "serve",
				Usage: "run the HTTP API and the periodic statements import",
				Action: func(c *cli.Context) error {
					return serve(c.Context, cfg)
				},
			},
		},
	}
}

func sourcesFromArgs(c *cli.Context) ([]service.Source, error) {
	if c.NArg() == 0 {
		return nil, fmt.Errorf("%s: at least one statement is required", c.Command.Name)
	}
	var sources []service.Source
	for _, arg := range c.Args().Slice() {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			sources = append(sources, service.FileSource(arg))
			continue
		}
		dirSources, err := service.FileSources(arg)
		if err != nil {
			return nil, err
		}
		sources = append(sources, dirSources...)
	}
	return sources, nil
}

func process(c *cli.Context, opts service.Options) (service.Result, error) {
	sources, err := sourcesFromArgs(c)
	if err != nil {
		return service.Result{}, err
	}
	result, err := service.New(opts).Process(c.Context, sources)
	if err != nil {
		return result, err
	}
	for _, f := range result.Failures {
		slog.Warn("not consolidated", "document", f.Source, "account", f.Account, "error", f.Err)
	}
	return result, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newExporter returns nil when no export destination is configured.
func newExporter(ctx context.Context, cfg config.Config) (service.Exporter, error) {
	var writers []export.SheetWriter
	if cfg.XLSXExportPath != "" {
		writers = append(writers, export.NewXLSXWriter(cfg.XLSXExportPath))
	}
	if cfg.GoogleSheetsID != "" {
		if cfg.GoogleCredentialsJSON == "" {
			return nil, errors.New("GOOGLE_CREDENTIALS_JSON is required for Google Sheets export")
		}
		sw, err := export.NewSheetsWriter(ctx, cfg.GoogleSheetsID, cfg.GoogleCredentialsJSON)
		if err != nil {
			return nil, fmt.Errorf("creating sheets writer: %w", err)
		}
		writers = append(writers, sw)
	}
	if len(writers) == 0 {
		return nil, nil
	}
	return export.NewService(writers...), nil
}

func serve(ctx context.Context, cfg config.Config) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL, int32(cfg.ParseWorkers)+2)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	migrationsSub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migrations sub-fs: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, migrationsSub); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	repo := store.NewPgRepository(pool)

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		slog.Warn("export disabled", "error", err)
	}

	svc := service.New(service.Options{
		Workers:    cfg.ParseWorkers,
		Repository: repo,
		Exporter:   exporter,
	})

	importWorker := worker.NewImportWorker(svc, cfg.StatementsDir, cfg.ImportInterval)
	go importWorker.Run(ctx)

	if cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set, statement upload endpoint is unprotected")
	}

	srv := api.NewServer(api.Options{
		Port:           cfg.HTTPPort,
		Importer:       svc,
		Accounts:       repo,
		AdminAPIKey:    cfg.AdminAPIKey,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}
	slog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
	return nil
}
