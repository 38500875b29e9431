package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/mtlprog/revolut/internal/domain"
	"github.com/mtlprog/revolut/internal/service"
	"github.com/mtlprog/revolut/internal/store"
)

const defaultMaxUploadBytes = 20 << 20

// Importer parses and imports statement documents.
type Importer interface {
	ParseDocument(src service.Source) (service.Document, error)
	Process(ctx context.Context, sources []service.Source) (service.Result, error)
}

// AccountStore reads imported accounts.
type AccountStore interface {
	GetAccount(ctx context.Context, number string) (domain.PortfolioPeriod, error)
	ListAccounts(ctx context.Context) ([]store.AccountSummary, error)
	ListValues(ctx context.Context, number string) ([]domain.PortfolioValue, error)
	LatestRun(ctx context.Context) (store.Run, error)
}

// Handler provides HTTP endpoints for statement import and account queries.
type Handler struct {
	importer  Importer
	accounts  AccountStore
	maxUpload int64
}

// NewHandler creates a new API handler. A non-positive maxUpload selects 20 MiB.
func NewHandler(importer Importer, accounts AccountStore, maxUpload int64) *Handler {
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	return &Handler{importer: importer, accounts: accounts, maxUpload: maxUpload}
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ParseStatement handles POST /api/v1/parse. It parses the uploaded "file" without storing it.
func (h *Handler) ParseStatement(w http.ResponseWriter, r *http.Request) {
	sources, cleanup, ok := h.uploads(w, r)
	if !ok {
		return
	}
	defer cleanup()
	if len(sources) != 1 {
		writeError(w, http.StatusBadRequest, "expected exactly one file")
		return
	}

	doc, err := h.importer.ParseDocument(sources[0])
	if err != nil {
		slog.Info("uploaded statement rejected", "document", sources[0].Name, "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// ImportStatements handles POST /api/v1/statements. Every uploaded "file" is parsed, consolidated
// with the others and stored. Documents and accounts that fail are listed in the response.
func (h *Handler) ImportStatements(w http.ResponseWriter, r *http.Request) {
	sources, cleanup, ok := h.uploads(w, r)
	if !ok {
		return
	}
	defer cleanup()
	if len(sources) == 0 {
		writeError(w, http.StatusBadRequest, "no files uploaded")
		return
	}

	result, err := h.importer.Process(r.Context(), sources)
	if err != nil {
		slog.Error("failed to import statements", "documents", len(sources), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to import statements")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// uploads reads the multipart "file" parts of r. On failure it writes the response and returns false.
func (h *Handler) uploads(w http.ResponseWriter, r *http.Request) ([]service.Source, func(), bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return nil, nil, false
		}
		writeError(w, http.StatusBadRequest, "expected multipart form with file parts")
		return nil, nil, false
	}

	form := r.MultipartForm
	cleanup := func() {
		if err := form.RemoveAll(); err != nil {
			slog.Warn("failed to remove upload temp files", "error", err)
		}
	}

	files := form.File["file"]
	sources := make([]service.Source, 0, len(files))
	for _, fh := range files {
		sources = append(sources, uploadSource(fh))
	}
	return sources, cleanup, true
}

func uploadSource(fh *multipart.FileHeader) service.Source {
	return service.Source{
		Name: filepath.Base(fh.Filename),
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

// ListAccounts handles GET /api/v1/accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.ListAccounts(r.Context())
	if err != nil {
		slog.Error("failed to list accounts", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if accounts == nil {
		accounts = []store.AccountSummary{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

// GetAccount handles GET /api/v1/accounts/{number}.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	number := r.PathValue("number")
	p, err := h.accounts.GetAccount(r.Context(), number)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		slog.Error("failed to get account", "account", number, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ListValues handles GET /api/v1/accounts/{number}/values.
func (h *Handler) ListValues(w http.ResponseWriter, r *http.Request) {
	number := r.PathValue("number")
	values, err := h.accounts.ListValues(r.Context(), number)
	if err != nil {
		slog.Error("failed to list portfolio values", "account", number, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if values == nil {
		values = []domain.PortfolioValue{}
	}
	writeJSON(w, http.StatusOK, values)
}

// LatestRun handles GET /api/v1/runs/latest.
func (h *Handler) LatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.accounts.LatestRun(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no imports yet")
			return
		}
		slog.Error("failed to get latest run", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
