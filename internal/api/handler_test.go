package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/revolut/internal/domain"
	"github.com/mtlprog/revolut/internal/service"
	"github.com/mtlprog/revolut/internal/store"
)

var (
	jan1  = civil.Date{Year: 2023, Month: time.January, Day: 1}
	dec31 = civil.Date{Year: 2023, Month: time.December, Day: 31}
)

type mockImporter struct {
	parsed   []string
	imported []string
	parseErr error
	err      error
}

func (m *mockImporter) ParseDocument(src service.Source) (service.Document, error) {
	rc, err := src.Open()
	if err != nil {
		return service.Document{}, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return service.Document{}, err
	}
	m.parsed = append(m.parsed, src.Name+"="+string(data))
	if m.parseErr != nil {
		return service.Document{}, m.parseErr
	}
	return service.Document{
		Source: src.Name,
		Type:   "account statement",
		Period: domain.PortfolioPeriod{
			AccountNumber: "RVL1",
			AccountName:   "John Doe",
			PeriodFrom:    jan1,
			PeriodTo:      dec31,
		},
	}, nil
}

func (m *mockImporter) Process(_ context.Context, sources []service.Source) (service.Result, error) {
	for _, s := range sources {
		m.imported = append(m.imported, s.Name)
	}
	if m.err != nil {
		return service.Result{}, m.err
	}
	return service.Result{
		RunID: uuid.MustParse("6f1a3c2e-8d4b-4f6a-9c1e-2b3d4e5f6a7b"),
		Accounts: map[string]domain.PortfolioPeriod{
			"RVL1": {AccountNumber: "RVL1", PeriodFrom: jan1, PeriodTo: dec31},
		},
		Failures: []service.Failure{{Source: "junk.pdf", Err: errors.New("unrecognized")}},
	}, nil
}

type mockStore struct {
	accounts []store.AccountSummary
	account  *domain.PortfolioPeriod
	values   []domain.PortfolioValue
	err      error
}

func (m *mockStore) GetAccount(_ context.Context, number string) (domain.PortfolioPeriod, error) {
	if m.err != nil {
		return domain.PortfolioPeriod{}, m.err
	}
	if m.account == nil || m.account.AccountNumber != number {
		return domain.PortfolioPeriod{}, store.ErrNotFound
	}
	return *m.account, nil
}

func (m *mockStore) ListAccounts(_ context.Context) ([]store.AccountSummary, error) {
	return m.accounts, m.err
}

func (m *mockStore) ListValues(_ context.Context, _ string) ([]domain.PortfolioValue, error) {
	return m.values, m.err
}

func (m *mockStore) LatestRun(_ context.Context) (store.Run, error) {
	if m.err != nil {
		return store.Run{}, m.err
	}
	return store.Run{}, store.ErrNotFound
}

func multipartRequest(t *testing.T, path string, files map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestParseStatementSuccess(t *testing.T) {
	imp := &mockImporter{}
	handler := NewHandler(imp, nil, 0)

	w := httptest.NewRecorder()
	handler.ParseStatement(w, multipartRequest(t, "/api/v1/parse", map[string]string{"../2023.txt": "Account Statement"}))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, []string{"2023.txt=Account Statement"}, imp.parsed)

	var doc service.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	require.Equal(t, "2023.txt", doc.Source)
	require.Equal(t, "RVL1", doc.Period.AccountNumber)
	require.Equal(t, jan1, doc.Period.PeriodFrom)
	require.Equal(t, dec31, doc.Period.PeriodTo)
}

func TestParseStatementRejected(t *testing.T) {
	handler := NewHandler(&mockImporter{parseErr: errors.New("unrecognized statement type")}, nil, 0)

	w := httptest.NewRecorder()
	handler.ParseStatement(w, multipartRequest(t, "/api/v1/parse", map[string]string{"a.pdf": "x"}))

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Contains(t, w.Body.String(), "unrecognized statement type")
}

func TestParseStatementRequiresOneFile(t *testing.T) {
	handler := NewHandler(&mockImporter{}, nil, 0)

	w := httptest.NewRecorder()
	handler.ParseStatement(w, multipartRequest(t, "/api/v1/parse", map[string]string{"a.pdf": "x", "b.pdf": "y"}))

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadTooLarge(t *testing.T) {
	handler := NewHandler(&mockImporter{}, nil, 64)

	w := httptest.NewRecorder()
	handler.ImportStatements(w, multipartRequest(t, "/api/v1/statements", map[string]string{"a.pdf": strings.Repeat("x", 4096)}))

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestImportStatementsSuccess(t *testing.T) {
	imp := &mockImporter{}
	handler := NewHandler(imp, nil, 0)

	w := httptest.NewRecorder()
	handler.ImportStatements(w, multipartRequest(t, "/api/v1/statements", map[string]string{"a.pdf": "x", "b.txt": "y"}))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, imp.imported, 2)

	var body struct {
		RunID    string                     `json:"runId"`
		Accounts map[string]json.RawMessage `json:"accounts"`
		Failures []map[string]string        `json:"failures"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "6f1a3c2e-8d4b-4f6a-9c1e-2b3d4e5f6a7b", body.RunID)
	require.Len(t, body.Accounts, 1)
	require.Len(t, body.Failures, 1)
	require.Equal(t, "unrecognized", body.Failures[0]["error"])
	require.Equal(t, "junk.pdf", body.Failures[0]["source"])
}

func TestImportStatementsFailure(t *testing.T) {
	handler := NewHandler(&mockImporter{err: errors.New("db down")}, nil, 0)

	w := httptest.NewRecorder()
	handler.ImportStatements(w, multipartRequest(t, "/api/v1/statements", map[string]string{"a.pdf": "x"}))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "db down", "internal errors must not leak")
}

func TestImportStatementsNoFiles(t *testing.T) {
	handler := NewHandler(&mockImporter{}, nil, 0)

	w := httptest.NewRecorder()
	handler.ImportStatements(w, multipartRequest(t, "/api/v1/statements", nil))

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAccount(t *testing.T) {
	account := &domain.PortfolioPeriod{
		AccountNumber: "RVL1",
		AccountName:   "John Doe",
		PeriodFrom:    jan1,
		PeriodTo:      dec31,
	}
	srv := NewServer(Options{Importer: &mockImporter{}, Accounts: &mockStore{account: account}})

	tests := []struct {
		name string
		path string
		want int
	}{
		{"found", "/api/v1/accounts/RVL1", http.StatusOK},
		{"not found", "/api/v1/accounts/RVL9", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.Equal(t, tt.want, w.Code)
		})
	}

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/RVL1", nil))
	var got domain.PortfolioPeriod
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, "John Doe", got.AccountName)
	require.Equal(t, account.PeriodTo, got.PeriodTo)
}

func TestAccountRoutesStoreError(t *testing.T) {
	srv := NewServer(Options{Importer: &mockImporter{}, Accounts: &mockStore{err: errors.New("connection refused")}})

	for _, path := range []string{"/api/v1/accounts", "/api/v1/accounts/RVL1", "/api/v1/accounts/RVL1/values", "/api/v1/runs/latest"} {
		w := httptest.NewRecorder()
		srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusInternalServerError, w.Code, path)
	}
}

func TestEmptyListsEncodeAsArrays(t *testing.T) {
	srv := NewServer(Options{Importer: &mockImporter{}, Accounts: &mockStore{}})

	for _, path := range []string{"/api/v1/accounts", "/api/v1/accounts/RVL1/values"} {
		w := httptest.NewRecorder()
		srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, "[]", strings.TrimSpace(w.Body.String()), path)
	}
}

func TestLatestRunNotFound(t *testing.T) {
	srv := NewServer(Options{Importer: &mockImporter{}, Accounts: &mockStore{}})

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs/latest", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}
