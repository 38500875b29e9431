package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"
)

// Options configures the HTTP server.
type Options struct {
	Port        string
	Importer    Importer
	Accounts    AccountStore // optional, account routes are disabled without it
	AdminAPIKey string
	// MaxUploadBytes bounds the request body of upload routes.
	MaxUploadBytes int64
}

// NewServer creates an HTTP server with all routes configured.
func NewServer(opts Options) *http.Server {
	handler := NewHandler(opts.Importer, opts.Accounts, opts.MaxUploadBytes)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handler.Health)
	mux.HandleFunc("POST /api/v1/parse", handler.ParseStatement)

	importHandler := http.HandlerFunc(handler.ImportStatements)
	if opts.AdminAPIKey != "" {
		mux.Handle("POST /api/v1/statements", requireAuth(opts.AdminAPIKey, importHandler))
	} else {
		mux.Handle("POST /api/v1/statements", importHandler)
	}

	if opts.Accounts != nil {
		mux.HandleFunc("GET /api/v1/accounts", handler.ListAccounts)
		mux.HandleFunc("GET /api/v1/accounts/{number}", handler.GetAccount)
		mux.HandleFunc("GET /api/v1/accounts/{number}/values", handler.ListValues)
		mux.HandleFunc("GET /api/v1/runs/latest", handler.LatestRun)
	}

	return &http.Server{
		Addr:         ":" + opts.Port,
		Handler:      mux,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
