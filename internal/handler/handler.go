package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/thorsignia/backend/internal/database"
)

// Options describe the deployment for the operational endpoints.
type Options struct {
	Environment string
	ReadOnly    bool
	Restricted  bool
	CORSOrigin  string
	Logger      *slog.Logger

	// Stats backs GET /api/debug/database. Nil reports the table as absent.
	Stats StatsReader
}

// Handler serves the operational endpoints (health, debug, banner) and the
// CORS middleware.
type Handler struct {
	db   database.DB
	opts Options
}

func New(db database.DB, opts Options) *Handler {
	if opts.CORSOrigin == "" {
		opts.CORSOrigin = "*"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Handler{db: db, opts: opts}
}

func (h *Handler) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", h.opts.CORSOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if h.opts.CORSOrigin != "*" {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Root handles GET / when no static site is served.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Thor Signia API is running"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
