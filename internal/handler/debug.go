package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/thorsignia/backend/internal/database"
	"github.com/thorsignia/backend/internal/model"
)

// StatsReader reports the state of the contacts table.
type StatsReader interface {
	Stats(ctx context.Context) (*model.ContactStats, error)
}

type debugResponse struct {
	Status     string         `json:"status"`
	Database   string         `json:"database"`
	Connection string         `json:"connection"`
	Result     []database.Row `json:"result"`
}

// Debug handles GET /api/debug: a round trip through the query interface.
func (h *Handler) Debug(w http.ResponseWriter, r *http.Request) {
	if h.opts.Restricted {
		writeError(w, http.StatusForbidden, restrictedMessage)
		return
	}

	rows, err := h.db.All(r.Context(), "SELECT 1 AS connected")
	if err != nil {
		h.opts.Logger.ErrorContext(r.Context(), "debug query failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":         "Database connection failed",
			"status":        "error",
			"database_type": string(h.db.Kind()),
		})
		return
	}
	writeJSON(w, http.StatusOK, debugResponse{
		Status:     "ok",
		Database:   string(h.db.Kind()),
		Connection: "active",
		Result:     rows,
	})
}

// recentSubmission omits phone, company and message from the debug output.
type recentSubmission struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type tableReport struct {
	Exists           bool              `json:"exists"`
	RowCount         int64             `json:"rowCount"`
	RecentSubmission *recentSubmission `json:"recentSubmission"`
}

type debugDatabaseResponse struct {
	Environment  string      `json:"environment"`
	ReadOnly     bool        `json:"read_only"`
	DatabaseType string      `json:"database_type"`
	Table        tableReport `json:"table"`
}

// DebugDatabase handles GET /api/debug/database.
func (h *Handler) DebugDatabase(w http.ResponseWriter, r *http.Request) {
	if h.opts.Restricted {
		writeError(w, http.StatusForbidden, restrictedMessage)
		return
	}

	resp := debugDatabaseResponse{
		Environment:  h.opts.Environment,
		ReadOnly:     h.opts.ReadOnly,
		DatabaseType: string(h.db.Kind()),
	}
	if h.opts.Stats != nil {
		stats, err := h.opts.Stats.Stats(r.Context())
		if err != nil {
			h.opts.Logger.ErrorContext(r.Context(), "debug stats failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to inspect database")
			return
		}
		resp.Table = reportFromStats(stats)
	}
	writeJSON(w, http.StatusOK, resp)
}

func reportFromStats(s *model.ContactStats) tableReport {
	t := tableReport{Exists: s.TableExists, RowCount: s.RowCount}
	if s.Latest != nil {
		t.RecentSubmission = &recentSubmission{
			ID:        s.Latest.ID,
			Name:      s.Latest.Name,
			Email:     s.Latest.Email,
			CreatedAt: s.Latest.CreatedAt,
		}
	}
	return t
}
