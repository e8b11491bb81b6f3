package handler

import (
	"net/http"
)

type healthResponse struct {
	Status       string `json:"status"`
	Environment  string `json:"environment"`
	DatabaseType string `json:"database_type"`
	ReadOnly     bool   `json:"read_only"`
}

// Health reports liveness plus the engine that was selected at startup. It
// always answers 200; a failed ping shows up as status "unhealthy".
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:       "ok",
		Environment:  h.opts.Environment,
		DatabaseType: string(h.db.Kind()),
		ReadOnly:     h.opts.ReadOnly,
	}
	if err := h.db.Ping(r.Context()); err != nil {
		h.opts.Logger.WarnContext(r.Context(), "health check ping failed", "error", err)
		resp.Status = "unhealthy"
	}
	writeJSON(w, http.StatusOK, resp)
}
