package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/thorsignia/backend/internal/model"
	"github.com/thorsignia/backend/internal/repository"
	"github.com/thorsignia/backend/internal/service"
)

const restrictedMessage = "Access restricted in production"

// ContactHandler handles contact form submission and the read endpoints.
type ContactHandler struct {
	contactService service.ContactService
	restricted     bool
	logger         *slog.Logger
}

// NewContactHandler creates a ContactHandler. When restricted is true the
// read endpoints answer 403 regardless of what is stored.
func NewContactHandler(contactService service.ContactService, restricted bool, logger *slog.Logger) *ContactHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContactHandler{contactService: contactService, restricted: restricted, logger: logger}
}

type submitResponse struct {
	ID            int64  `json:"id"`
	Message       string `json:"message"`
	EmailSent     bool   `json:"emailSent"`
	BackupCreated bool   `json:"backupCreated"`
	EmailStatus   string `json:"emailStatus"`
	BackupStatus  string `json:"backupStatus"`
}

// Submit handles POST /api/contacts.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req model.ContactInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	res, err := h.contactService.Submit(r.Context(), req)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to save contact", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save contact")
		return
	}

	writeJSON(w, http.StatusCreated, submitResponse{
		ID:            res.ID,
		Message:       "Contact saved successfully",
		EmailSent:     res.EmailSent(),
		BackupCreated: res.BackupCreated(),
		EmailStatus:   res.EmailStatus,
		BackupStatus:  res.BackupStatus,
	})
}

// List handles GET /api/contacts.
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.restricted {
		writeError(w, http.StatusForbidden, restrictedMessage)
		return
	}

	contacts, err := h.contactService.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list contacts", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch contacts")
		return
	}

	// Return [] not null for empty lists
	if contacts == nil {
		contacts = []*model.Contact{}
	}
	writeJSON(w, http.StatusOK, contacts)
}

// Get handles GET /api/contacts/{id}.
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.restricted {
		writeError(w, http.StatusForbidden, restrictedMessage)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid contact id")
		return
	}

	c, err := h.contactService.Get(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Contact not found")
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to fetch contact", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch contact")
		return
	}
	writeJSON(w, http.StatusOK, c)
}
