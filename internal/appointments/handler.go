package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Hezi777/barber-pro/pkg/logging"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Handler serves the dashboard's appointment endpoints.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new appointments handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /api/appointments?date=YYYY-MM-DD.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var filter ListFilter
	if raw := r.URL.Query().Get("date"); raw != "" {
		day, err := time.Parse("2006-01-02", raw)
		if !datePattern.MatchString(raw) || err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "Invalid 'date' format. Use YYYY-MM-DD."})
			return
		}
		filter.Day = day
	}

	items, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "Failed to fetch appointments.", "details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": items})
}

// Confirm handles POST /api/appointments/{id}/confirm.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "Appointment id is required."})
		return
	}

	appt, err := h.repo.Confirm(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "Appointment not found."})
			return
		}
		h.logger.Error("failed to confirm appointment", "id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "Failed to confirm appointment.", "details": err.Error()})
		return
	}

	h.logger.Info("appointment confirmed", "id", appt.ID, "phone", appt.Phone)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": appt})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
