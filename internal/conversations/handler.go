package conversations

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Hezi777/barber-pro/pkg/logging"
)

// Handler exposes conversation records to the dashboard.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new conversations handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Get handles GET /api/conversations/{phone}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	phone, ok := PhoneParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "Phone is required."})
		return
	}
	rec, err := h.repo.Get(r.Context(), phone)
	if err != nil {
		h.fail(w, phone, "Failed to fetch conversation.", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": rec})
}

// Reset handles DELETE /api/conversations/{phone}.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	phone, ok := PhoneParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "Phone is required."})
		return
	}
	rec, err := h.repo.Reset(r.Context(), phone)
	if err != nil {
		h.fail(w, phone, "Failed to reset conversation.", err)
		return
	}
	h.logger.Info("conversation reset", "phone", phone)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": rec})
}

// PhoneParam reads the {phone} route parameter, undoing percent-encoding of
// the leading plus sign.
func PhoneParam(r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "phone")
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	phone := strings.TrimSpace(raw)
	return phone, phone != ""
}

func (h *Handler) fail(w http.ResponseWriter, phone, msg string, err error) {
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "Conversation not found."})
		return
	}
	h.logger.Error(msg, "phone", phone, "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": msg, "details": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
