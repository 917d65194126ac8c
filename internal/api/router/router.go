package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Hezi777/barber-pro/internal/appointments"
	"github.com/Hezi777/barber-pro/internal/conversations"
	"github.com/Hezi777/barber-pro/internal/demo"
	httpmiddleware "github.com/Hezi777/barber-pro/internal/http/middleware"
	"github.com/Hezi777/barber-pro/internal/messaging"
	"github.com/Hezi777/barber-pro/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	MessagingHandler    *messaging.Handler
	ConversationHandler *conversations.Handler
	AppointmentHandler  *appointments.Handler
	SeedHandler         *demo.Handler
	MetricsHandler      http.Handler

	// AdminAuthSecret guards the dashboard API when set.
	AdminAuthSecret    string
	CORSAllowedOrigins []string

	// WebhookRateLimit is requests/sec per client IP; zero disables limiting.
	WebhookRateLimit float64
	WebhookRateBurst int
	// Done stops background work such as rate limiter cleanup.
	Done <-chan struct{}
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Inbound customer messages
	r.Group(func(webhooks chi.Router) {
		if cfg.WebhookRateLimit > 0 {
			webhooks.Use(httpmiddleware.RateLimit(cfg.WebhookRateLimit, cfg.WebhookRateBurst, cfg.Done))
		}
		if cfg.MessagingHandler != nil {
			webhooks.Post("/api/webhooks/whatsapp", cfg.MessagingHandler.WhatsAppWebhook)
			webhooks.Post("/webhooks/twilio", cfg.MessagingHandler.TwilioWebhook)
		}
	})

	// Dashboard API
	r.Group(func(api chi.Router) {
		if cfg.AdminAuthSecret != "" {
			api.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
		}
		if cfg.AppointmentHandler != nil {
			api.Get("/api/appointments", cfg.AppointmentHandler.List)
			api.Post("/api/appointments/{id}/confirm", cfg.AppointmentHandler.Confirm)
		}
		if cfg.ConversationHandler != nil {
			api.Get("/api/conversations/{phone}", cfg.ConversationHandler.Get)
			api.Delete("/api/conversations/{phone}", cfg.ConversationHandler.Reset)
		}
		if cfg.MessagingHandler != nil {
			api.Get("/api/conversations/{phone}/messages", cfg.MessagingHandler.Transcript)
		}
	})

	if cfg.SeedHandler != nil {
		r.Post("/api/dev/seed", cfg.SeedHandler.Seed)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "Not found."})
	})
	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
