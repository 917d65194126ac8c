package messaging

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Hezi777/barber-pro/internal/conversations"
	"github.com/Hezi777/barber-pro/pkg/logging"
)

var webhookTracer = otel.Tracer("barberpro.internal.messaging.webhook")

const maxWebhookBody = 1 << 20

// WhatsAppWebhookRequest is the JSON body of the WhatsApp-style webhook.
type WhatsAppWebhookRequest struct {
	From      string          `json:"from" validate:"required,e164strict"`
	Body      string          `json:"body" validate:"required"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
	Provider  string          `json:"provider,omitempty"`
	Raw       json.RawMessage `json:"raw,omitempty"`
}

// Handler serves the inbound webhooks and the transcript endpoint.
type Handler struct {
	processor       Processor
	messages        MessageLog
	validate        *validator.Validate
	twilioAuthToken string
	logger          *logging.Logger
	now             func() time.Time
}

// NewHandler creates a new messaging handler. An empty twilioAuthToken
// disables signature checks.
func NewHandler(processor Processor, messages MessageLog, twilioAuthToken string, logger *logging.Logger) *Handler {
	if processor == nil {
		panic("messaging: processor cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		processor:       processor,
		messages:        messages,
		validate:        NewValidator(),
		twilioAuthToken: twilioAuthToken,
		logger:          logger,
		now:             time.Now,
	}
}

// WhatsAppWebhook handles POST /api/webhooks/whatsapp.
func (h *Handler) WhatsAppWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := webhookTracer.Start(r.Context(), "messaging.whatsapp.webhook")
	defer span.End()

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil || !json.Valid(raw) {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload.", nil)
		return
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '{' {
		writeError(w, http.StatusBadRequest, "Request body must be a JSON object.", nil)
		return
	}

	var req WhatsAppWebhookRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && (typeErr.Field == "from" || typeErr.Field == "body") {
			writeError(w, http.StatusBadRequest, "'"+typeErr.Field+"' is required and must be a non-empty string.", nil)
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON payload.", nil)
		return
	}
	req.From = strings.TrimSpace(req.From)
	req.Body = strings.TrimSpace(req.Body)
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err), nil)
		return
	}

	payload := req.Raw
	if len(payload) == 0 || string(payload) == "null" {
		payload = raw
	}
	span.SetAttributes(attribute.String("provider", req.Provider))

	res, err := h.processor.HandleInbound(ctx, InboundMessage{
		Phone:      req.From,
		Body:       req.Body,
		Provider:   req.Provider,
		Raw:        payload,
		ReceivedAt: h.now().UTC(),
	})
	if err != nil {
		span.RecordError(err)
		h.logger.Error("failed to process inbound message", "phone", req.From, "error", err)
		writeProcessError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":          true,
		"replyText":   res.Reply,
		"appointment": res.Appointment,
	})
}

// TwilioWebhook handles POST /webhooks/twilio and answers with TwiML.
func (h *Handler) TwilioWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := webhookTracer.Start(r.Context(), "messaging.twilio.webhook")
	defer span.End()

	if h.twilioAuthToken != "" && !ValidateTwilioSignature(r, h.twilioAuthToken, buildAbsoluteURL(r)) {
		h.logger.Warn("invalid twilio signature")
		span.RecordError(errors.New("invalid twilio signature"))
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	webhook, err := ParseTwilioWebhook(r)
	if err != nil {
		h.logger.Error("failed to parse twilio webhook", "error", err)
		span.RecordError(err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	phone := NormalizeE164(webhook.From)
	if !IsE164(phone) {
		h.logger.Warn("twilio webhook with invalid sender", "from", webhook.From)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	body := strings.TrimSpace(webhook.Body)
	if body == "" {
		writeTwiML(w, "")
		return
	}

	raw, _ := json.Marshal(webhook.Form)
	res, err := h.processor.HandleInbound(ctx, InboundMessage{
		Phone:             phone,
		Body:              body,
		Provider:          "twilio",
		ProviderMessageID: webhook.MessageSid,
		Raw:               raw,
		ReceivedAt:        h.now().UTC(),
	})
	if err != nil {
		span.RecordError(err)
		h.logger.Error("failed to process twilio message", "phone", phone, "message_sid", webhook.MessageSid, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if res.Duplicate {
		h.logger.Info("duplicate twilio delivery ignored", "message_sid", webhook.MessageSid)
		writeTwiML(w, "")
		return
	}
	writeTwiML(w, res.Reply)
}

// Transcript handles GET /api/conversations/{phone}/messages.
func (h *Handler) Transcript(w http.ResponseWriter, r *http.Request) {
	phone, ok := conversations.PhoneParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Phone is required.", nil)
		return
	}
	if h.messages == nil {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": []LoggedMessage{}})
		return
	}
	items, err := h.messages.ListByPhone(r.Context(), phone, 0)
	if err != nil {
		h.logger.Error("failed to list messages", "phone", phone, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch messages.", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": items})
}

func writeProcessError(w http.ResponseWriter, err error) {
	var detailed DetailedError
	if errors.As(err, &detailed) {
		writeError(w, http.StatusInternalServerError, detailed.Error(), detailed.Details())
		return
	}
	writeError(w, http.StatusInternalServerError, "Unexpected server error.", nil)
}

func writeError(w http.ResponseWriter, status int, msg string, details any) {
	body := map[string]any{"ok": false, "error": msg}
	if details != nil {
		body["details"] = details
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeTwiML(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(twiml(message))
}
