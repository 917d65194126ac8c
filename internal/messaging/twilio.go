package messaging

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"

	"github.com/twilio/twilio-go/client"
)

// ValidateTwilioSignature checks X-Twilio-Signature against the auth token.
// Repeated form keys keep their first value, which is all Twilio sends.
func ValidateTwilioSignature(r *http.Request, authToken, webhookURL string) bool {
	signature := r.Header.Get("X-Twilio-Signature")
	if signature == "" {
		return false
	}
	if err := r.ParseForm(); err != nil {
		return false
	}

	params := make(map[string]string, len(r.PostForm))
	for key := range r.PostForm {
		params[key] = r.PostForm.Get(key)
	}
	validator := client.NewRequestValidator(authToken)
	return validator.Validate(webhookURL, params, signature)
}

// TwilioWebhookRequest is the subset of Twilio's inbound form we use.
type TwilioWebhookRequest struct {
	MessageSid string
	AccountSid string
	From       string
	To         string
	Body       string
	Form       url.Values
}

// ParseTwilioWebhook parses a Twilio webhook request.
func ParseTwilioWebhook(r *http.Request) (*TwilioWebhookRequest, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse form: %w", err)
	}
	return &TwilioWebhookRequest{
		MessageSid: r.PostForm.Get("MessageSid"),
		AccountSid: r.PostForm.Get("AccountSid"),
		From:       r.PostForm.Get("From"),
		To:         r.PostForm.Get("To"),
		Body:       r.PostForm.Get("Body"),
		Form:       r.PostForm,
	}, nil
}

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message,omitempty"`
}

// twiml renders a TwiML reply. An empty message renders <Response></Response>.
func twiml(message string) []byte {
	out, err := xml.Marshal(twimlResponse{Message: message})
	if err != nil {
		return []byte(xml.Header + "<Response></Response>")
	}
	return append([]byte(xml.Header), out...)
}

// buildAbsoluteURL reconstructs the public URL Twilio signed.
func buildAbsoluteURL(r *http.Request) string {
	if r.URL == nil {
		return ""
	}
	if r.URL.Scheme != "" {
		return r.URL.String()
	}
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "https"
		if r.TLS == nil {
			scheme = "http"
		}
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return fmt.Sprintf("%s://%s%s", scheme, host, r.URL.RequestURI())
}
