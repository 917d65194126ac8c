package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Hezi777/barber-pro/internal/appointments"
)

// InboundMessage is a customer message handed to the booking assistant.
type InboundMessage struct {
	Phone             string
	Body              string
	Provider          string
	ProviderMessageID string
	Raw               json.RawMessage
	ReceivedAt        time.Time
}

// ProcessResult is what the assistant decided for one inbound message.
type ProcessResult struct {
	Reply       string
	State       string
	Appointment *appointments.Appointment
	Duplicate   bool
}

// Processor runs the booking conversation for inbound messages.
type Processor interface {
	HandleInbound(ctx context.Context, msg InboundMessage) (*ProcessResult, error)
}

// DetailedError carries extra context for the JSON error body.
type DetailedError interface {
	error
	Details() any
}
