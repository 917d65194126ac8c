package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Envelope carries transport metadata around an event payload.
type Envelope struct {
	EventID         uuid.UUID       `json:"event_id"`
	EventType       string          `json:"event_type"`
	Aggregate       string          `json:"aggregate"`
	TimestampMicros int64           `json:"timestamp"`
	Payload         json.RawMessage `json:"payload"`
}

var (
	errMissingAggregate = errors.New("events: aggregate is required")
	errNilEvent         = errors.New("events: event required")
	nowFunc             = time.Now
)

// NewEnvelope wraps evt for the given aggregate key (the customer phone).
func NewEnvelope(aggregate string, evt Event) (Envelope, error) {
	if strings.TrimSpace(aggregate) == "" {
		return Envelope{}, errMissingAggregate
	}
	if evt == nil {
		return Envelope{}, errNilEvent
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return Envelope{}, fmt.Errorf("events: marshal payload: %w", err)
	}
	return Envelope{
		EventID:         uuid.New(),
		EventType:       evt.EventType(),
		Aggregate:       aggregate,
		TimestampMicros: nowFunc().UTC().UnixMicro(),
		Payload:         payload,
	}, nil
}
