package events

import "time"

// Event is a versioned domain event.
type Event interface {
	EventType() string
}

// AppointmentBookedV1 is emitted once a conversation produced a stored appointment.
// Created is false when an existing appointment for the same slot was reused.
type AppointmentBookedV1 struct {
	EventID       string    `json:"event_id"`
	AppointmentID string    `json:"appointment_id"`
	Phone         string    `json:"phone"`
	CustomerName  string    `json:"customer_name"`
	Service       string    `json:"service"`
	StartTime     time.Time `json:"start_time"`
	Created       bool      `json:"created"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func (AppointmentBookedV1) EventType() string {
	return "booking.appointment.booked.v1"
}
