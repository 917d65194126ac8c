package appointments

import (
	"strings"
	"time"
)

// Status is the lifecycle of an appointment.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCanceled  Status = "CANCELED"
)

// Appointment is a booked slot.
type Appointment struct {
	ID           string    `json:"id"`
	Phone        string    `json:"phone"`
	CustomerName string    `json:"customer_name"`
	Service      string    `json:"service"`
	StartTime    time.Time `json:"start_time"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewAppointment is the input to CreateIfAbsent.
type NewAppointment struct {
	Phone        string
	CustomerName string
	Service      string
	StartTime    time.Time
}

// Validate checks the required fields.
func (n NewAppointment) Validate() error {
	if strings.TrimSpace(n.Phone) == "" {
		return ErrMissingPhone
	}
	if strings.TrimSpace(n.Service) == "" {
		return ErrMissingService
	}
	if n.StartTime.IsZero() {
		return ErrMissingStartTime
	}
	return nil
}

// sameSlot reports whether a matches the idempotency key of n.
func (n NewAppointment) sameSlot(a *Appointment) bool {
	return a.Phone == n.Phone &&
		a.Service == n.Service &&
		a.StartTime.Equal(n.StartTime) &&
		a.Status != StatusCanceled
}

// ListFilter narrows List. A zero Day lists everything, newest first.
type ListFilter struct {
	Day time.Time
}

// DayRange returns the UTC [start, end) bounds of the filter's day.
func (f ListFilter) DayRange() (time.Time, time.Time) {
	d := f.Day.UTC()
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
