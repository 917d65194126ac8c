package conversations

import (
	"time"

	"github.com/Hezi777/barber-pro/internal/conversation"
)

// Record is the stored conversation for one customer phone.
type Record struct {
	Phone     string               `json:"phone"`
	State     conversation.State   `json:"state"`
	Context   conversation.Context `json:"context"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// NewRecord returns a fresh conversation at the start of the flow.
func NewRecord(phone string, now time.Time) Record {
	return Record{
		Phone:     phone,
		State:     conversation.StateNew,
		Context:   conversation.Context{},
		UpdatedAt: now.UTC(),
	}
}

// IdleSince reports whether the record has not been touched for at least d.
// A zero d disables the check.
func (r Record) IdleSince(now time.Time, d time.Duration) bool {
	if d <= 0 || r.UpdatedAt.IsZero() {
		return false
	}
	return now.Sub(r.UpdatedAt) >= d
}
