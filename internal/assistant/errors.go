package assistant

import (
	"errors"

	"github.com/Hezi777/barber-pro/internal/conversation"
)

// ErrInconsistentConfirmation means the engine confirmed a booking whose
// context has no usable day or time.
var ErrInconsistentConfirmation = errors.New("assistant: inconsistent confirmation")

// ConfirmationError carries the offending context for the HTTP error body.
type ConfirmationError struct {
	Context conversation.Context
	Err     error
}

func (e *ConfirmationError) Error() string {
	return "Conversation reached CONFIRMED without valid day/time in context."
}

func (e *ConfirmationError) Unwrap() error { return e.Err }

func (e *ConfirmationError) Is(target error) bool {
	return target == ErrInconsistentConfirmation
}

// Details is rendered as the "details" field of the error response.
func (e *ConfirmationError) Details() any {
	return e.Context
}
