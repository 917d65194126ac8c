package conversations

import "errors"

// ErrNotFound is returned when no conversation exists for a phone.
var ErrNotFound = errors.New("conversations: not found")
