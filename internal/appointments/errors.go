package appointments

import "errors"

var (
	// ErrNotFound is returned when an appointment id does not exist.
	ErrNotFound = errors.New("appointments: not found")

	// ErrMissingPhone is returned when an appointment has no customer phone.
	ErrMissingPhone = errors.New("appointments: phone is required")

	// ErrMissingService is returned when an appointment has no service.
	ErrMissingService = errors.New("appointments: service is required")

	// ErrMissingStartTime is returned when an appointment has no start time.
	ErrMissingStartTime = errors.New("appointments: start time is required")
)
