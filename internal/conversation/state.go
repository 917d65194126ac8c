package conversation

import "strings"

// State is the control variable of a booking conversation.
type State string

const (
	StateNew             State = "NEW"
	StateAwaitingService State = "AWAITING_SERVICE"
	StateAwaitingDay     State = "AWAITING_DAY"
	StateAwaitingTime    State = "AWAITING_TIME"
	StateAwaitingName    State = "AWAITING_NAME"
	StateConfirmed       State = "CONFIRMED"
)

// AllStates lists every recognized state in flow order.
func AllStates() []State {
	return []State{
		StateNew,
		StateAwaitingService,
		StateAwaitingDay,
		StateAwaitingTime,
		StateAwaitingName,
		StateConfirmed,
	}
}

// ParseState converts a stored value into a State. Unknown values are kept
// as-is so the engine can route them through its reset branch.
func ParseState(raw string) State {
	return State(strings.ToUpper(strings.TrimSpace(raw)))
}

// Valid reports whether s is one of the recognized states.
func (s State) Valid() bool {
	for _, known := range AllStates() {
		if s == known {
			return true
		}
	}
	return false
}

// Awaiting reports whether the conversation is waiting for a specific answer.
func (s State) Awaiting() bool {
	switch s {
	case StateAwaitingService, StateAwaitingDay, StateAwaitingTime, StateAwaitingName:
		return true
	default:
		return false
	}
}

func (s State) String() string {
	return string(s)
}
