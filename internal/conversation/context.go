package conversation

import (
	"sort"
	"strconv"
	"strings"
)

// Context holds the booking fields gathered so far. It is treated as a value:
// transitions build a fresh copy instead of editing the caller's.
type Context struct {
	Service        string `json:"service,omitempty"`
	DayChoice      string `json:"dayChoice,omitempty"`
	DayLabel       string `json:"dayLabel,omitempty"`
	TimeChoice     string `json:"timeChoice,omitempty"`
	CustomerName   string `json:"customerName,omitempty"`
	AvailableSlots Slots  `json:"availableSlots,omitempty"`
}

// Clone returns a deep copy of c.
func (c Context) Clone() Context {
	out := c
	out.AvailableSlots = c.AvailableSlots.Clone()
	return out
}

// IsEmpty reports whether no field has been set.
func (c Context) IsEmpty() bool {
	return c.Service == "" &&
		c.DayChoice == "" &&
		c.DayLabel == "" &&
		c.TimeChoice == "" &&
		c.CustomerName == "" &&
		len(c.AvailableSlots) == 0
}

// withService sets the service and drops everything chosen after it.
func (c Context) withService(service string) Context {
	next := c.Clone()
	next.Service = service
	next.DayChoice = ""
	next.DayLabel = ""
	next.TimeChoice = ""
	next.AvailableSlots = nil
	return next
}

func (c Context) withDay(day DayChoice, slots Slots) Context {
	next := c.Clone()
	next.DayChoice = day.ISODate
	next.DayLabel = day.Label
	next.TimeChoice = ""
	next.AvailableSlots = slots.Clone()
	return next
}

func (c Context) withTime(slot string) Context {
	next := c.Clone()
	next.TimeChoice = slot
	return next
}

func (c Context) withName(name string) Context {
	next := c.Clone()
	next.CustomerName = name
	return next
}

// Slots maps a 1-based option key ("1", "2", ...) to an HH:MM time.
type Slots map[string]string

// Clone copies the mapping. A nil mapping stays nil.
func (s Slots) Clone() Slots {
	if s == nil {
		return nil
	}
	out := make(Slots, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Keys returns the option keys in ascending numeric order. Non-numeric keys
// sort after numeric ones.
func (s Slots) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

// Lines renders the slots as "<key>. <time>" lines joined by newlines.
func (s Slots) Lines() string {
	keys := s.Keys()
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+". "+s[k])
	}
	return strings.Join(lines, "\n")
}
