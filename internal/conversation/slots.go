package conversation

import (
	"strconv"
	"strings"
)

// SlotProvider offers the bookable times for a day.
type SlotProvider interface {
	SlotsFor(isoDate string) Slots
}

// SlotProviderFunc adapts a function to SlotProvider.
type SlotProviderFunc func(isoDate string) Slots

// SlotsFor calls f.
func (f SlotProviderFunc) SlotsFor(isoDate string) Slots {
	return f(isoDate)
}

// DefaultSlotTemplates are the fixed time sets the mock rotates through.
var DefaultSlotTemplates = [][]string{
	{"10:00", "12:30", "14:00", "16:30"},
	{"09:30", "11:00", "13:30", "15:00"},
	{"10:30", "12:00", "14:30", "17:00"},
	{"09:00", "11:30", "14:00", "18:00"},
}

// MockSlots derives slots from the date string alone. It does not look at
// existing bookings.
type MockSlots struct {
	Templates [][]string
}

// SlotsFor seeds on the date's digits: the template is seed mod len(templates)
// and the count is 3 or 4 depending on the seed's parity.
func (m MockSlots) SlotsFor(isoDate string) Slots {
	templates := m.Templates
	if len(templates) == 0 {
		templates = DefaultSlotTemplates
	}

	seed, err := strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(isoDate), "-", ""), 10, 64)
	if err != nil || seed < 0 {
		seed = 0
	}

	template := templates[seed%int64(len(templates))]
	count := 3 + int(seed%2)
	if count > len(template) {
		count = len(template)
	}

	slots := make(Slots, count)
	for i := 0; i < count; i++ {
		slots[strconv.Itoa(i+1)] = template[i]
	}
	return slots
}
