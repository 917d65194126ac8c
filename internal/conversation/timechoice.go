package conversation

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	exactOptionPattern  = regexp.MustCompile(`^(?:option\s*)?([1-9]\d*)$`)
	optionInTextPattern = regexp.MustCompile(`\boption\s*([1-9]\d*)\b`)
	clockPattern        = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
)

// NormalizeClock reads the first clock time in input ("9", "9:30", "2pm",
// "14:00") and returns it as HH:MM. A 12-hour suffix requires an hour in 1-12;
// without one the hour must be at most 23.
func NormalizeClock(input string) (string, bool) {
	m := clockPattern.FindStringSubmatch(normalize(input))
	if m == nil {
		return "", false
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return "", false
	}
	minute := 0
	if m[2] != "" {
		if minute, err = strconv.Atoi(m[2]); err != nil {
			return "", false
		}
	}
	if minute > 59 {
		return "", false
	}

	switch period := m[3]; period {
	case "am", "pm":
		if hour < 1 || hour > 12 {
			return "", false
		}
		if period == "pm" && hour != 12 {
			hour += 12
		}
		if period == "am" && hour == 12 {
			hour = 0
		}
	default:
		if hour > 23 {
			return "", false
		}
	}

	return fmt.Sprintf("%02d:%02d", hour, minute), true
}

// ParseTimeChoice picks one of the offered slots. A message that is only a
// number (optionally "option N") selects that key and nothing else; otherwise
// "option N" inside the text is tried, then a clock time compared with every
// slot in key order.
func ParseTimeChoice(message string, slots Slots) (string, bool) {
	if len(slots) == 0 {
		return "", false
	}
	text := normalize(message)

	if m := exactOptionPattern.FindStringSubmatch(text); m != nil {
		slot, ok := slots[m[1]]
		return slot, ok
	}

	if m := optionInTextPattern.FindStringSubmatch(text); m != nil {
		if slot, ok := slots[m[1]]; ok {
			return slot, true
		}
	}

	wanted, ok := NormalizeClock(text)
	if !ok {
		return "", false
	}
	for _, key := range slots.Keys() {
		if offered, ok := NormalizeClock(slots[key]); ok && offered == wanted {
			return slots[key], true
		}
	}
	return "", false
}
