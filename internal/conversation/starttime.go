package conversation

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ErrIncompleteContext means a context cannot be turned into a booking.
var ErrIncompleteContext = errors.New("conversation: incomplete booking context")

var (
	strictDayPattern  = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	strictTimePattern = regexp.MustCompile(`^(\d{2}):(\d{2})$`)
)

// DeriveStartTime combines dayChoice and timeChoice into a UTC instant.
// Both fields are re-validated rather than trusted.
func DeriveStartTime(c Context) (time.Time, error) {
	if c.DayChoice == "" || c.TimeChoice == "" {
		return time.Time{}, fmt.Errorf("%w: dayChoice=%q timeChoice=%q", ErrIncompleteContext, c.DayChoice, c.TimeChoice)
	}

	day := strictDayPattern.FindStringSubmatch(c.DayChoice)
	if day == nil {
		return time.Time{}, fmt.Errorf("%w: malformed dayChoice %q", ErrIncompleteContext, c.DayChoice)
	}
	clock := strictTimePattern.FindStringSubmatch(c.TimeChoice)
	if clock == nil {
		return time.Time{}, fmt.Errorf("%w: malformed timeChoice %q", ErrIncompleteContext, c.TimeChoice)
	}

	date, ok := calendarDate(atoi(day[1]), atoi(day[2]), atoi(day[3]), time.UTC)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrIncompleteContext, c.DayChoice)
	}
	hour, minute := atoi(clock[1]), atoi(clock[2])
	if hour > 23 || minute > 59 {
		return time.Time{}, fmt.Errorf("%w: invalid time %q", ErrIncompleteContext, c.TimeChoice)
	}

	return date.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute), nil
}
