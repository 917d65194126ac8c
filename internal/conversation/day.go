package conversation

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// ISODateLayout is the canonical dayChoice format.
	ISODateLayout = "2006-01-02"
	// DayLabelLayout renders dates like "Monday, Jan 6".
	DayLabelLayout = "Monday, Jan 2"
)

// DayChoice is a resolved calendar day.
type DayChoice struct {
	ISODate string
	Label   string
}

var (
	isoDatePattern     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	// The leading guard keeps M-D from matching the tail of a year-first date.
	numericDatePattern = regexp.MustCompile(`(?:^|[^\d/-])(\d{1,2})[/-](\d{1,2})(?:[/-](\d{2,4}))?\b`)
)

type weekdayAlias struct {
	pattern *regexp.Regexp
	day     time.Weekday
}

func newWeekdayAlias(alias string, day time.Weekday) weekdayAlias {
	return weekdayAlias{pattern: regexp.MustCompile(`\b` + alias + `\b`), day: day}
}

// weekdayAliases is scanned in order; the first alias found wins.
var weekdayAliases = []weekdayAlias{
	newWeekdayAlias("sunday", time.Sunday),
	newWeekdayAlias("sun", time.Sunday),
	newWeekdayAlias("monday", time.Monday),
	newWeekdayAlias("mon", time.Monday),
	newWeekdayAlias("tuesday", time.Tuesday),
	newWeekdayAlias("tue", time.Tuesday),
	newWeekdayAlias("tues", time.Tuesday),
	newWeekdayAlias("wednesday", time.Wednesday),
	newWeekdayAlias("wed", time.Wednesday),
	newWeekdayAlias("thursday", time.Thursday),
	newWeekdayAlias("thu", time.Thursday),
	newWeekdayAlias("thurs", time.Thursday),
	newWeekdayAlias("friday", time.Friday),
	newWeekdayAlias("fri", time.Friday),
	newWeekdayAlias("saturday", time.Saturday),
	newWeekdayAlias("sat", time.Saturday),
}

// ParseDay resolves a free-text day relative to now, using now's location for
// "today". An explicit ISO date wins over the today/tomorrow keywords, which
// win over numeric M/D dates and weekday names.
func ParseDay(message string, now time.Time) (DayChoice, bool) {
	text := normalize(message)
	if text == "" {
		return DayChoice{}, false
	}
	today := midnight(now)

	if d, ok := parseISODate(text, today.Location()); ok {
		return newDayChoice(d), true
	}
	if strings.Contains(text, "today") {
		return newDayChoice(today), true
	}
	if strings.Contains(text, "tomorrow") {
		return newDayChoice(today.AddDate(0, 0, 1)), true
	}
	if d, ok := parseNumericDate(text, today); ok {
		return newDayChoice(d), true
	}
	if d, ok := parseWeekday(text, today); ok {
		return newDayChoice(d), true
	}
	return DayChoice{}, false
}

func newDayChoice(d time.Time) DayChoice {
	return DayChoice{ISODate: d.Format(ISODateLayout), Label: d.Format(DayLabelLayout)}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func parseISODate(text string, loc *time.Location) (time.Time, bool) {
	m := isoDatePattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	return calendarDate(atoi(m[1]), atoi(m[2]), atoi(m[3]), loc)
}

func parseNumericDate(text string, today time.Time) (time.Time, bool) {
	m := numericDatePattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	month, day := atoi(m[1]), atoi(m[2])
	year := today.Year()
	if m[3] != "" {
		year = atoi(m[3])
	}
	if year < 100 {
		year += 2000
	}
	return calendarDate(year, month, day, today.Location())
}

func parseWeekday(text string, today time.Time) (time.Time, bool) {
	for _, alias := range weekdayAliases {
		if !alias.pattern.MatchString(text) {
			continue
		}
		offset := (int(alias.day) - int(today.Weekday()) + 7) % 7
		return today.AddDate(0, 0, offset), true
	}
	return time.Time{}, false
}

// calendarDate builds a date and rejects values time.Date would normalize,
// such as February 30.
func calendarDate(year, month, day int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
