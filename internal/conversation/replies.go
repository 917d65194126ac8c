package conversation

import "fmt"

const (
	replyAskDay         = "Great. What day do you prefer? (Example: tomorrow, Monday, or 2026-02-12)"
	replyDayMiss        = "I couldn't read that day. Please send a weekday, 'tomorrow', or a date like 2026-02-12."
	replyAskName        = "Perfect. What's your full name for the booking?"
	replyNameMiss       = "Please send a valid name (at least 2 characters)."
	replySlotsFooter    = "Reply with a number (for example, 1) or a time (for example, 10:00 AM)."
	replyTimeMissHeader = "Please choose a valid time from the options:"
)

func (e *Engine) welcomeReply() string {
	return fmt.Sprintf("Welcome to %s. What service would you like?\n%s", e.shopName, serviceMenu(e.services))
}

func (e *Engine) serviceMissReply() string {
	return fmt.Sprintf("Please choose one of these services: %s.", serviceList(e.services))
}

func (e *Engine) restartReply() string {
	return fmt.Sprintf("If you'd like another booking, tell me the service: %s.", serviceList(e.services))
}

func slotsReply(label string, slots Slots) string {
	return fmt.Sprintf("Available times for %s:\n%s\n%s", label, slots.Lines(), replySlotsFooter)
}

func timeMissReply(slots Slots) string {
	return replyTimeMissHeader + "\n" + slots.Lines()
}

func confirmedReply(c Context) string {
	return fmt.Sprintf("Thanks %s. Your %s is booked for %s at %s. Reply anytime to start a new booking.",
		c.CustomerName,
		orDefault(c.Service, "service"),
		orDefault(c.DayChoice, "your selected day"),
		orDefault(c.TimeChoice, "your selected time"),
	)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
