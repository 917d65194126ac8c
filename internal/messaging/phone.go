package messaging

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidPhone is returned for numbers that are not E.164.
var ErrInvalidPhone = errors.New("messaging: phone must be E.164")

var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)

// IsE164 reports whether value is a strict E.164 number such as +972501234567.
func IsE164(value string) bool {
	return e164Pattern.MatchString(value)
}

// NormalizeE164 strips channel prefixes ("whatsapp:") and formatting
// characters. The result still has to pass IsE164.
func NormalizeE164(value string) string {
	value = strings.TrimSpace(value)
	if i := strings.Index(value, ":"); i >= 0 {
		value = strings.TrimSpace(value[i+1:])
	}
	var b strings.Builder
	for i, r := range value {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return value
		}
	}
	return b.String()
}
