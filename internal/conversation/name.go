package conversation

import "unicode/utf8"

const minNameLength = 2

// SanitizeName trims and collapses whitespace. Any name of at least two
// characters is accepted.
func SanitizeName(message string) (string, bool) {
	name := collapseSpaces(message)
	if utf8.RuneCountInString(name) < minNameLength {
		return "", false
	}
	return name, true
}
