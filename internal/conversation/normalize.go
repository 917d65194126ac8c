package conversation

import "strings"

// normalize trims, lowercases and collapses whitespace runs to one space.
func normalize(message string) string {
	return strings.ToLower(collapseSpaces(message))
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
