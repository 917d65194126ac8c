package conversation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ServiceRule maps a canonical service label to the phrases that select it.
type ServiceRule struct {
	Label    string
	Patterns []*regexp.Regexp
}

// NewServiceRule compiles case-insensitive patterns for label. It panics on an
// invalid pattern, so it is meant for package-level tables.
func NewServiceRule(label string, patterns ...string) ServiceRule {
	rule := ServiceRule{Label: label}
	for _, p := range patterns {
		rule.Patterns = append(rule.Patterns, regexp.MustCompile(`(?i)`+p))
	}
	return rule
}

// Matches reports whether any pattern matches the normalized message.
func (r ServiceRule) Matches(normalized string) bool {
	for _, p := range r.Patterns {
		if p.MatchString(normalized) {
			return true
		}
	}
	return false
}

// DefaultServices is the shop's service menu. Order is the tie-break.
var DefaultServices = []ServiceRule{
	NewServiceRule("haircut", `\bhair\s?cut\b`, `\bcut\b`, `\btrim hair\b`),
	NewServiceRule("beard trim", `\bbeard\b`, `\bbeard trim\b`, `\bshave\b`),
	NewServiceRule("color", `\bcolor\b`, `\bcolour\b`, `\bdye\b`),
}

// ParseService returns the label of the first default rule matching message.
func ParseService(message string) (string, bool) {
	return matchService(DefaultServices, message)
}

func matchService(rules []ServiceRule, message string) (string, bool) {
	normalized := normalize(message)
	if normalized == "" {
		return "", false
	}
	for _, rule := range rules {
		if rule.Matches(normalized) {
			return rule.Label, true
		}
	}
	return "", false
}

// serviceList renders labels as "a, b, or c".
func serviceList(rules []ServiceRule) string {
	labels := make([]string, 0, len(rules))
	for _, r := range rules {
		labels = append(labels, r.Label)
	}
	switch len(labels) {
	case 0:
		return ""
	case 1:
		return labels[0]
	case 2:
		return labels[0] + " or " + labels[1]
	default:
		return strings.Join(labels[:len(labels)-1], ", ") + ", or " + labels[len(labels)-1]
	}
}

// serviceMenu renders labels as "- Label" lines.
func serviceMenu(rules []ServiceRule) string {
	lines := make([]string, 0, len(rules))
	for _, r := range rules {
		lines = append(lines, "- "+capitalize(r.Label))
	}
	return strings.Join(lines, "\n")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
