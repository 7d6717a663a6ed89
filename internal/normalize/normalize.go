// Package normalize builds the matching key used for rules and recurrence grouping.
package normalize

import (
	"strings"
	"unicode"
)

// Description uppercases text, drops everything except letters, digits,
// whitespace and '*', and collapses whitespace runs to one space.
func Description(text string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			return unicode.ToUpper(r)
		case unicode.IsSpace(r):
			return ' '
		case r == '*':
			return r
		}
		return -1
	}, text)
	return strings.Join(strings.Fields(s), " ")
}

// Pattern prepares a user-supplied rule pattern.
func Pattern(text string) string {
	return Description(text)
}
