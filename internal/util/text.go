package util

import (
	"regexp"
	"strings"
)

var (
	reSpaces    = regexp.MustCompile(`\s+`)
	reCodeShape = regexp.MustCompile(`^[A-Z0-9$@][A-Z0-9$@\-/.]{1,14}$`)
)

func NormalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

// CollapseKey upper-cases and removes all whitespace, the invariant form for
// catalog keys.
func CollapseKey(input string) string {
	return reSpaces.ReplaceAllString(strings.ToUpper(input), "")
}

// LooksLikeCode reports whether a token is shaped like a cabinet SKU: short,
// starts alphanumeric, contains at least one digit and one letter-ish rune.
// OCR substitutes ($, @) count as both.
func LooksLikeCode(input string) bool {
	token := strings.ToUpper(strings.TrimSpace(input))
	if !reCodeShape.MatchString(token) {
		return false
	}
	hasLetter := false
	hasDigit := false
	for _, r := range token {
		switch {
		case r >= 'A' && r <= 'Z', r == '$':
			hasLetter = true
		case r >= '0' && r <= '9', r == '@':
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}
