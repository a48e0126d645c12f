package sanitizer

import (
	"strings"
	"unicode"
)

// NormalizeID lowercases a hex document id. Ids are case-insensitive on input
// and stored lowercase.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeToken strips all whitespace from an opaque payment token. Tokens
// pasted from clients often carry stray newlines.
func NormalizeToken(token string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, token)
}

func NormalizeCurrency(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
