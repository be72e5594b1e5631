package domain

import "strings"

// ValidCredential reports whether every rune fits in a single byte.
// Request headers are encoded as ISO-8859-1, so anything above 255 is rejected.
func ValidCredential(credential string) bool {
	for _, r := range credential {
		if r > 255 {
			return false
		}
	}
	return true
}

// SanitizeCredential trims the input and drops runes outside the single-byte range.
func SanitizeCredential(input string) string {
	return strings.Map(func(r rune) rune {
		if r > 255 {
			return -1
		}
		return r
	}, strings.TrimSpace(input))
}
