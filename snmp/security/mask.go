package security

import "strings"

// Mask hides a secret for logging, keeping only its first and last
// characters. Strings of two characters or fewer are fully masked.
func Mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 2 {
		return strings.Repeat("*", len(s))
	}
	return s[:1] + strings.Repeat("*", len(s)-2) + s[len(s)-1:]
}
