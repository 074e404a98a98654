package handlers

import "strings"

// Validation limits.
const (
	MaxEmailLength    = 254
	MaxPhoneLength    = 32
	MaxPasswordLength = 128
	MaxCodeLength     = 128
)

// SanitizeEmail trims and lowercases email; returns empty if over max length.
func SanitizeEmail(email string) string {
	s := strings.TrimSpace(strings.ToLower(email))
	if len(s) > MaxEmailLength {
		return ""
	}
	return s
}

// SanitizePhone trims a phone number and strips internal spaces; returns empty if over max length.
func SanitizePhone(phone string) string {
	s := strings.ReplaceAll(strings.TrimSpace(phone), " ", "")
	if len(s) > MaxPhoneLength {
		return ""
	}
	return s
}

// SanitizePassword trims password; returns empty if over max length.
func SanitizePassword(password string) string {
	s := strings.TrimSpace(password)
	if len(s) > MaxPasswordLength {
		return ""
	}
	return s
}
