package utils

import (
	"regexp"
	"strings"
)

var (
	phoneRegex     = regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)
	phoneSeparator = regexp.MustCompile(`[\s\-().]`)
)

// IsValidPhone accepts E.164 numbers, tolerating spaces, dashes, dots and
// parentheses between digits.
func IsValidPhone(phone string) bool {
	return phoneRegex.MatchString(phoneSeparator.ReplaceAllString(strings.TrimSpace(phone), ""))
}

// NormalizePhone strips separators. A leading + is kept but never added,
// since the country code cannot be guessed.
func NormalizePhone(phone string) string {
	return phoneSeparator.ReplaceAllString(strings.TrimSpace(phone), "")
}

// MaskPhone keeps the last four digits for logs.
func MaskPhone(phone string) string {
	if len(phone) < 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
