package utils

import (
	"regexp"
	"strconv"
	"strings"
)

// sanitize.go - input sanitization and normalization utilities

var fivemColorCode = regexp.MustCompile(`\^\d`)

// SafeString trims a value and truncates it to max bytes. Empty or
// whitespace-only input yields "".
func SafeString(v string, max int) string {
	s := strings.TrimSpace(v)
	if s == "" {
		return ""
	}
	if len(s) > max {
		return s[:max]
	}
	return s
}

// ClampInt parses s as an integer and clamps it into [min, max].
// Unparseable input yields the fallback.
func ClampInt(s string, min, max, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

// StripServerCodes removes FiveM ^n color codes from a hostname string.
func StripServerCodes(s string) string {
	return strings.TrimSpace(fivemColorCode.ReplaceAllString(s, ""))
}

// EscapeSQLWildcards escapes SQL LIKE wildcard characters so user input
// can be embedded in a LIKE pattern safely.
func EscapeSQLWildcards(input string) string {
	input = strings.ReplaceAll(input, "\\", "\\\\")
	input = strings.ReplaceAll(input, "%", "\\%")
	input = strings.ReplaceAll(input, "_", "\\_")
	return input
}

// SanitizeSearchQuery prepares a search string for safe LIKE usage,
// wrapped with % for partial matching.
func SanitizeSearchQuery(input string) string {
	input = strings.TrimSpace(input)
	if len(input) > 100 {
		input = input[:100]
	}
	return "%" + EscapeSQLWildcards(input) + "%"
}

// TruncateString safely truncates a string to max length
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
