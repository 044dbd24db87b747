// Package util provides string helpers shared by the CLI listings.
package util

import "strings"

// TruncateString truncates a string to maxLen runes, adding "..." if truncated.
// It does not account for ANSI escape codes or wide characters.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 3 {
		return "..."
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// SingleLine collapses newlines and runs of whitespace into single spaces.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Summarize flattens s onto one line and truncates it to maxLen runes.
func Summarize(s string, maxLen int) string {
	return TruncateString(SingleLine(s), maxLen)
}
