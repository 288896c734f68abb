// Package strings holds text helpers for terminal output.
package strings

import (
	"strings"
)

// DefaultValueMaxLen bounds values shown in table cells.
const DefaultValueMaxLen = 100

// MinTruncateLen leaves room for one character plus "...".
const MinTruncateLen = 4

// Truncate cuts s to at most maxLen runes, ending in "..." when cut.
// maxLen below MinTruncateLen is raised to it.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// TruncateLine collapses all whitespace runs, newlines included, to single
// spaces and then truncates.
func TruncateLine(s string, maxLen int) string {
	return Truncate(strings.Join(strings.Fields(s), " "), maxLen)
}
