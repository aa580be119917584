// Package text provides helpers for fitting model output into chat messages.
package text

import (
	"unicode/utf16"
	"unicode/utf8"
)

// Split breaks s into consecutive pieces of at most maxLength runes each.
// Joining the pieces in order yields s. An empty s yields no pieces, and a
// maxLength below 1 disables splitting.
func Split(s string, maxLength int) []string {
	return split(s, maxLength, func(rune) int { return 1 })
}

// SplitUTF16 is Split measured in UTF-16 code units, the unit Telegram uses for
// its message length limit. Runes outside the BMP count as two units and are
// never cut in half.
func SplitUTF16(s string, maxUnits int) []string {
	return split(s, maxUnits, func(r rune) int {
		if n := utf16.RuneLen(r); n > 0 {
			return n
		}
		return 1
	})
}

func split(s string, maxLength int, width func(rune) int) []string {
	if s == "" {
		return nil
	}
	if maxLength <= 0 {
		return []string{s}
	}

	parts := make([]string, 0, utf8.RuneCountInString(s)/maxLength+1)

	start, size := 0, 0
	for i, r := range s {
		w := width(r)
		if size > 0 && size+w > maxLength {
			parts = append(parts, s[start:i])
			start, size = i, 0
		}
		size += w
	}

	return append(parts, s[start:])
}

// Truncate shortens s to at most maxLen runes, marking the cut with "...".
func Truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}
