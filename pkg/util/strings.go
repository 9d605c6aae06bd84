package util

import "strings"

// TrimString cuts s down to at most length runes
func TrimString(s string, length int) string {
	if length <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= length {
		return s
	}

	return string(runes[:length])
}

// PadOrTrim returns s left aligned in a field of exactly width runes, either padded with spaces
// or truncated. No ellipsis is added.
func PadOrTrim(s string, width int) string {
	if width <= 0 {
		return ""
	}

	trimmed := TrimString(s, width)
	padding := width - len([]rune(trimmed))

	return trimmed + strings.Repeat(" ", padding)
}
