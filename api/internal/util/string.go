package util

import (
	"strings"
	"unicode/utf8"
)

func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// TruncateRunes режет строку по числу символов, а не байт.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// TruncateForLog для логов: не больше n символов и с многоточием.
func TruncateForLog(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return TruncateRunes(s, n) + "…"
}
