package relay

import (
	"regexp"
	"strings"
)

const (
	slugMaxLen   = 50
	fallbackSlug = "untitled"
)

var reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify: нижний регистр, всё кроме [a-z0-9] схлопывается в один "-", без "-" по краям, максимум 50.
func Slugify(idea string) string {
	s := reNonAlnum.ReplaceAllString(strings.ToLower(idea), "-")
	s = strings.Trim(s, "-")
	if len(s) > slugMaxLen {
		s = s[:slugMaxLen]
	}
	if s == "" {
		return fallbackSlug
	}
	return s
}
