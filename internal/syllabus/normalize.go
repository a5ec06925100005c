package syllabus

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var reCRLF = regexp.MustCompile(`\r\n?`)

// Normalize unifies line endings, drops NUL bytes and trims trailing
// spaces on every line. Line structure is kept since the multi-line
// captures depend on blank-line boundaries.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = strings.ReplaceAll(s, "\x00", "")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	return strings.Join(lines, "\n")
}

// capRunes truncates s to at most limit runes. A non-positive limit disables the cap.
func capRunes(s string, limit int) (string, bool) {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s, false
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i], true
		}
		n++
	}
	return s, false
}
