package quiz

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes runes and drops the combining marks, so "Liège"
// becomes "Liege" before the rest of the cleanup runs.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize reduces free-text answers to a canonical comparable form:
// lowercase, accents stripped, apostrophe-like marks removed, and all
// whitespace, underscores, and hyphens deleted. "Sint-Truiden" and
// "sint truiden" normalize to the same string. Total over any input and
// idempotent.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if stripped, _, err := transform.String(stripMarks, s); err == nil {
		s = stripped
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
		case r == '_' || r == '-':
		case r == '\'' || r == '`' || r == '´' || r == '^' || r == '¨' || r == '~':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
