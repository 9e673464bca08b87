// Package match implements the name comparison and pair-matching policies
// used by the deduplication engine.
package match

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize canonicalizes a free-text name for comparison: lowercase, strip
// punctuation, collapse whitespace, trim. The result is never stored.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastSpace := true
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		default:
			// Punctuation drops; a separator-like rune still splits words.
			if isWordBreak(r) && !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}

	return strings.TrimSpace(b.String())
}

// isWordBreak reports whether a stripped punctuation rune should still act
// as a token boundary ("St.Mary" -> "st mary", but "won't" -> "wont").
func isWordBreak(r rune) bool {
	switch r {
	case '\'', '’':
		return false
	}
	return true
}

// BaseName strips parenthetical suffixes, bracketed suffixes, trailing
// dash-qualifiers, and trailing single-character tokens ("Building A",
// "Pier 3"), then normalizes: "X (West Wing)" -> "x".
func BaseName(name string) string {
	s := name
	if i := strings.IndexByte(s, '('); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '['); i >= 0 {
		s = s[:i]
	}
	for _, sep := range []string{" - ", " – ", " — "} {
		if i := strings.Index(s, sep); i >= 0 {
			s = s[:i]
		}
	}
	fields := strings.Fields(Normalize(s))
	// Single-character tail tokens are qualifiers, not part of the base
	// name. The first token always stays.
	for len(fields) > 1 && utf8.RuneCountInString(fields[len(fields)-1]) == 1 {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

// minTokenLen filters noise words ("of", "de", "la") out of similarity tokens.
const minTokenLen = 3

// tokens splits a normalized name on whitespace, keeping tokens longer than
// two characters.
func tokens(normalized string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range strings.Fields(normalized) {
		if len(t) >= minTokenLen {
			set[t] = struct{}{}
		}
	}
	return set
}
