package wikilink

import (
	"regexp"
	"strings"
)

var collapsePattern = regexp.MustCompile(`[-_\s]+`)

// Normalize puts a wikilink target (or a note title/basename) into canonical
// form for matching: lowercase, `.md` suffix stripped, runs of hyphens,
// underscores, and whitespace collapsed to a single space, then trimmed.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.TrimSuffix(s, ".md")
	s = collapsePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Matches reports whether two strings refer to the same note once
// normalized.
func Matches(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
