// Package wikilink parses Obsidian-style wikilink syntax out of note bodies
// (§4.1). The grammar is intentionally total: parsing never fails on
// malformed input, it simply yields fewer links.
package wikilink

import (
	"regexp"
	"strings"
)

// Position is the byte-offset and line span of a parsed wikilink within its
// source string.
type Position struct {
	Start int
	End   int
	Line  int
}

// Link is a single parsed wikilink occurrence.
type Link struct {
	Raw      string
	Target   string
	Section  string
	Alias    string
	Position Position
}

// linkPattern matches `[[target]]`, `[[target#section]]`, `[[target|alias]]`,
// and `[[target#section|alias]]`. It deliberately does not special-case code
// fences; callers needing code-aware parsing must strip those first.
var linkPattern = regexp.MustCompile(`\[\[([^\[\]]+?)\]\]`)

// Parse extracts all wikilinks from content in source order.
func Parse(content string) []Link {
	var links []Link

	matches := linkPattern.FindAllStringSubmatchIndex(content, -1)
	if matches == nil {
		return links
	}

	lineOf := newLineIndex(content)

	for _, m := range matches {
		start, end := m[0], m[1]
		inner := content[m[2]:m[3]]

		target, section, alias := splitInner(inner)
		if target == "" {
			continue
		}

		links = append(links, Link{
			Raw:     content[start:end],
			Target:  target,
			Section: section,
			Alias:   alias,
			Position: Position{
				Start: start,
				End:   end,
				Line:  lineOf(start),
			},
		})
	}

	return links
}

// splitInner separates `target#section|alias` into its parts, trimming
// whitespace around each.
func splitInner(inner string) (target, section, alias string) {
	rest := inner

	if idx := strings.Index(rest, "|"); idx != -1 {
		alias = strings.TrimSpace(rest[idx+1:])
		rest = rest[:idx]
	}

	if idx := strings.Index(rest, "#"); idx != -1 {
		section = strings.TrimSpace(rest[idx+1:])
		rest = rest[:idx]
	}

	target = strings.TrimSpace(rest)
	return target, section, alias
}

// newLineIndex returns a function mapping a byte offset to its 1-indexed
// line number within content.
func newLineIndex(content string) func(offset int) int {
	newlineOffsets := make([]int, 0, strings.Count(content, "\n"))
	for i, c := range content {
		if c == '\n' {
			newlineOffsets = append(newlineOffsets, i)
		}
	}

	return func(offset int) int {
		line := 1
		for _, nl := range newlineOffsets {
			if nl < offset {
				line++
				continue
			}
			break
		}
		return line
	}
}
