package chunk

import (
	"regexp"
	"strings"
)

// frontmatterPattern matches a leading YAML front-matter block delimited by
// `---` lines on their own.
var frontmatterPattern = regexp.MustCompile(`(?s)^---\r?\n.*?\r?\n---\r?\n?`)

var headingLinePattern = regexp.MustCompile(`(?m)^#{1,6} `)

// sentenceEndPattern matches a sentence terminator followed by whitespace.
var sentenceEndPattern = regexp.MustCompile(`[.!?][\s]`)

// Split produces an ordered list of Chunks covering noteContent, honoring
// cfg's target size and overlap (§4.5).
func Split(noteContent string, cfg Config) []Chunk {
	if cfg.TargetSizeChars <= 0 {
		cfg.TargetSizeChars = DefaultTargetSizeChars
	}
	if cfg.OverlapChars < 0 || cfg.OverlapChars >= cfg.TargetSizeChars {
		cfg.OverlapChars = DefaultOverlapChars
	}

	offsetDelta := 0
	body := noteContent
	if match := frontmatterPattern.FindString(noteContent); match != "" {
		offsetDelta = len(match)
		body = noteContent[offsetDelta:]
	}

	if strings.TrimSpace(body) == "" {
		return nil
	}

	var chunks []Chunk
	pos := 0
	index := 0

	for pos < len(body) {
		end := minInt(pos+cfg.TargetSizeChars, len(body))

		if end < len(body) {
			end = chooseBreakPoint(body, pos, end)
		}
		if end <= pos {
			end = minInt(pos+cfg.TargetSizeChars, len(body))
		}

		content := body[pos:end]
		chunks = append(chunks, Chunk{
			ChunkIndex:  index,
			Content:     content,
			StartOffset: pos + offsetDelta,
			EndOffset:   end + offsetDelta,
			HasHeader:   startsWithHeading(content),
		})
		index++

		if end >= len(body) {
			break
		}

		next := end - cfg.OverlapChars
		if next <= pos || startsWithHeading(body[end:]) {
			// A break at a heading starts the next chunk on that heading.
			next = end
		}
		pos = next
	}

	return chunks
}

// startsWithHeading reports whether content begins with a heading line,
// allowing for leading whitespace carried over from a break.
func startsWithHeading(content string) bool {
	trimmed := strings.TrimLeft(content, "\n\r\t ")
	i := 0
	for i < len(trimmed) && i < 6 && trimmed[i] == '#' {
		i++
	}
	return i > 0 && i < len(trimmed) && trimmed[i] == ' '
}

// chooseBreakPoint finds the best place to end a chunk within
// body[pos:maxEnd], preferring heading boundaries, then paragraph breaks,
// then sentence terminators, then a hard cut at maxEnd (§4.5).
func chooseBreakPoint(body string, pos, maxEnd int) int {
	window := body[pos:maxEnd]

	// Minimum fraction of the window that must be consumed before accepting
	// a break, so we don't emit tiny chunks when a boundary sits early.
	minAdvance := len(window) / 3

	if loc := lastHeadingBoundary(window, minAdvance); loc >= 0 {
		return pos + loc
	}

	if idx := strings.LastIndex(window, "\n\n"); idx >= minAdvance {
		return pos + idx
	}

	if loc := lastSentenceBoundary(window, minAdvance); loc >= 0 {
		return pos + loc
	}

	return maxEnd
}

// lastHeadingBoundary returns the offset of the last heading line start
// within window that occurs at or after minAdvance, or -1.
func lastHeadingBoundary(window string, minAdvance int) int {
	matches := headingLinePattern.FindAllStringIndex(window, -1)
	best := -1
	for _, m := range matches {
		start := m[0]
		if start == 0 {
			continue // heading at the very start of the window isn't a break
		}
		if start >= minAdvance {
			best = start
		}
	}
	return best
}

// lastSentenceBoundary returns the offset just after the last sentence
// terminator within window at or after minAdvance, or -1.
func lastSentenceBoundary(window string, minAdvance int) int {
	matches := sentenceEndPattern.FindAllStringIndex(window, -1)
	best := -1
	for _, m := range matches {
		end := m[1]
		if end >= minAdvance {
			best = end
		}
	}
	return best
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
