package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmptyNoteYieldsZeroChunks(t *testing.T) {
	assert.Empty(t, Split("", DefaultConfig()))
	assert.Empty(t, Split("   \n\n  ", DefaultConfig()))
}

func TestSplitShortNoteYieldsOneChunk(t *testing.T) {
	chunks := Split("# Title\n\nShort body text.", DefaultConfig())
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.True(t, chunks[0].HasHeader)
}

func TestSplitStripsFrontMatterButRetainsOffsets(t *testing.T) {
	fm := "---\ntitle: Test\n---\n"
	body := strings.Repeat("word ", 10)
	content := fm + body

	chunks := Split(content, DefaultConfig())
	require.Len(t, chunks, 1)
	assert.Equal(t, len(fm), chunks[0].StartOffset)
	assert.Equal(t, content[chunks[0].StartOffset:chunks[0].EndOffset], chunks[0].Content)
}

func TestSplitLongNoteProducesOverlappingChunks(t *testing.T) {
	// Build a note comfortably longer than the target size.
	var sb strings.Builder
	for i := 0; i < 50; i++ {
		sb.WriteString("This is a sentence that adds length to the note. ")
	}
	content := sb.String()

	cfg := Config{TargetSizeChars: 200, OverlapChars: 40}
	chunks := Split(content, cfg)

	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		assert.LessOrEqual(t, chunks[i].StartOffset, chunks[i-1].EndOffset, "consecutive chunks should overlap or abut")
		assert.Equal(t, i, chunks[i].ChunkIndex)
	}
	// Full coverage: first chunk starts at 0, last chunk ends at len(content).
	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, len(content), chunks[len(chunks)-1].EndOffset)
}

func TestSplitPrefersHeadingBoundary(t *testing.T) {
	section1 := strings.Repeat("alpha beta gamma delta epsilon. ", 5)
	section2 := strings.Repeat("zeta eta theta iota kappa. ", 5)
	content := "# First\n\n" + section1 + "\n\n## Second\n\n" + section2

	cfg := Config{TargetSizeChars: len(content) - 10, OverlapChars: 20}
	chunks := Split(content, cfg)

	require.GreaterOrEqual(t, len(chunks), 2)
	assert.True(t, chunks[1].HasHeader)
}

func TestSplitNeverSplitsInsideFrontMatterDelimiters(t *testing.T) {
	fm := "---\ntitle: X\ntags: [a, b]\n---\n"
	content := fm + "body content here"

	chunks := Split(content, Config{TargetSizeChars: 5, OverlapChars: 1})
	for _, c := range chunks {
		assert.False(t, strings.HasPrefix(c.Content, "---"))
	}
}

func TestSplitHasHeaderFalseForPlainParagraph(t *testing.T) {
	chunks := Split("Just a plain paragraph with no heading at all.", DefaultConfig())
	require.Len(t, chunks, 1)
	assert.False(t, chunks[0].HasHeader)
}

func TestSplitLastChunkMayBeShorterThanTarget(t *testing.T) {
	content := strings.Repeat("x", 250)
	cfg := Config{TargetSizeChars: 100, OverlapChars: 10}
	chunks := Split(content, cfg)

	require.NotEmpty(t, chunks)
	last := chunks[len(chunks)-1]
	assert.LessOrEqual(t, last.EndOffset-last.StartOffset, 100)
}
