package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRankEmptyGraphYieldsEmptyMap(t *testing.T) {
	scores := PageRank(map[string][]string{}, DefaultPageRankOptions())
	assert.Empty(t, scores)
}

func TestPageRankMaxScoreIsOne(t *testing.T) {
	forward := map[string][]string{
		"a.md": {"b.md", "c.md"},
		"b.md": {"c.md"},
		"c.md": {},
	}
	scores := PageRank(forward, DefaultPageRankOptions())

	max := 0.0
	for _, s := range scores {
		if s > max {
			max = s
		}
	}
	assert.InDelta(t, 1.0, max, 1e-9)
	assert.Equal(t, 3, len(scores))
}

func TestPageRankHubReceivesHigherScore(t *testing.T) {
	forward := map[string][]string{
		"a.md": {"hub.md"},
		"b.md": {"hub.md"},
		"c.md": {"hub.md"},
		"hub.md": {},
	}
	scores := PageRank(forward, DefaultPageRankOptions())

	assert.Greater(t, scores["hub.md"], scores["a.md"])
}

func TestPageRankNoOutlinksFallsBackToUniform(t *testing.T) {
	forward := map[string][]string{
		"a.md": {},
		"b.md": {},
	}
	scores := PageRank(forward, DefaultPageRankOptions())
	assert.InDelta(t, 1.0, scores["a.md"], 1e-9)
	assert.InDelta(t, 1.0, scores["b.md"], 1e-9)
}

func TestPageRankHandlesCycles(t *testing.T) {
	forward := map[string][]string{
		"a.md": {"b.md"},
		"b.md": {"c.md"},
		"c.md": {"a.md"},
	}
	assert.NotPanics(t, func() {
		scores := PageRank(forward, DefaultPageRankOptions())
		assert.Len(t, scores, 3)
	})
}
