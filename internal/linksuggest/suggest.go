package linksuggest

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vaultrag/core/internal/errors"
	"github.com/vaultrag/core/internal/graph"
	"github.com/vaultrag/core/internal/wikilink"
)

// anchorTarget is one candidate a note's content can be matched against:
// either its title or one of its front-matter aliases.
type anchorTarget struct {
	text       string // as written, for case-sensitive confidence scoring
	notePath   string
	noteTitle  string
	isAlias    bool
}

// Suggester implements Links.suggest over a vault (§6).
type Suggester struct {
	vaultPath string
	analyzer  *graph.Analyzer
}

// New builds a Suggester. analyzer is shared with the rest of the
// programmatic surface so its memoized graph result is reused rather than
// re-walked (§4.2 "Caching").
func New(vaultPath string, analyzer *graph.Analyzer) *Suggester {
	return &Suggester{vaultPath: vaultPath, analyzer: analyzer}
}

// Suggest scans notePath's content for plain-text mentions of other notes'
// titles or aliases that are not already wikilinks, ranking proposed
// anchor→target conversions by confidence (§6 Links.suggest).
func (s *Suggester) Suggest(ctx context.Context, notePath string, opts Options) ([]Suggestion, error) {
	defaults := DefaultOptions()
	if opts.MaxSuggestions <= 0 {
		opts.MaxSuggestions = defaults.MaxSuggestions
	}
	if opts.MinConfidence == 0 {
		opts.MinConfidence = defaults.MinConfidence
	}
	if opts.ContextChars <= 0 {
		opts.ContextChars = defaults.ContextChars
	}

	stats, err := s.analyzer.Analyze(ctx, s.vaultPath, graph.Options{})
	if err != nil {
		return nil, err
	}

	var selfTitle string
	found := false
	for _, m := range stats.NoteMetadata {
		if m.Path == notePath {
			selfTitle, found = m.Title, true
			break
		}
	}
	if !found {
		return nil, errors.New(errors.ErrCodeInvalidPath, "note not found in vault: "+notePath, nil)
	}

	raw, err := os.ReadFile(filepath.Join(s.vaultPath, notePath))
	if err != nil {
		return nil, errors.IOErrorf(err, "failed to read note %s", notePath)
	}
	content := string(raw)

	targets := buildAnchorTargets(s.vaultPath, stats.NoteMetadata, notePath, selfTitle)

	existingLinks := wikilink.Parse(content)
	existingTargetSet := make(map[string]bool, len(existingLinks))
	for _, l := range existingLinks {
		existingTargetSet[wikilink.Normalize(l.Target)] = true
	}

	lineOf := lineIndexer(content)

	var suggestions []Suggestion
	for _, t := range targets {
		if opts.ExcludeExisting && existingTargetSet[wikilink.Normalize(t.noteTitle)] {
			continue
		}

		for _, occ := range findOccurrences(content, t.text) {
			if overlapsAny(occ.start, occ.end, existingLinks) {
				continue
			}

			confidence := 1.0
			if content[occ.start:occ.end] != t.text {
				confidence = 0.7
			}
			if t.isAlias {
				confidence *= 0.9
			}
			if confidence < opts.MinConfidence {
				continue
			}

			suggestions = append(suggestions, Suggestion{
				Anchor:      content[occ.start:occ.end],
				TargetPath:  t.notePath,
				TargetTitle: t.noteTitle,
				Confidence:  confidence,
				Context:     snippetAround(content, occ.start, occ.end, opts.ContextChars),
				Start:       occ.start,
				End:         occ.end,
				Line:        lineOf(occ.start),
			})
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Confidence != suggestions[j].Confidence {
			return suggestions[i].Confidence > suggestions[j].Confidence
		}
		return suggestions[i].Start < suggestions[j].Start
	})

	if len(suggestions) > opts.MaxSuggestions {
		suggestions = suggestions[:opts.MaxSuggestions]
	}
	return suggestions, nil
}

// aliasFrontMatter holds only the field linksuggest needs from a note's
// front matter; title comes from the already-computed NoteGraphStats.
type aliasFrontMatter struct {
	Aliases []string `yaml:"aliases"`
}

var frontmatterPattern = regexp.MustCompile(`(?s)^---\r?\n(.*?)\r?\n---\r?\n?`)

// buildAnchorTargets builds the candidate list of (title|alias)→note
// mappings to search for, excluding the note being scanned.
func buildAnchorTargets(vaultPath string, notes []graph.NoteMetadata, selfPath, selfTitle string) []anchorTarget {
	var targets []anchorTarget
	for _, n := range notes {
		if n.Path == selfPath {
			continue
		}
		if n.Title == "" {
			continue
		}
		targets = append(targets, anchorTarget{text: n.Title, notePath: n.Path, noteTitle: n.Title})

		raw, err := os.ReadFile(filepath.Join(vaultPath, n.Path))
		if err != nil {
			continue
		}
		match := frontmatterPattern.FindStringSubmatch(string(raw))
		if match == nil {
			continue
		}
		var fm aliasFrontMatter
		if err := yaml.Unmarshal([]byte(match[1]), &fm); err != nil {
			continue
		}
		for _, alias := range fm.Aliases {
			if alias == "" || alias == selfTitle {
				continue
			}
			targets = append(targets, anchorTarget{text: alias, notePath: n.Path, noteTitle: n.Title, isAlias: true})
		}
	}

	// Longest anchor text first, so a multi-word alias is matched before a
	// shorter title that happens to be its prefix.
	sort.Slice(targets, func(i, j int) bool { return len(targets[i].text) > len(targets[j].text) })
	return targets
}

type occurrence struct {
	start, end int
}

// findOccurrences locates every case-insensitive occurrence of anchor
// within content, word-boundary delimited so "Go" does not match inside
// "Gopher".
func findOccurrences(content, anchor string) []occurrence {
	if strings.TrimSpace(anchor) == "" {
		return nil
	}
	pattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(anchor) + `\b`)
	if err != nil {
		return nil
	}
	matches := pattern.FindAllStringIndex(content, -1)
	occurrences := make([]occurrence, 0, len(matches))
	for _, m := range matches {
		occurrences = append(occurrences, occurrence{start: m[0], end: m[1]})
	}
	return occurrences
}

// overlapsAny reports whether [start,end) intersects any existing wikilink
// span, so an anchor already inside `[[...]]` is never suggested again.
func overlapsAny(start, end int, links []wikilink.Link) bool {
	for _, l := range links {
		if start < l.Position.End && end > l.Position.Start {
			return true
		}
	}
	return false
}

// snippetAround returns a context window around [start,end), truncated to
// roughly contextChars total.
func snippetAround(content string, start, end, contextChars int) string {
	half := contextChars / 2
	from := start - half
	if from < 0 {
		from = 0
	}
	to := end + half
	if to > len(content) {
		to = len(content)
	}
	return strings.TrimSpace(content[from:to])
}

// lineIndexer returns a function mapping a byte offset to its 1-indexed
// line number, the same shape as wikilink.Parse's internal line indexer.
func lineIndexer(content string) func(offset int) int {
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
