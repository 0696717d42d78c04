package graph

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vaultrag/core/internal/errors"
	"github.com/vaultrag/core/internal/logging"
	"github.com/vaultrag/core/internal/wikilink"
)

// noteRecord is the intermediate per-note state built during a walk.
type noteRecord struct {
	path         string // vault-relative
	title        string // front-matter title, or basename if absent
	aliases      []string
	contentHash  string
	forwardLinks []wikilink.Link
}

// Analyzer builds NoteGraphStats over a vault, memoizing the result by a
// vault-content fingerprint (§4.2 "Caching").
type Analyzer struct {
	logger *slog.Logger
	cache  *cacheEntry
}

// New creates an Analyzer. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{logger: logger}
}

// Analyze walks vaultPath and computes NoteGraphStats, reusing the cached
// result when the vault's content fingerprint is unchanged.
func (a *Analyzer) Analyze(ctx context.Context, vaultPath string, opts Options) (*NoteGraphStats, error) {
	walkRoot := vaultPath
	if opts.Subdir != "" {
		walkRoot = filepath.Join(vaultPath, opts.Subdir)
	}

	notes, err := a.walk(ctx, walkRoot)
	if err != nil {
		return nil, err
	}

	fingerprint := fingerprintOf(notes)
	if cached := a.cache; cached != nil && cached.fingerprint == fingerprint {
		a.logger.Debug("graph analysis cache hit", "vault", vaultPath, "notes", len(notes))
		return cached.stats, nil
	}

	stats := buildStats(notes, opts)
	a.cache = &cacheEntry{fingerprint: fingerprint, stats: stats}

	a.logger.Info("graph analysis complete",
		"vault", vaultPath,
		"notes", stats.NoteCount,
		"orphans", len(stats.OrphanNotes),
		"dangling", len(stats.DanglingLinks),
	)

	return stats, nil
}

// Invalidate drops the memoized result, forcing the next Analyze call to
// re-walk the vault. Call this after any write that mutates vault content.
func (a *Analyzer) Invalidate() {
	a.cache = nil
}

// walk collects markdown notes under root, excluding .git, hidden
// directories, and the metadata directory (§4.2 step 1).
func (a *Analyzer) walk(ctx context.Context, root string) ([]noteRecord, error) {
	var notes []noteRecord

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}

		if d.IsDir() {
			name := d.Name()
			if name == ".git" || name == logging.MetadataDirName || (strings.HasPrefix(name, ".") && relPath != ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		if strings.HasPrefix(filepath.Base(path), ".") {
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			a.logger.Warn("failed to read note", "path", relPath, "error", readErr)
			return nil
		}

		fm := parseFrontMatter(string(content))
		title := fm.Title
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(relPath), ".md")
		}

		notes = append(notes, noteRecord{
			path:         filepath.ToSlash(relPath),
			title:        title,
			aliases:      fm.Aliases,
			contentHash:  hashContent(content),
			forwardLinks: wikilink.Parse(string(content)),
		})

		return nil
	})
	if err != nil {
		if err == context.Canceled {
			return nil, errors.CancelledError()
		}
		return nil, errors.IOErrorf(err, "failed to walk vault %s", root)
	}

	return notes, nil
}

// buildStats runs the graph-construction algorithm (§4.2 steps 2-7) over an
// already-collected set of notes.
func buildStats(notes []noteRecord, opts Options) *NoteGraphStats {
	// titleIndex maps a normalized title/basename/alias to the owning note path.
	titleIndex := make(map[string]string, len(notes))
	for _, n := range notes {
		titleIndex[wikilink.Normalize(n.title)] = n.path
		titleIndex[wikilink.Normalize(strings.TrimSuffix(filepath.Base(n.path), ".md"))] = n.path
		for _, alias := range n.aliases {
			titleIndex[wikilink.Normalize(alias)] = n.path
		}
	}

	forwardLinks := make(map[string][]string, len(notes))
	backlinks := make(map[string][]Backreference)
	dangling := make(map[string]map[string]int) // target -> sourcePath -> count
	totalMentions := 0
	uniqueConnections := 0

	for _, n := range notes {
		var targets []string
		seenTargetsForNote := make(map[string]bool)

		for _, link := range n.forwardLinks {
			totalMentions++
			normalized := wikilink.Normalize(link.Target)

			targets = append(targets, link.Target)

			targetPath, resolved := titleIndex[normalized]
			if !resolved {
				if dangling[link.Target] == nil {
					dangling[link.Target] = make(map[string]int)
				}
				dangling[link.Target][n.path]++
				continue
			}

			if !seenTargetsForNote[targetPath] {
				seenTargetsForNote[targetPath] = true
				uniqueConnections++
			}

			targetTitle := targetPath
			for _, other := range notes {
				if other.path == targetPath {
					targetTitle = other.title
					break
				}
			}

			backlinks[wikilink.Normalize(targetTitle)] = append(backlinks[wikilink.Normalize(targetTitle)], Backreference{
				SourceNotePath:  n.path,
				SourceNoteTitle: n.title,
				Alias:           link.Alias,
			})
		}

		forwardLinks[n.path] = targets
	}

	orphans := findOrphans(notes, forwardLinks, backlinks)

	danglingLinks := make([]DanglingLink, 0, len(dangling))
	for target, sources := range dangling {
		occ := make([]DanglingOccurrence, 0, len(sources))
		for src, count := range sources {
			occ = append(occ, DanglingOccurrence{SourceNotePath: src, Count: count})
		}
		sort.Slice(occ, func(i, j int) bool { return occ[i].SourceNotePath < occ[j].SourceNotePath })
		danglingLinks = append(danglingLinks, DanglingLink{Target: target, Occurrences: occ})
	}
	sort.Slice(danglingLinks, func(i, j int) bool { return danglingLinks[i].Target < danglingLinks[j].Target })

	metadata := make([]NoteMetadata, 0, len(notes))
	for _, n := range notes {
		inDegree := len(backlinks[wikilink.Normalize(n.title)])
		metadata = append(metadata, NoteMetadata{
			Path:      n.path,
			Title:     n.title,
			OutDegree: len(forwardLinks[n.path]),
			InDegree:  inDegree,
		})
	}
	sort.Slice(metadata, func(i, j int) bool { return metadata[i].Path < metadata[j].Path })

	stats := &NoteGraphStats{
		NoteCount:         len(notes),
		UniqueConnections: uniqueConnections,
		TotalMentions:     totalMentions,
		DanglingLinks:     danglingLinks,
		OrphanNotes:       orphans,
		Backlinks:         backlinks,
		ForwardLinks:      forwardLinks,
		NoteMetadata:      metadata,
	}

	if opts.IncludeClusters {
		targets := make([]string, 0, len(danglingLinks))
		occurrenceCounts := make(map[string]int, len(danglingLinks))
		for _, d := range danglingLinks {
			targets = append(targets, d.Target)
			total := 0
			for _, o := range d.Occurrences {
				total += o.Count
			}
			occurrenceCounts[d.Target] = total
		}
		stats.DanglingClusters = ClusterTargets(targets, occurrenceCounts, DefaultClusterOptions())
	}

	return stats
}

// findOrphans identifies notes with zero outgoing links and zero resolved
// incoming back-references (§4.2 step 5).
func findOrphans(notes []noteRecord, forwardLinks map[string][]string, backlinks map[string][]Backreference) []string {
	var orphans []string

	for _, n := range notes {
		if len(forwardLinks[n.path]) > 0 {
			continue
		}

		hasIncoming := len(backlinks[wikilink.Normalize(n.title)]) > 0
		if !hasIncoming {
			basename := strings.TrimSuffix(filepath.Base(n.path), ".md")
			hasIncoming = len(backlinks[wikilink.Normalize(basename)]) > 0
		}

		if !hasIncoming {
			orphans = append(orphans, n.path)
		}
	}

	sort.Strings(orphans)
	return orphans
}

// hashContent returns the hex-encoded SHA-256 of a note's content, used for
// the vault-wide fingerprint.
func hashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// fingerprintOf computes the vault-content fingerprint: a hash over sorted
// (relativePath, contentHash) pairs (§4.2 "Caching").
func fingerprintOf(notes []noteRecord) string {
	sorted := make([]noteRecord, len(notes))
	copy(sorted, notes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].path < sorted[j].path })

	h := sha256.New()
	for _, n := range sorted {
		h.Write([]byte(n.path))
		h.Write([]byte{0})
		h.Write([]byte(n.contentHash))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
