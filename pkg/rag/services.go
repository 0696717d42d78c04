package rag

import (
	"context"

	"github.com/vaultrag/core/internal/graph"
	"github.com/vaultrag/core/internal/linksuggest"
)

// GraphService exposes Graph.analyze/quickStats (§6).
type GraphService struct {
	r *RAG
}

// Analyze returns the full NoteGraphStats for the vault (§6 Graph.analyze).
func (g *GraphService) Analyze(ctx context.Context) (*graph.NoteGraphStats, error) {
	return g.r.analyzer.Analyze(ctx, g.r.vaultPath, graph.Options{})
}

// QuickStats is the lightweight summary returned by Graph.quickStats (§6):
// {noteCount, connectionCount, dangling, orphan}.
type QuickStats struct {
	NoteCount       int
	ConnectionCount int
	Dangling        int
	Orphan          int
}

// QuickStats computes the vault's summary counts without surfacing the
// full backlink/dangling-occurrence detail Analyze returns.
func (g *GraphService) QuickStats(ctx context.Context) (QuickStats, error) {
	stats, err := g.Analyze(ctx)
	if err != nil {
		return QuickStats{}, err
	}
	return QuickStats{
		NoteCount:       stats.NoteCount,
		ConnectionCount: stats.UniqueConnections,
		Dangling:        len(stats.DanglingLinks),
		Orphan:          len(stats.OrphanNotes),
	}, nil
}

// LinksService exposes Links.suggest (§6).
type LinksService struct {
	suggester *linksuggest.Suggester
}

// Suggest proposes anchor→target wikilink conversions for notePath.
func (l *LinksService) Suggest(ctx context.Context, notePath string, opts linksuggest.Options) ([]linksuggest.Suggestion, error) {
	return l.suggester.Suggest(ctx, notePath, opts)
}
