// Package graph builds the wikilink graph over a vault (forward links,
// backlinks, orphans, dangling links) and derives note centrality via
// PageRank.
package graph
