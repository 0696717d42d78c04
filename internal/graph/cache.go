package graph

// cacheEntry memoizes a graph analysis result against the fingerprint that
// produced it (§4.2 "Caching").
type cacheEntry struct {
	fingerprint string
	stats       *NoteGraphStats
}
