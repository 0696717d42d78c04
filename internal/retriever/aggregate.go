package retriever

import (
	"sort"

	"github.com/vaultrag/core/internal/vectorstore"
)

// chunkCandidate is one vector-search hit paired with its normalized
// keyword score, the unit aggregate consumes (§4.9 step 4).
type chunkCandidate struct {
	doc          vectorstore.Document
	vectorScore  float64
	keywordScore float64
}

// aggregateToNotes accumulates chunk candidates into per-note aggregates
// keyed by notePath, keeping the best vector and keyword score per note and
// the topChunksPerNote highest-scoring chunks, ordered by chunk score desc
// (§4.9 step 4).
func aggregateToNotes(candidates []chunkCandidate, opts Options) map[string]*noteAggregate {
	notes := make(map[string]*noteAggregate)

	for _, c := range candidates {
		agg, ok := notes[c.doc.NotePath]
		if !ok {
			agg = &noteAggregate{notePath: c.doc.NotePath, title: c.doc.NoteTitle}
			notes[c.doc.NotePath] = agg
		}
		if c.vectorScore > agg.bestVector {
			agg.bestVector = c.vectorScore
		}
		if c.keywordScore > agg.bestKeyword {
			agg.bestKeyword = c.keywordScore
		}

		agg.chunks = append(agg.chunks, Chunk{
			Content:      c.doc.Content,
			ChunkIndex:   c.doc.ChunkIndex,
			VectorScore:  c.vectorScore,
			KeywordScore: c.keywordScore,
		})
	}

	for _, agg := range notes {
		sort.Slice(agg.chunks, func(i, j int) bool {
			si := chunkScore(agg.chunks[i].VectorScore, agg.chunks[i].KeywordScore, opts)
			sj := chunkScore(agg.chunks[j].VectorScore, agg.chunks[j].KeywordScore, opts)
			return si > sj
		})
		if len(agg.chunks) > topChunksPerNote {
			agg.chunks = agg.chunks[:topChunksPerNote]
		}
	}

	return notes
}

// chunkScore combines a chunk's vector and keyword scores under the same
// mode/weight rules as the note-level baseScore, used to rank chunks within
// a note and to compute confidence.
func chunkScore(vectorScore, keywordScore float64, opts Options) float64 {
	switch opts.Mode {
	case ModeSemantic:
		return vectorScore
	case ModeKeyword:
		return keywordScore
	default:
		return opts.VectorWeight*vectorScore + opts.KeywordWeight*keywordScore
	}
}

// confidence measures the spread between a note's top and second-best
// chunk score (§4.9 step 5): a large gap means one chunk dominates the
// note's relevance, a small gap means several chunks contribute evenly.
func confidence(agg *noteAggregate, opts Options) float64 {
	if len(agg.chunks) == 0 {
		return 0
	}
	top := chunkScore(agg.chunks[0].VectorScore, agg.chunks[0].KeywordScore, opts)
	if len(agg.chunks) == 1 {
		return top
	}
	second := chunkScore(agg.chunks[1].VectorScore, agg.chunks[1].KeywordScore, opts)
	return top - second
}

// baseScore computes a note aggregate's hybrid score (§4.9 step 5).
func baseScore(agg *noteAggregate, opts Options) float64 {
	switch opts.Mode {
	case ModeSemantic:
		return agg.bestVector
	case ModeKeyword:
		return agg.bestKeyword
	default:
		return opts.VectorWeight*agg.bestVector + opts.KeywordWeight*agg.bestKeyword
	}
}
