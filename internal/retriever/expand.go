package retriever

import (
	"strings"

	"github.com/vaultrag/core/internal/vectorstore"
)

// DefaultMaxVariants bounds the number of synonym variants query expansion
// produces per query (§4.9 step 1: "bounded in size (maxVariants, default
// ≤3 variants)").
const DefaultMaxVariants = 3

// Expander expands a query into a deterministic, purely additive set of
// variants and keywords using a static synonym table (§4.9 step 1). It
// never calls a model: expansion must be cheap and reproducible since it
// runs on every query.
type Expander struct {
	synonyms    map[string][]string
	maxVariants int
}

// NewExpander builds an Expander over the default vault vocabulary.
func NewExpander(maxVariants int) *Expander {
	if maxVariants <= 0 {
		maxVariants = DefaultMaxVariants
	}
	return &Expander{synonyms: NoteSynonyms, maxVariants: maxVariants}
}

// Expand produces {original, variants[], keywords[]} for query. When
// disabled by the caller, Search skips this and builds keywords directly
// from the original tokens instead.
func (e *Expander) Expand(query string) ExpandedQuery {
	terms := vectorstore.TokenizeText(query)

	seen := make(map[string]bool, len(terms))
	keywords := make([]string, 0, len(terms))
	for _, t := range terms {
		if !seen[t] {
			keywords = append(keywords, t)
			seen[t] = true
		}
	}

	var variants []string
	added := 0
	for _, t := range terms {
		if added >= e.maxVariants {
			break
		}
		for _, syn := range e.synonyms[t] {
			lowerSyn := strings.ToLower(syn)
			if seen[lowerSyn] {
				continue
			}
			seen[lowerSyn] = true
			variants = append(variants, syn)
			keywords = append(keywords, lowerSyn)
			added++
			if added >= e.maxVariants {
				break
			}
		}
	}

	return ExpandedQuery{Original: query, Variants: variants, Keywords: keywords}
}

// keywordsFromQuery builds a keyword list directly from the original query,
// used when query expansion is disabled.
func keywordsFromQuery(query string) []string {
	return vectorstore.TokenizeText(query)
}
