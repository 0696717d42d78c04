package retriever

// NoteSynonyms maps personal-knowledge-vault vocabulary to equivalent terms,
// bridging the gap between how a query is phrased and how a note is
// written. Unlike a code search engine's vocabulary (types, functions), a
// markdown vault's vocabulary centers on notes, links, and planning terms.
var NoteSynonyms = map[string][]string{
	"note":    {"page", "document", "entry"},
	"notes":   {"pages", "documents", "entries"},
	"link":    {"backlink", "reference", "wikilink", "connection"},
	"links":   {"backlinks", "references", "wikilinks", "connections"},
	"tag":     {"label", "category"},
	"tags":    {"labels", "categories"},
	"todo":    {"task", "action item", "action"},
	"todos":   {"tasks", "action items"},
	"meeting": {"standup", "sync", "call"},
	"project": {"initiative", "effort"},
	"idea":    {"thought", "concept", "brainstorm"},
	"ideas":   {"thoughts", "concepts"},
	"journal": {"log", "diary"},
	"summary": {"overview", "recap", "tldr"},
	"plan":    {"roadmap", "strategy"},
	"goal":    {"objective", "target"},
	"goals":   {"objectives", "targets"},
	"contact": {"person", "people"},
	"book":    {"reading", "highlights"},
}
