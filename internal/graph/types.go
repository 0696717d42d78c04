package graph

// Backreference records one incoming link to a note.
type Backreference struct {
	SourceNotePath  string
	SourceNoteTitle string
	Context         string
	Alias           string
}

// DanglingLink aggregates a wikilink target that resolves to no note.
type DanglingLink struct {
	Target      string
	Occurrences []DanglingOccurrence
}

// DanglingOccurrence is one source note's reference to a dangling target.
type DanglingOccurrence struct {
	SourceNotePath string
	Count          int
}

// NoteMetadata is the per-note summary carried in NoteGraphStats.
type NoteMetadata struct {
	Path      string
	Title     string
	OutDegree int
	InDegree  int
}

// NoteGraphStats is the output of the GraphAnalyzer (§3, §4.2).
type NoteGraphStats struct {
	NoteCount         int
	UniqueConnections int
	TotalMentions     int
	DanglingLinks     []DanglingLink
	OrphanNotes       []string
	Backlinks         map[string][]Backreference
	ForwardLinks      map[string][]string
	NoteMetadata      []NoteMetadata

	// Clusters of similar dangling-link targets (§4.3), populated only when
	// Options.IncludeClusters is set.
	DanglingClusters []Cluster
}

// Options configures a graph analysis run.
type Options struct {
	// IncludeContext and ContextLength are accepted but not read by Analyze:
	// Backreference.Context is always left empty.
	IncludeContext bool
	ContextLength  int
	// Subdir restricts the walk to a subdirectory of the vault root.
	Subdir string
	// IncludeClusters enables dangling-link similarity clustering (§4.3).
	IncludeClusters bool
}
