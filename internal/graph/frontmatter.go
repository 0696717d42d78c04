package graph

import (
	"regexp"

	"gopkg.in/yaml.v3"
)

// frontmatterPattern matches a leading YAML front-matter block delimited by
// `---` lines, mirroring the chunker's own front-matter detection.
var frontmatterPattern = regexp.MustCompile(`(?s)^---\r?\n(.*?)\r?\n---\r?\n?`)

// frontmatter holds the subset of note metadata the graph cares about.
type frontmatter struct {
	Title   string   `yaml:"title"`
	Aliases []string `yaml:"aliases"`
	Tags    []string `yaml:"tags"`
}

// parseFrontMatter extracts and decodes a note's front-matter block, if any.
// Malformed YAML yields a zero-value frontmatter rather than an error: the
// graph analyzer never fails a whole walk over one bad note.
func parseFrontMatter(content string) frontmatter {
	match := frontmatterPattern.FindStringSubmatch(content)
	if match == nil {
		return frontmatter{}
	}

	var fm frontmatter
	_ = yaml.Unmarshal([]byte(match[1]), &fm)
	return fm
}
