package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vaultrag/core/internal/errors"
	"github.com/vaultrag/core/internal/logging"
)

// frontmatterPattern matches a leading YAML front-matter block, mirroring
// the chunker's and graph analyzer's own detection (§3).
var frontmatterPattern = regexp.MustCompile(`(?s)^---\r?\n(.*?)\r?\n---\r?\n?`)

// noteFrontMatter is the subset of front-matter the indexer reads: an
// explicit id (used as the vector-store chunk-id prefix when present) and a
// title (falling back to the file's basename).
type noteFrontMatter struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
}

// scannedNote is one markdown file discovered during a vault walk.
type scannedNote struct {
	Path        string // vault-relative, slash-separated
	Title       string
	FrontID     string
	Content     string
	ContentHash string
}

// scanVault walks vaultPath for markdown notes, excluding hidden
// directories, node_modules, and the metadata directory (§6).
func scanVault(vaultPath string, extraExcludes []string) ([]scannedNote, error) {
	excludeSet := make(map[string]struct{}, len(extraExcludes)+2)
	excludeSet["node_modules"] = struct{}{}
	excludeSet[".git"] = struct{}{}
	for _, e := range extraExcludes {
		excludeSet[e] = struct{}{}
	}

	var notes []scannedNote
	err := filepath.WalkDir(vaultPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, relErr := filepath.Rel(vaultPath, path)
		if relErr != nil {
			return nil
		}

		if d.IsDir() {
			name := d.Name()
			if relPath == "." {
				return nil
			}
			if name == logging.MetadataDirName {
				return filepath.SkipDir
			}
			if _, excluded := excludeSet[name]; excluded {
				return filepath.SkipDir
			}
			if strings.HasPrefix(name, ".") {
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
			return nil // surfaced as a per-note skip, not a fatal scan error
		}

		fm := parseNoteFrontMatter(string(content))
		title := fm.Title
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(path), ".md")
		}

		notes = append(notes, scannedNote{
			Path:        filepath.ToSlash(relPath),
			Title:       title,
			FrontID:     fm.ID,
			Content:     string(content),
			ContentHash: hashContent(content),
		})
		return nil
	})
	if err != nil {
		return nil, errors.IOErrorf(err, "failed to walk vault %s", vaultPath)
	}
	return notes, nil
}

// parseNoteFrontMatter extracts and decodes a note's front-matter block.
// Malformed YAML yields a zero-value result rather than an error: one bad
// note's front matter never fails the whole scan.
func parseNoteFrontMatter(content string) noteFrontMatter {
	match := frontmatterPattern.FindStringSubmatch(content)
	if match == nil {
		return noteFrontMatter{}
	}
	var fm noteFrontMatter
	_ = yaml.Unmarshal([]byte(match[1]), &fm)
	return fm
}

// hashContent returns a stable content-hash used for incremental diffing.
func hashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
