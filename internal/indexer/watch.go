package indexer

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vaultrag/core/internal/errors"
	"github.com/vaultrag/core/internal/logging"
)

// DefaultDebounceWindow coalesces rapid saves (editors often write a file
// multiple times in quick succession) before triggering a reindex.
const DefaultDebounceWindow = 300 * time.Millisecond

// Watcher bridges filesystem changes in a vault to IndexNote calls, acting
// as the "external collaborator" trigger point named in §4.8. It is a
// markdown-only simplification of the teacher's HybridWatcher: no gitignore
// or config-reload special-casing, since a vault has neither concept — only
// hidden-directory/node_modules/metadata-dir exclusion and a `.md` filter.
type Watcher struct {
	indexer *Indexer
	logger  *slog.Logger

	debounceWindow time.Duration

	mu      sync.Mutex
	pending map[string]time.Time
	timer   *time.Timer

	fsw     *fsnotify.Watcher
	stopCh  chan struct{}
	stopped bool
}

// NewWatcher creates a Watcher that calls ix.IndexNote on debounced changes.
func NewWatcher(ix *Indexer, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		indexer:        ix,
		logger:         logger,
		debounceWindow: DefaultDebounceWindow,
		pending:        make(map[string]time.Time),
		stopCh:         make(chan struct{}),
	}
}

// Start begins watching the vault recursively until ctx is cancelled or Stop
// is called.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.IOErrorf(err, "failed to create filesystem watcher")
	}
	w.fsw = fsw

	if err := w.addRecursive(w.indexer.vaultPath); err != nil {
		_ = fsw.Close()
		return err
	}

	go w.loop(ctx)
	return nil
}

// Stop releases the underlying filesystem watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	if w.timer != nil {
		w.timer.Stop()
	}
	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}

// addRecursive adds root and every non-excluded subdirectory to the
// fsnotify watcher (fsnotify does not watch recursively on its own).
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if relPath != "." && w.shouldIgnoreDir(filepath.ToSlash(relPath)) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// shouldIgnoreDir reports whether a vault-relative directory path should be
// excluded from watching.
func (w *Watcher) shouldIgnoreDir(relPath string) bool {
	for _, part := range strings.Split(relPath, "/") {
		if part == logging.MetadataDirName || part == "node_modules" || part == ".git" {
			return true
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	relPath, err := filepath.Rel(w.indexer.vaultPath, event.Name)
	if err != nil {
		return
	}
	relPath = filepath.ToSlash(relPath)

	if w.shouldIgnore(relPath) {
		return
	}

	if !strings.EqualFold(filepath.Ext(event.Name), ".md") {
		return
	}

	w.mu.Lock()
	w.pending[relPath] = time.Now()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounceWindow, w.flush)
	w.mu.Unlock()
}

func (w *Watcher) flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]time.Time)
	w.mu.Unlock()

	for _, p := range paths {
		if err := w.indexer.IndexNote(context.Background(), p); err != nil {
			w.logger.Warn("failed to reindex note after change", "path", p, "error", err)
		}
	}
}

func (w *Watcher) shouldIgnore(relPath string) bool {
	if relPath == "." || relPath == "" {
		return true
	}
	parts := strings.Split(relPath, "/")
	for _, part := range parts[:len(parts)-1] {
		if part == logging.MetadataDirName || part == "node_modules" || part == ".git" {
			return true
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
