package indexer

import (
	"context"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/vaultrag/core/internal/errors"
)

// writerLockName is the lock file's name within the vault's metadata
// directory. Holding it is the process-wide mutual exclusion mechanism for
// IndexMetadata and vector-store writes across multiple vaultrag processes
// (§5 "a process-wide lock on the index directory").
const writerLockName = "writer.lock"

// WriterLock serializes indexing runs across processes sharing one vault.
// Goroutine-level exclusion within a single process is handled separately by
// the Indexer's own mutex; WriterLock exists for the multi-process case.
type WriterLock struct {
	fl *flock.Flock
}

// NewWriterLock returns a WriterLock for the metadata directory metaDir.
func NewWriterLock(metaDir string) *WriterLock {
	return &WriterLock{fl: flock.New(filepath.Join(metaDir, writerLockName))}
}

// Acquire blocks until the lock is held or ctx is done.
func (w *WriterLock) Acquire(ctx context.Context) error {
	ok, err := w.fl.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		if ctx.Err() != nil {
			return errors.CancelledError()
		}
		return errors.IOErrorf(err, "failed to acquire index writer lock")
	}
	if !ok {
		return errors.IOErrorf(nil, "index writer lock held by another process")
	}
	return nil
}

// Release unlocks the writer lock. Safe to call even if Acquire was never
// called successfully.
func (w *WriterLock) Release() error {
	if !w.fl.Locked() {
		return nil
	}
	return w.fl.Unlock()
}
