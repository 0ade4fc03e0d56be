package versionstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// lockDir is the subdirectory under the store's data directory holding
// per-workflow advisory lock files, e.g.
// "~/.config/n8nctl/.locks/<workflowId>.lock".
const lockDir = ".locks"

// withWorkflowLock serializes writers per workflowId across processes, so
// two concurrent bulk commands cannot produce interleaved version numbers.
// A zero dataDir skips locking entirely.
func (s *Store) withWorkflowLock(ctx context.Context, workflowID string, fn func() error) error {
	if s.dataDir == "" {
		return fn()
	}
	dir := filepath.Join(s.dataDir, lockDir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("versionstore: create lock dir: %w", err)
	}
	path := filepath.Join(dir, workflowID+".lock")
	fl := flock.New(path)
	locked, err := fl.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return fmt.Errorf("versionstore: acquire lock for %q: %w", workflowID, err)
	}
	if !locked {
		return fmt.Errorf("versionstore: could not acquire lock for %q", workflowID)
	}
	defer fl.Unlock()
	return fn()
}
