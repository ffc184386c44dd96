// Package lock serializes pipeline runs per group. Concurrent triggers for
// the same group would race the freshness gate and duplicate every catalog
// call, so the handler takes a group-scoped lock around the run.
package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"log/slog"
)

// GroupLock is a file-based lock keyed by group id. Single process scope:
// replicas on separate hosts are not coordinated.
type GroupLock struct {
	dir    string
	logger *slog.Logger
}

func New(logger *slog.Logger) *GroupLock {
	return &GroupLock{
		dir:    filepath.Join(os.TempDir(), "recommender-locks"),
		logger: logger,
	}
}

// TryLock attempts to acquire the lock for a group, retrying until the
// timeout elapses. It returns false without error when the lock stayed held
// for the whole wait.
func (gl *GroupLock) TryLock(ctx context.Context, groupID string, timeout time.Duration) (bool, error) {
	path := gl.path(groupID)
	if err := os.MkdirAll(gl.dir, 0750); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		// #nosec G304 - path is derived from a sanitized group id
		file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			fmt.Fprintf(file, "%d\n%d\n", time.Now().Unix(), os.Getpid())
			if err := file.Close(); err != nil {
				return false, fmt.Errorf("failed to close lock file: %w", err)
			}
			gl.logger.Debug("Acquired group lock", slog.String("group", groupID))
			return true, nil
		}
		if !os.IsExist(err) {
			return false, fmt.Errorf("failed to create lock file: %w", err)
		}

		// A holder that never unlocked (crashed run) leaves the file
		// behind; treat anything older than twice the wait as abandoned.
		if gl.isStale(path, timeout*2) {
			gl.logger.Warn("Removing stale group lock", slog.String("group", groupID))
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				gl.logger.Error("Failed to remove stale lock", slog.String("group", groupID), slog.Any("error", err))
			}
			continue
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}

	return false, nil
}

// Unlock releases the lock for a group. Releasing an unheld lock is a no-op.
func (gl *GroupLock) Unlock(groupID string) error {
	if err := os.Remove(gl.path(groupID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	gl.logger.Debug("Released group lock", slog.String("group", groupID))
	return nil
}

func (gl *GroupLock) path(groupID string) string {
	// Base strips any path separators a hostile group id could carry.
	return filepath.Join(gl.dir, filepath.Base(groupID)+".lock")
}

func (gl *GroupLock) isStale(path string, staleAfter time.Duration) bool {
	info, err := os.Stat(path)
	if err != nil {
		return true
	}
	return time.Since(info.ModTime()) > staleAfter
}
