// Package runlock guarantees at most one supervisor per container.
//
// The guard is an exclusive advisory lock on a file OUTSIDE the data mount:
// object-storage mounts do not support file locking, so the lock lives on
// local disk (the system temp directory by default). A second supervisor in
// the same container — a misconfigured entrypoint, a debugging session gone
// wrong — would race the first on the database file triple during recovery
// and shutdown, which is exactly what the lock prevents.
package runlock

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// retryInterval is the interval between consecutive attempts to acquire the
// run lock. Contention is only ever momentary (a predecessor finishing its
// shutdown sequence), so a short retry keeps startup snappy without
// busy-spinning.
const retryInterval = 100 * time.Millisecond

// DefaultPath returns the default lock file location for the given
// supervisor name, under the system temp directory.
func DefaultPath(name string) string {
	return filepath.Join(os.TempDir(), name+".lock")
}

// Acquire takes an exclusive lock on lockPath, retrying until the context is
// done. The returned lock must be released with Release.
func Acquire(ctx context.Context, lockPath string) (*flock.Flock, error) {
	fl := flock.New(lockPath)

	locked, err := fl.TryLockContext(ctx, retryInterval)
	if err != nil {
		return nil, fmt.Errorf("acquiring run lock %s: %w", lockPath, err)
	}
	if !locked {
		// TryLockContext should return an error when it fails, but handle
		// the case where it returns (false, nil) unexpectedly.
		if ctx.Err() != nil {
			return nil, fmt.Errorf("acquiring run lock %s: %w", lockPath, ctx.Err())
		}
		return nil, fmt.Errorf("acquiring run lock %s: lock not acquired", lockPath)
	}

	return fl, nil
}

// Release releases the lock and closes its file descriptor. The lock file is
// intentionally left on disk: removing it could invalidate a lock a
// concurrently starting supervisor just acquired on the same path. Close
// calls Unlock internally. Best-effort cleanup; errors are logged at debug
// level only.
func Release(logger *slog.Logger, fl *flock.Flock) {
	if fl == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := fl.Close(); err != nil {
		logger.Debug("failed to release run lock", "path", fl.Path(), "err", err)
	}
}
