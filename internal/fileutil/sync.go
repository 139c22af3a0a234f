package fileutil

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"
)

// SyncFile opens the file at path read-only and issues an fsync on it.
// A missing file is a no-op: the caller typically syncs a database file
// triple whose WAL and SHM members may already be gone after a checkpoint.
func SyncFile(path string) error {
	f, err := os.Open(path) //nolint:gosec // G304: paths are from controlled sources
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open %s for sync: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // read-only handle; sync error is what matters

	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", path, err)
	}
	return nil
}

// SyncDir fsyncs the directory at path so that entry creations and removals
// (such as a truncated or deleted WAL file) reach stable storage. On
// filesystems that do not support fsync on directories the error is
// propagated to the caller, who decides whether it is fatal.
func SyncDir(path string) error {
	d, err := os.Open(path) //nolint:gosec // G304: paths are from controlled sources
	if err != nil {
		return fmt.Errorf("open directory %s for sync: %w", path, err)
	}
	defer d.Close() //nolint:errcheck // read-only handle; sync error is what matters

	if err := d.Sync(); err != nil {
		return fmt.Errorf("sync directory %s: %w", path, err)
	}
	return nil
}

// SyncFiles fsyncs every listed file concurrently and returns the combined
// error. Missing files are skipped (see SyncFile). The files are independent
// descriptors, so the fsyncs can proceed in parallel; on a network-backed
// mount each sync is a round trip and serializing them adds up.
func SyncFiles(paths ...string) error {
	var g errgroup.Group
	for _, p := range paths {
		p := p
		g.Go(func() error {
			return SyncFile(p)
		})
	}
	return g.Wait()
}
