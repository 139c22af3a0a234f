package fileutil

import (
	"errors"
	"fmt"
	"os"
)

// FileSize returns the byte size of the file at path and whether it exists.
// A missing file is reported as (0, false, nil) rather than an error, since
// absence is an expected state for WAL and SHM sidecar files.
func FileSize(path string) (size int64, exists bool, err error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.Size(), true, nil
}

// Exists reports whether a file or directory exists at path. Stat errors
// other than non-existence are reported as errors rather than guessed at.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return true, nil
}

// RemoveIfExists removes the file at path, treating non-existence as success.
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
