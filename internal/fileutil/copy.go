package fileutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/harborhq/gantry/internal/sentinel"
)

// ErrEmptySrc is returned when a source path is empty.
const ErrEmptySrc = sentinel.Error("source path must not be empty")

// ErrEmptyDst is returned when a destination path is empty.
const ErrEmptyDst = sentinel.Error("destination path must not be empty")

// CopyFileOptions configures file copy behavior.
type CopyFileOptions struct {
	Mode   *os.FileMode // Optional: set specific permissions on the destination
	Sync   bool         // If true, fsync dst before closing
	Atomic bool         // If true, write to a temp file then rename to dst
}

// CopyFile copies a file from src to dst, creating parent directories as
// needed. If opts is nil the defaults apply (mode 0644, no sync, no atomic
// rename). It returns an error if src or dst is empty.
//
// When opts.Atomic is true, data is written to a temporary file in the same
// directory as dst and renamed into place. On POSIX systems rename is atomic,
// so concurrent readers never observe a partially written file. Atomic copies
// always fsync before the rename; without it a crash could leave the renamed
// file with incomplete contents.
func CopyFile(src, dst string, opts *CopyFileOptions) (retErr error) {
	if src == "" {
		return ErrEmptySrc
	}
	if dst == "" {
		return ErrEmptyDst
	}

	var o CopyFileOptions
	if opts != nil {
		o = *opts
	}
	mode := os.FileMode(0o644)
	if o.Mode != nil {
		mode = *o.Mode
	}

	if err := EnsureDirForFile(dst); err != nil {
		return fmt.Errorf("prepare destination: %w", err)
	}

	srcFile, err := os.Open(src) //nolint:gosec // G304: paths are from controlled sources
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() {
		if closeErr := srcFile.Close(); closeErr != nil && retErr == nil {
			retErr = fmt.Errorf("close source: %w", closeErr)
		}
	}()

	dstFile, writePath, err := openDst(dst, mode, o.Atomic)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = os.Remove(writePath)
		}
	}()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return fmt.Errorf("copy: %w", err)
	}

	if o.Sync || o.Atomic {
		if err := dstFile.Sync(); err != nil {
			_ = dstFile.Close()
			return fmt.Errorf("sync: %w", err)
		}
	}
	if err := dstFile.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}

	if writePath != dst {
		if err := os.Rename(writePath, dst); err != nil {
			return fmt.Errorf("rename temp file to destination: %w", err)
		}
	}
	return nil
}

// openDst opens the file data will be written to. For atomic copies this is a
// temp file in dst's directory, chmodded to the target mode so the rename does
// not change permissions; otherwise dst itself, created with the target mode
// up front to avoid a window of broader permissions.
func openDst(dst string, mode os.FileMode, atomic bool) (*os.File, string, error) {
	if !atomic {
		f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode) //nolint:gosec // G304: controlled path
		if err != nil {
			return nil, "", fmt.Errorf("create destination: %w", err)
		}
		return f, dst, nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-copy-*")
	if err != nil {
		return nil, "", fmt.Errorf("create temp file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, "", fmt.Errorf("chmod temp file: %w", err)
	}
	return tmp, tmp.Name(), nil
}
