package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDir(t *testing.T) {
	t.Parallel()

	t.Run("creates nested directories", func(t *testing.T) {
		t.Parallel()

		base := t.TempDir()
		path := filepath.Join(base, "a", "b", "c")
		if err := EnsureDir(path); err != nil {
			t.Fatalf("EnsureDir: %v", err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if !info.IsDir() {
			t.Error("expected a directory")
		}
	})

	t.Run("existing directory is a no-op", func(t *testing.T) {
		t.Parallel()

		base := t.TempDir()
		if err := EnsureDir(base); err != nil {
			t.Fatalf("EnsureDir on existing dir: %v", err)
		}
	})
}

func TestFileSize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		size, exists, err := FileSize(filepath.Join(dir, "absent"))
		if err != nil {
			t.Fatalf("FileSize: %v", err)
		}
		if exists {
			t.Error("exists = true for missing file")
		}
		if size != 0 {
			t.Errorf("size = %d, want 0", size)
		}
	})

	t.Run("existing file", func(t *testing.T) {
		t.Parallel()

		path := createTestFile(t, dir, "present", "12345")
		size, exists, err := FileSize(path)
		if err != nil {
			t.Fatalf("FileSize: %v", err)
		}
		if !exists {
			t.Error("exists = false for existing file")
		}
		if size != 5 {
			t.Errorf("size = %d, want 5", size)
		}
	})
}

func TestRemoveIfExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	t.Run("missing file is success", func(t *testing.T) {
		t.Parallel()

		if err := RemoveIfExists(filepath.Join(dir, "absent")); err != nil {
			t.Fatalf("RemoveIfExists: %v", err)
		}
	})

	t.Run("removes existing file", func(t *testing.T) {
		t.Parallel()

		path := createTestFile(t, dir, "doomed", "x")
		if err := RemoveIfExists(path); err != nil {
			t.Fatalf("RemoveIfExists: %v", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("file still present after removal: %v", err)
		}
	})
}

func TestSyncFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := createTestFile(t, dir, "a", "aaa")
	b := createTestFile(t, dir, "b", "bbb")

	// Mix of present and absent paths; absent paths are skipped silently.
	if err := SyncFiles(a, b, filepath.Join(dir, "absent")); err != nil {
		t.Fatalf("SyncFiles: %v", err)
	}
}

func TestSyncDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := SyncDir(dir); err != nil {
		t.Fatalf("SyncDir: %v", err)
	}

	if err := SyncDir(filepath.Join(dir, "absent")); err == nil {
		t.Fatal("expected error for missing directory, got nil")
	}
}
