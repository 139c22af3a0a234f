//go:build unix

package lifecycle

import "syscall"

// systemSync asks the kernel to schedule writeback of all dirty pages.
// FUSE mounts honor this with a flush request to the mount daemon, which
// per-file fsync alone does not always trigger.
func systemSync() {
	syscall.Sync()
}
