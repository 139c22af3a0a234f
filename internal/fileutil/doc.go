// Package fileutil provides file operation helpers for the supervisor.
//
// EnsureDir creates directories recursively, CopyFile copies files with
// optional fsync and atomic temp-file-then-rename semantics, FileSize reports
// sizes without treating absence as an error, and SyncFiles/SyncDir flush
// buffered writes to stable storage. These are used for preparing the data
// directory, snapshotting the database before destructive recovery, and
// flushing the database file triple during shutdown.
package fileutil
