// Package sqliteutil reconciles a SQLite database against its WAL and SHM
// sidecar files.
//
// Checkpoint folds WAL-resident pages into the main database file using the
// engine's own wal_checkpoint pragma in TRUNCATE mode; it never performs raw
// byte surgery on the files. Recover runs at supervisor startup and decides,
// from which of the file triple exist, whether a checkpoint is needed and
// what to do when it fails. The failure fallback deliberately discards the
// WAL and SHM files: on a single-instance deployment an unbootable container
// is worse than losing the last unflushed write batch.
package sqliteutil
