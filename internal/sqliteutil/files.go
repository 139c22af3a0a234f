package sqliteutil

// Sidecar suffixes follow the SQLite naming convention: the WAL and SHM
// files live next to the main database file with fixed suffixes.
const (
	walSuffix = "-wal"
	shmSuffix = "-shm"
)

// WALPath returns the path of the write-ahead-log sidecar for dbPath.
func WALPath(dbPath string) string {
	return dbPath + walSuffix
}

// SHMPath returns the path of the shared-memory index sidecar for dbPath.
func SHMPath(dbPath string) string {
	return dbPath + shmSuffix
}

// TriplePaths returns the main database file and both sidecar paths, in a
// fixed order suitable for bulk sync or removal.
func TriplePaths(dbPath string) []string {
	return []string{dbPath, WALPath(dbPath), SHMPath(dbPath)}
}
