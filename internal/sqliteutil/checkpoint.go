package sqliteutil

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/harborhq/gantry/internal/fileutil"

	// Register the pure-Go SQLite driver (no CGO required).
	_ "modernc.org/sqlite"
)

// checkpointBusyTimeoutMillis is the busy timeout for the checkpoint
// connection. The child application may still hold the write lock for a
// moment around shutdown; a bounded wait beats failing instantly, but the
// supervisor must never hang here indefinitely.
const checkpointBusyTimeoutMillis = 5000

// CheckpointResult reports what a checkpoint invocation observed. The byte
// counts are purely observational logging material; control flow depends
// only on Ran and the error return.
type CheckpointResult struct {
	Ran            bool  // false when the call was a trivial no-op
	WALBytesBefore int64 // WAL size before the checkpoint, 0 if absent
	WALBytesAfter  int64 // WAL size after the checkpoint, 0 if absent
}

// Checkpoint folds all WAL-resident pages into the main database file and
// truncates the WAL, using the engine's wal_checkpoint pragma in TRUNCATE
// mode.
//
// Checked preconditions, not errors: if the main database file does not
// exist, or no non-empty WAL file is present, Checkpoint returns success
// without opening the engine at all. Calling it twice in succession is
// therefore idempotent — the second call observes an empty WAL and no-ops.
func Checkpoint(ctx context.Context, dbPath string, log *slog.Logger) (CheckpointResult, error) {
	if log == nil {
		log = slog.Default()
	}

	dbExists, err := fileutil.Exists(dbPath)
	if err != nil {
		return CheckpointResult{}, err
	}
	if !dbExists {
		log.Debug("checkpoint skipped: no database file", "db", dbPath)
		return CheckpointResult{}, nil
	}

	walBefore, walExists, err := fileutil.FileSize(WALPath(dbPath))
	if err != nil {
		return CheckpointResult{}, err
	}
	if !walExists || walBefore == 0 {
		log.Debug("checkpoint skipped: no WAL pages to fold", "db", dbPath)
		return CheckpointResult{}, nil
	}

	if err := runCheckpoint(ctx, dbPath); err != nil {
		return CheckpointResult{Ran: true, WALBytesBefore: walBefore}, err
	}

	walAfter, _, err := fileutil.FileSize(WALPath(dbPath))
	if err != nil {
		// The checkpoint itself succeeded; a stat failure afterwards is
		// only a lost log detail.
		walAfter = 0
	}
	res := CheckpointResult{Ran: true, WALBytesBefore: walBefore, WALBytesAfter: walAfter}
	log.Info("checkpointed WAL into database",
		"db", dbPath, "wal_bytes_before", walBefore, "wal_bytes_after", walAfter)
	return res, nil
}

// runCheckpoint opens the database and issues the checkpoint command. The
// connection is deliberately short-lived: open, one pragma, close.
func runCheckpoint(ctx context.Context, dbPath string) error {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", dbPath, checkpointBusyTimeoutMillis)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	defer db.Close() //nolint:errcheck // short-lived session; checkpoint error is what matters

	// Single connection — a short-lived session, not a pool.
	db.SetMaxOpenConns(1)

	// wal_checkpoint reports (busy, log_pages, checkpointed_pages). A busy
	// result means the engine could not obtain the locks it needed, which
	// is a failure for our purposes even though the pragma itself returned
	// without error.
	var busy, logPages, ckptPages int64
	row := db.QueryRowContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`)
	if err := row.Scan(&busy, &logPages, &ckptPages); err != nil {
		return fmt.Errorf("wal_checkpoint(TRUNCATE) on %s: %w", dbPath, err)
	}
	if busy != 0 {
		return fmt.Errorf("wal_checkpoint(TRUNCATE) on %s: database busy (%d of %d pages checkpointed)",
			dbPath, ckptPages, logPages)
	}
	return nil
}
