package sqliteutil

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/harborhq/gantry/internal/fileutil"
)

// DefaultRecoverSettleDelay is how long recovery pauses after discarding
// WAL/SHM files, giving the mount layer time to settle the removals before
// the child opens the database.
const DefaultRecoverSettleDelay = 2 * time.Second

// snapshotSuffix names the safety copy of the main database file taken
// before a recovery checkpoint is attempted.
const snapshotSuffix = ".pre-recovery"

// RecoverConfig configures pre-start database recovery.
type RecoverConfig struct {
	// DBPath is the main database file. Required.
	DBPath string

	// SettleDelay overrides DefaultRecoverSettleDelay. Zero keeps the default;
	// negative disables the pause (used by tests).
	SettleDelay time.Duration

	// Logger (optional, defaults to slog.Default())
	Logger *slog.Logger
}

// SnapshotPath returns where Recover snapshots the main database file before
// attempting a checkpoint.
func SnapshotPath(dbPath string) string {
	return dbPath + snapshotSuffix
}

// Recover reconciles the database file triple before the child application
// starts, so the main file reflects all previously durable writes and no
// stale WAL artifacts can desynchronize the fresh instance.
//
// Outcomes, in order of checking:
//   - no main database file: nothing to do, the child initializes it;
//   - main file present, no WAL/SHM sidecars: clean prior shutdown;
//   - sidecars present (prior crash or unclean stop): checkpoint; if the
//     checkpoint fails, delete the WAL and SHM files outright and pause
//     briefly for the mount to settle. Deleting loses any uncommitted pages;
//     that is a deliberate availability-over-durability tradeoff — with no
//     peer instance to fail over to, an unbootable container is the worse
//     outcome.
//
// Recovery is corrective, not gating: it returns an error only for stat
// failures that leave the triple's state unknown, and the caller treats even
// that as a warning. It never blocks startup.
func Recover(ctx context.Context, cfg RecoverConfig) error {
	if cfg.DBPath == "" {
		return errors.New("recover: db path must not be empty")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	dbSize, dbExists, err := fileutil.FileSize(cfg.DBPath)
	if err != nil {
		return err
	}
	if !dbExists {
		log.Info("no database found; child will initialize a fresh one", "db", cfg.DBPath)
		return nil
	}

	walSize, walExists, err := fileutil.FileSize(WALPath(cfg.DBPath))
	if err != nil {
		return err
	}
	shmSize, shmExists, err := fileutil.FileSize(SHMPath(cfg.DBPath))
	if err != nil {
		return err
	}

	if !walExists && !shmExists {
		log.Info("database is clean, no WAL artifacts present", "db", cfg.DBPath, "db_bytes", dbSize)
		return nil
	}

	log.Info("found WAL artifacts from a prior run, reconciling",
		"db", cfg.DBPath, "db_bytes", dbSize,
		"wal_present", walExists, "wal_bytes", walSize,
		"shm_present", shmExists, "shm_bytes", shmSize)

	// Snapshot the main file before the checkpoint touches it. Best-effort:
	// a failed snapshot must not stand between the container and booting.
	if err := snapshotDB(cfg.DBPath, log); err != nil {
		log.Warn("pre-recovery snapshot failed, continuing without one",
			"db", cfg.DBPath, "error", err)
	}

	if _, err := Checkpoint(ctx, cfg.DBPath, log); err != nil {
		log.Warn("recovery checkpoint failed; discarding WAL and SHM files, "+
			"uncommitted pages will be lost", "db", cfg.DBPath, "error", err)
		discardSidecars(cfg.DBPath, log)
		settle(ctx, cfg.SettleDelay, log)
		return nil
	}

	// With the WAL folded (or absent to begin with, as when only the SHM
	// survived the crash), a leftover SHM holds no data and would only
	// confuse the fresh instance. Remove it so the triple is truly clean.
	if walNow, walStillThere, statErr := fileutil.FileSize(WALPath(cfg.DBPath)); statErr == nil &&
		(!walStillThere || walNow == 0) {
		if err := fileutil.RemoveIfExists(SHMPath(cfg.DBPath)); err != nil {
			log.Warn("failed to remove stale SHM file", "path", SHMPath(cfg.DBPath), "error", err)
		}
	}

	log.Info("database recovered", "db", cfg.DBPath)
	return nil
}

// snapshotDB copies the main database file aside with fsync and atomic
// rename, so a botched recovery can be inspected or rolled back by hand.
func snapshotDB(dbPath string, log *slog.Logger) error {
	mode := os.FileMode(0o600)
	dst := SnapshotPath(dbPath)
	if err := fileutil.CopyFile(dbPath, dst, &fileutil.CopyFileOptions{
		Mode:   &mode,
		Sync:   true,
		Atomic: true,
	}); err != nil {
		return err
	}
	log.Info("snapshotted database before recovery", "db", dbPath, "snapshot", dst)
	return nil
}

// discardSidecars deletes the WAL and SHM files. Removal failures are logged
// and otherwise ignored; there is nothing further to escalate to.
func discardSidecars(dbPath string, log *slog.Logger) {
	for _, path := range []string{WALPath(dbPath), SHMPath(dbPath)} {
		if err := fileutil.RemoveIfExists(path); err != nil {
			log.Warn("failed to remove WAL artifact", "path", path, "error", err)
		}
	}
}

// settle pauses for the configured delay, honoring context cancellation.
func settle(ctx context.Context, delay time.Duration, log *slog.Logger) {
	if delay == 0 {
		delay = DefaultRecoverSettleDelay
	}
	if delay < 0 {
		return
	}
	log.Debug("pausing for filesystem to settle", "delay", delay)
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
