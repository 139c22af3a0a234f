package lifecycle

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/harborhq/gantry/internal/mountwait"
	"github.com/harborhq/gantry/internal/runlock"
	"github.com/harborhq/gantry/internal/sqliteutil"
)

// Default timing constants for the supervisor. All wait ceilings are fixed
// at construction time — nothing is reconfigurable while the supervisor
// runs — but they are named here rather than inlined so tests can shrink
// them through Config.
const (
	// DefaultShutdownTimeout is the graceful-shutdown ceiling: how long
	// the child gets between SIGTERM and SIGKILL.
	DefaultShutdownTimeout = 30 * time.Second

	// DefaultShutdownPollInterval is how often child liveness is probed
	// while waiting out the graceful-shutdown ceiling.
	DefaultShutdownPollInterval = time.Second

	// DefaultSyncSettleDelay is how long the supervisor holds after the
	// final sync. A local fsync does not guarantee remote durability on an
	// object-storage mount; the mount daemon flushes asynchronously and
	// needs a moment before the container is reclaimed.
	DefaultSyncSettleDelay = 5 * time.Second

	// DefaultLockTimeout bounds run-lock acquisition at startup. The lock
	// is only ever held briefly by a predecessor finishing its shutdown.
	DefaultLockTimeout = 30 * time.Second

	// DefaultReadyProbeTimeout bounds the diagnostic health probe after
	// the child starts.
	DefaultReadyProbeTimeout = 5 * time.Minute

	// DefaultDBFileName is the database file name the workflow server
	// creates inside the data directory.
	DefaultDBFileName = "database.sqlite"
)

// Config holds the supervisor configuration.
//
// All fields are immutable after New; the Supervisor never mutates its
// configuration while running.
type Config struct {
	// DataDir is the mount point backing the database file triple and the
	// child's working directory. Required. The directory is externally
	// provisioned; the supervisor probes it but never creates it.
	DataDir string

	// DBPath is the main database file. Defaults to DataDir/database.sqlite.
	DBPath string

	// Binary is the application server executable. Required.
	Binary string

	// Args are extra arguments for the server. The default invocation
	// passes none.
	Args []string

	// HealthURL enables the diagnostic readiness probe of the child's
	// health endpoint. Empty disables it.
	HealthURL string

	// CaptureLogs redirects child stdout/stderr to files in DataDir
	// instead of inheriting the supervisor's streams.
	CaptureLogs bool

	// LockPath is the run-lock file, which must live OFF the data mount.
	// Defaults to the system temp directory. DisableRunLock skips the
	// guard entirely. LockTimeout bounds acquisition; zero takes the
	// default above.
	LockPath       string
	LockTimeout    time.Duration
	DisableRunLock bool

	// MountWaitInterval and MountWaitTimeout shape the mount-readiness
	// gate. Zero values take the mountwait defaults.
	MountWaitInterval time.Duration
	MountWaitTimeout  time.Duration

	// ShutdownPollInterval and ShutdownTimeout shape the graceful stop.
	// Zero values take the defaults above.
	ShutdownPollInterval time.Duration
	ShutdownTimeout      time.Duration

	// RecoverSettleDelay is the pause after a destructive recovery
	// fallback. Zero takes the sqliteutil default; negative disables.
	RecoverSettleDelay time.Duration

	// SyncSettleDelay is the hold after the final sync. Zero takes the
	// default above; negative disables.
	SyncSettleDelay time.Duration

	// ReadyProbeTimeout bounds the diagnostic health probe. Zero takes
	// the default above.
	ReadyProbeTimeout time.Duration

	// Logger (optional, defaults to slog.Default())
	Logger *slog.Logger
}

// Validate checks all Config invariants and returns an error describing
// every violation found. It uses errors.Join to report multiple issues at
// once, so callers can fix all problems in a single pass.
func (c Config) Validate() error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, errors.New("data directory must not be empty"))
	}
	if c.Binary == "" {
		errs = append(errs, errors.New("server binary path must not be empty"))
	}
	if c.MountWaitInterval < 0 {
		errs = append(errs, fmt.Errorf("mount wait interval must not be negative, got %s", c.MountWaitInterval))
	}
	if c.MountWaitTimeout < 0 {
		errs = append(errs, fmt.Errorf("mount wait timeout must not be negative, got %s", c.MountWaitTimeout))
	}
	if c.ShutdownPollInterval < 0 {
		errs = append(errs, fmt.Errorf("shutdown poll interval must not be negative, got %s", c.ShutdownPollInterval))
	}
	if c.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("shutdown timeout must not be negative, got %s", c.ShutdownTimeout))
	}
	if c.ReadyProbeTimeout < 0 {
		errs = append(errs, fmt.Errorf("ready probe timeout must not be negative, got %s", c.ReadyProbeTimeout))
	}
	if c.LockTimeout < 0 {
		errs = append(errs, fmt.Errorf("lock timeout must not be negative, got %s", c.LockTimeout))
	}

	return errors.Join(errs...)
}

// withDefaults returns a copy of c with zero-valued fields replaced by
// the package defaults.
func (c Config) withDefaults() Config {
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, DefaultDBFileName)
	}
	if c.LockPath == "" {
		c.LockPath = runlock.DefaultPath("gantry")
	}
	if c.LockTimeout == 0 {
		c.LockTimeout = DefaultLockTimeout
	}
	if c.MountWaitInterval == 0 {
		c.MountWaitInterval = mountwait.DefaultInterval
	}
	if c.MountWaitTimeout == 0 {
		c.MountWaitTimeout = mountwait.DefaultTimeout
	}
	if c.ShutdownPollInterval == 0 {
		c.ShutdownPollInterval = DefaultShutdownPollInterval
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.RecoverSettleDelay == 0 {
		c.RecoverSettleDelay = sqliteutil.DefaultRecoverSettleDelay
	}
	if c.SyncSettleDelay == 0 {
		c.SyncSettleDelay = DefaultSyncSettleDelay
	}
	if c.ReadyProbeTimeout == 0 {
		c.ReadyProbeTimeout = DefaultReadyProbeTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
