package gantry

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/harborhq/gantry/internal/lifecycle"
)

// requirePositive panics if v <= 0 with a descriptive message.
func requirePositive(name string, v time.Duration) {
	if v <= 0 {
		panic(fmt.Sprintf("gantry: %s must be greater than 0, got %v", name, v))
	}
}

// requireNonEmpty panics if s is empty with a descriptive message.
func requireNonEmpty(name, s string) {
	if s == "" {
		panic(fmt.Sprintf("gantry: %s must not be empty", name))
	}
}

// Option configures a Supervisor during construction via New.
// Each With* function returns an Option that sets a specific field.
//
// Several With* functions panic on invalid input (empty paths, non-positive
// durations). These panics are intentional: option values are typically
// compile-time constants or deployment configuration resolved before New,
// so an invalid value indicates a programmer error rather than a runtime
// condition. The pattern mirrors [regexp.MustCompile] — fail fast during
// initialization instead of returning errors that would be universally
// fatal anyway.
type Option func(*lifecycle.Config)

// WithDataDir sets the data directory: the object-storage mount point that
// backs the database and serves as the server's working directory.
// Required (New fails without it).
// Panics if dir is empty.
func WithDataDir(dir string) Option {
	requireNonEmpty("data directory", dir)
	return func(c *lifecycle.Config) {
		c.DataDir = dir
	}
}

// WithBinary sets the application server executable.
// Required (New fails without it).
// Panics if binPath is empty.
func WithBinary(binPath string) Option {
	requireNonEmpty("server binary path", binPath)
	return func(c *lifecycle.Config) {
		c.Binary = binPath
	}
}

// WithArgs sets extra arguments passed to the application server.
func WithArgs(args ...string) Option {
	return func(c *lifecycle.Config) {
		c.Args = args
	}
}

// WithDBPath overrides the database file location.
//
// Default: <data dir>/database.sqlite.
//
// Panics if dbPath is empty.
func WithDBPath(dbPath string) Option {
	requireNonEmpty("database path", dbPath)
	return func(c *lifecycle.Config) {
		c.DBPath = dbPath
	}
}

// WithHealthURL enables the diagnostic readiness probe against the server's
// health endpoint. The probe only logs; it never restarts or kills the
// server.
// Panics if url is empty.
func WithHealthURL(url string) Option {
	requireNonEmpty("health URL", url)
	return func(c *lifecycle.Config) {
		c.HealthURL = url
	}
}

// WithCapturedLogs redirects the server's stdout and stderr to log files in
// the data directory instead of inheriting the supervisor's streams.
func WithCapturedLogs() Option {
	return func(c *lifecycle.Config) {
		c.CaptureLogs = true
	}
}

// WithLockPath overrides the run-lock file location. The lock must live on
// local disk, not on the object-storage mount.
//
// Default: <system temp dir>/gantry.lock.
//
// Panics if lockPath is empty.
func WithLockPath(lockPath string) Option {
	requireNonEmpty("lock path", lockPath)
	return func(c *lifecycle.Config) {
		c.LockPath = lockPath
	}
}

// WithoutRunLock disables the at-most-one-supervisor guard. Only sensible
// when the deployment guarantees a single supervisor some other way.
func WithoutRunLock() Option {
	return func(c *lifecycle.Config) {
		c.DisableRunLock = true
	}
}

// WithMountWaitTimeout sets the total budget for the mount-readiness gate.
//
// Default: 5 minutes.
//
// Panics if d <= 0.
func WithMountWaitTimeout(d time.Duration) Option {
	requirePositive("mount wait timeout", d)
	return func(c *lifecycle.Config) {
		c.MountWaitTimeout = d
	}
}

// WithMountWaitInterval sets the delay between mount write probes.
//
// Default: 2 seconds.
//
// Panics if d <= 0.
func WithMountWaitInterval(d time.Duration) Option {
	requirePositive("mount wait interval", d)
	return func(c *lifecycle.Config) {
		c.MountWaitInterval = d
	}
}

// WithShutdownTimeout sets the graceful-shutdown ceiling: how long the
// server gets between SIGTERM and SIGKILL. Set it below the platform's own
// termination grace period, or the platform will kill the supervisor before
// the final checkpoint and sync can run.
//
// Default: 30 seconds.
//
// Panics if d <= 0.
func WithShutdownTimeout(d time.Duration) Option {
	requirePositive("shutdown timeout", d)
	return func(c *lifecycle.Config) {
		c.ShutdownTimeout = d
	}
}

// WithShutdownPollInterval sets how often server liveness is probed while
// waiting out the graceful-shutdown ceiling.
//
// Default: 1 second.
//
// Panics if d <= 0.
func WithShutdownPollInterval(d time.Duration) Option {
	requirePositive("shutdown poll interval", d)
	return func(c *lifecycle.Config) {
		c.ShutdownPollInterval = d
	}
}

// WithSyncSettleDelay sets the hold after the final sync, giving an
// asynchronous mount daemon time to flush to the backing store. A negative
// value disables the hold.
//
// Default: 5 seconds.
func WithSyncSettleDelay(d time.Duration) Option {
	return func(c *lifecycle.Config) {
		c.SyncSettleDelay = d
	}
}

// WithLogger sets the logger for this supervisor, overriding the
// package-level logger configured via SetLogger.
// Panics if l is nil.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic("gantry: logger must not be nil")
	}
	return func(c *lifecycle.Config) {
		c.Logger = l
	}
}
