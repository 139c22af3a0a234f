package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/harborhq/gantry/internal/appserver"
	"github.com/harborhq/gantry/internal/fileutil"
	"github.com/harborhq/gantry/internal/mountwait"
	"github.com/harborhq/gantry/internal/process"
	"github.com/harborhq/gantry/internal/runlock"
	"github.com/harborhq/gantry/internal/sentinel"
	"github.com/harborhq/gantry/internal/sqliteutil"
)

// Process exit codes of the supervisor itself.
const (
	// ExitOK is returned after a requested shutdown completes, regardless
	// of whether the child had to be force-killed.
	ExitOK = 0

	// ExitStartupFailure is returned when the supervisor cannot get to the
	// point of having a running child: mount gate timeout, run-lock
	// contention, or a failed spawn.
	ExitStartupFailure = 1
)

// finalizeTimeout bounds the post-exit checkpoint and sync. The run context
// may already be cancelled when finalization starts, so it runs on its own
// deadline.
const finalizeTimeout = time.Minute

// Sentinel errors for error inspection with errors.Is.
const (
	// ErrMountTimeout is returned by Run when the data mount never passed
	// the write probe within the configured timeout.
	ErrMountTimeout = sentinel.Error("data mount never became writable")

	// ErrRunLockUnavailable is returned by Run when another supervisor in
	// the same container already holds the run lock.
	ErrRunLockUnavailable = sentinel.Error("run lock unavailable")
)

// Supervisor drives one child application server through the full
// lifecycle: startup gates, supervision, and durability-ordered shutdown.
//
// A Supervisor is single-use: Run may be called at most once.
type Supervisor struct {
	cfg   Config
	log   *slog.Logger
	state State
}

// New validates cfg, applies defaults and returns a Supervisor ready to Run.
func New(cfg Config) (*Supervisor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid supervisor config: %w", err)
	}
	cfg = cfg.withDefaults()

	return &Supervisor{
		cfg:   cfg,
		log:   cfg.Logger,
		state: StateRunning,
	}, nil
}

// State returns the current lifecycle state. Run mutates it from a single
// goroutine; concurrent readers only get a coherent snapshot after Run
// returns.
func (s *Supervisor) State() State {
	return s.state
}

func (s *Supervisor) transition(next State) {
	s.log.Info("lifecycle transition", "from", s.state.String(), "to", next.String())
	s.state = next
}

// Run executes the supervision lifecycle and returns the process exit code
// the supervisor should terminate with.
//
// The signals channel carries shutdown requests (SIGINT, SIGTERM, SIGQUIT
// as wired by the caller). Run never installs signal handlers itself, so
// tests can drive shutdown by sending on the channel. Cancelling ctx is
// treated like a shutdown request.
//
// A non-nil error is only ever paired with ExitStartupFailure: once the
// child is running, every outcome is expressed through the exit code.
func (s *Supervisor) Run(ctx context.Context, signals <-chan os.Signal) (int, error) {
	if !s.cfg.DisableRunLock {
		lockCtx, cancel := context.WithTimeout(ctx, s.cfg.LockTimeout)
		lock, err := runlock.Acquire(lockCtx, s.cfg.LockPath)
		cancel()
		if err != nil {
			return ExitStartupFailure, fmt.Errorf("%w: %w", ErrRunLockUnavailable, err)
		}
		defer runlock.Release(s.log, lock)
	}

	err := mountwait.Wait(ctx, mountwait.Config{
		Dir:      s.cfg.DataDir,
		Interval: s.cfg.MountWaitInterval,
		Timeout:  s.cfg.MountWaitTimeout,
		Logger:   s.log,
	})
	if err != nil {
		return ExitStartupFailure, fmt.Errorf("%w: %w", ErrMountTimeout, err)
	}

	err = sqliteutil.Recover(ctx, sqliteutil.RecoverConfig{
		DBPath:      s.cfg.DBPath,
		SettleDelay: s.cfg.RecoverSettleDelay,
		Logger:      s.log,
	})
	if err != nil {
		// Recovery has its own internal fallback; an error here means even
		// the file inspection failed. The child gets to try anyway.
		s.log.Warn("pre-start database recovery failed, starting anyway", "db", s.cfg.DBPath, "err", err)
	}

	app, err := appserver.New(appserver.Config{
		Binary:      s.cfg.Binary,
		Args:        s.cfg.Args,
		DataDir:     s.cfg.DataDir,
		HealthURL:   s.cfg.HealthURL,
		CaptureLogs: s.cfg.CaptureLogs,
		Logger:      s.log,
	})
	if err != nil {
		return ExitStartupFailure, err
	}
	if err := app.Start(); err != nil {
		return ExitStartupFailure, fmt.Errorf("starting application server: %w", err)
	}

	if s.cfg.HealthURL != "" {
		probeCtx, cancelProbe := context.WithCancel(ctx)
		defer cancelProbe()
		go s.probeReadiness(probeCtx, app)
	}

	select {
	case <-app.Exited():
		// Organic child exit: the supervisor's job is to preserve the exit
		// code and still leave the database as durable as it can.
		code := app.ReapExit()
		app.Close()
		s.log.Info("application server exited on its own", "code", code)
		s.finalize()
		return code, nil

	case sig := <-signals:
		s.log.Info("shutdown signal received", "signal", sig.String())
		go s.drainSignals(signals)
		return s.shutdown(app)

	case <-ctx.Done():
		s.log.Info("run context cancelled, shutting down", "reason", ctx.Err())
		go s.drainSignals(signals)
		return s.shutdown(app)
	}
}

// probeReadiness runs the diagnostic health probe in the background. The
// outcome only affects logging: a child that never reports healthy is the
// operator's problem, not grounds for the supervisor to intervene.
func (s *Supervisor) probeReadiness(ctx context.Context, app *appserver.Process) {
	if err := app.WaitReady(ctx, s.cfg.ReadyProbeTimeout); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.Warn("application server never reported healthy", "url", s.cfg.HealthURL, "err", err)
		return
	}
	s.log.Info("application server is healthy", "url", s.cfg.HealthURL)
}

// drainSignals consumes further signals during shutdown so repeated Ctrl-C
// cannot re-enter or abort the sequence.
func (s *Supervisor) drainSignals(signals <-chan os.Signal) {
	for sig := range signals {
		s.log.Info("already shutting down, ignoring signal", "signal", sig.String())
	}
}

// shutdown walks the requested-shutdown half of the state machine: stop the
// child (gracefully if it cooperates), then finalize the database. The exit
// code is ExitOK even when the child had to be killed; a forced stop is an
// operational warning, not a supervisor failure.
func (s *Supervisor) shutdown(app *appserver.Process) (int, error) {
	select {
	case <-app.Exited():
		// Child beat the signal to the exit. Nothing to stop; go straight
		// to the durability steps.
		code := app.ReapExit()
		app.Close()
		s.log.Info("application server had already exited", "code", code)
	default:
		s.transition(StateTermSent)
		s.transition(StateWaitChild)
		forced, err := process.StopCloseAndNil(&app, s.cfg.ShutdownPollInterval, s.cfg.ShutdownTimeout)
		if err != nil {
			s.log.Warn("stopping application server", "err", err)
		}
		if forced {
			s.transition(StateForcedExit)
		} else {
			s.transition(StateGracefulExit)
		}
	}

	s.finalize()
	return ExitOK, nil
}

// finalize runs the post-exit durability sequence: checkpoint the WAL into
// the main database file, then push everything through the mount. Both
// steps are best-effort; the child is already gone and failures here are
// logged, never fatal.
func (s *Supervisor) finalize() {
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	s.transition(StateCheckpointing)
	res, err := sqliteutil.Checkpoint(ctx, s.cfg.DBPath, s.log)
	switch {
	case err != nil:
		s.log.Warn("final checkpoint failed", "db", s.cfg.DBPath, "err", err)
	case res.Ran:
		s.log.Info("final checkpoint complete",
			"db", s.cfg.DBPath,
			"wal_bytes_before", res.WALBytesBefore,
			"wal_bytes_after", res.WALBytesAfter)
	}

	s.transition(StateSyncing)
	if err := fileutil.SyncFiles(sqliteutil.TriplePaths(s.cfg.DBPath)...); err != nil {
		s.log.Warn("syncing database files", "err", err)
	}
	if err := fileutil.SyncDir(s.cfg.DataDir); err != nil {
		s.log.Warn("syncing data directory", "dir", s.cfg.DataDir, "err", err)
	}
	systemSync()
	s.settle(ctx)

	s.transition(StateDone)
}

// settle holds after the final sync so an asynchronous mount daemon gets a
// chance to flush to the backing store before the process exits.
func (s *Supervisor) settle(ctx context.Context) {
	if s.cfg.SyncSettleDelay <= 0 {
		return
	}
	s.log.Info("waiting for mount flush", "delay", s.cfg.SyncSettleDelay)
	t := time.NewTimer(s.cfg.SyncSettleDelay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
