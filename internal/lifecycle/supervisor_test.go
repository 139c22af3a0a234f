package lifecycle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/gofrs/flock"
)

// testConfig returns a Config that runs /bin/sh with the given script as
// the supervised child, with all timing constants shrunk for tests.
func testConfig(t *testing.T, script string) Config {
	t.Helper()
	return Config{
		DataDir:              t.TempDir(),
		Binary:               "/bin/sh",
		Args:                 []string{"-c", script},
		DisableRunLock:       true,
		MountWaitInterval:    10 * time.Millisecond,
		MountWaitTimeout:     time.Second,
		ShutdownPollInterval: 50 * time.Millisecond,
		ShutdownTimeout:      5 * time.Second,
		RecoverSettleDelay:   -1,
		SyncSettleDelay:      -1,
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		cfg     Config
		wantErr bool
	}{
		"valid": {
			cfg: Config{DataDir: "/data", Binary: "/usr/bin/server"},
		},
		"missing data dir": {
			cfg:     Config{Binary: "/usr/bin/server"},
			wantErr: true,
		},
		"missing binary": {
			cfg:     Config{DataDir: "/data"},
			wantErr: true,
		},
		"negative shutdown timeout": {
			cfg:     Config{DataDir: "/data", Binary: "/usr/bin/server", ShutdownTimeout: -time.Second},
			wantErr: true,
		},
		"negative mount wait interval": {
			cfg:     Config{DataDir: "/data", Binary: "/usr/bin/server", MountWaitInterval: -time.Second},
			wantErr: true,
		},
		"everything wrong at once": {
			cfg:     Config{ShutdownPollInterval: -1, MountWaitTimeout: -1},
			wantErr: true,
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := tc.cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{DataDir: "/data", Binary: "/usr/bin/server"}.withDefaults()

	if want := filepath.Join("/data", DefaultDBFileName); cfg.DBPath != want {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, want)
	}
	if cfg.LockPath == "" {
		t.Error("LockPath not defaulted")
	}
	if cfg.ShutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("ShutdownTimeout = %s, want %s", cfg.ShutdownTimeout, DefaultShutdownTimeout)
	}
	if cfg.ShutdownPollInterval != DefaultShutdownPollInterval {
		t.Errorf("ShutdownPollInterval = %s, want %s", cfg.ShutdownPollInterval, DefaultShutdownPollInterval)
	}
	if cfg.Logger == nil {
		t.Error("Logger not defaulted")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for empty config, got nil")
	}
}

func TestRunPropagatesOrganicExitCode(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		script   string
		wantCode int
	}{
		"clean exit":   {script: "exit 0", wantCode: 0},
		"failure exit": {script: "exit 5", wantCode: 5},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			sup, err := New(testConfig(t, tc.script))
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			signals := make(chan os.Signal, 1)
			code, err := sup.Run(context.Background(), signals)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if code != tc.wantCode {
				t.Errorf("exit code = %d, want %d", code, tc.wantCode)
			}
			if sup.State() != StateDone {
				t.Errorf("final state = %s, want %s", sup.State(), StateDone)
			}
		})
	}
}

func TestRunGracefulShutdownOnSignal(t *testing.T) {
	t.Parallel()

	sup, err := New(testConfig(t, "sleep 60"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	signals := make(chan os.Signal, 1)
	go func() {
		// Give the child time to start before requesting shutdown.
		time.Sleep(300 * time.Millisecond)
		signals <- syscall.SIGTERM
	}()

	start := time.Now()
	code, err := sup.Run(context.Background(), signals)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != ExitOK {
		t.Errorf("exit code = %d, want %d", code, ExitOK)
	}
	if sup.State() != StateDone {
		t.Errorf("final state = %s, want %s", sup.State(), StateDone)
	}
	// sleep dies promptly on SIGTERM; hitting the 5s forced-kill ceiling
	// would mean the graceful path did not work.
	if elapsed := time.Since(start); elapsed > 4*time.Second {
		t.Errorf("shutdown took %s, expected a prompt graceful stop", elapsed)
	}
}

func TestRunForcedShutdownStillExitsZero(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, `trap '' TERM; sleep 60`)
	cfg.ShutdownTimeout = time.Second

	sup, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	signals := make(chan os.Signal, 1)
	go func() {
		time.Sleep(300 * time.Millisecond)
		signals <- syscall.SIGTERM
	}()

	code, err := sup.Run(context.Background(), signals)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != ExitOK {
		t.Errorf("exit code = %d, want %d: a forced kill is not a supervisor failure", code, ExitOK)
	}
	if sup.State() != StateDone {
		t.Errorf("final state = %s, want %s", sup.State(), StateDone)
	}
}

func TestRunContextCancelShutsDownGracefully(t *testing.T) {
	t.Parallel()

	// The child records the SIGTERM it receives. The shell must run sleep
	// in the background and block in wait, or it would not process the
	// trap until sleep finishes.
	cfg := testConfig(t, `trap 'touch got-term; exit 0' TERM; sleep 60 & wait $!`)

	sup, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(300 * time.Millisecond)
		cancel()
	}()

	signals := make(chan os.Signal, 1)
	code, err := sup.Run(ctx, signals)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != ExitOK {
		t.Errorf("exit code = %d, want %d", code, ExitOK)
	}
	// Cancelling the run context must route through the graceful stop, so
	// the child sees SIGTERM rather than an immediate kill.
	if _, statErr := os.Stat(filepath.Join(cfg.DataDir, "got-term")); statErr != nil {
		t.Errorf("child never observed SIGTERM on context cancel: %v", statErr)
	}
	if sup.State() != StateDone {
		t.Errorf("final state = %s, want %s", sup.State(), StateDone)
	}
}

func TestRunMountTimeoutFailsBeforeSpawn(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "touch spawned; sleep 60")
	missing := filepath.Join(t.TempDir(), "never-mounted")
	cfg.DataDir = missing
	cfg.MountWaitTimeout = 300 * time.Millisecond

	sup, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	signals := make(chan os.Signal, 1)
	code, err := sup.Run(context.Background(), signals)
	if err == nil {
		t.Fatal("expected mount timeout error, got nil")
	}
	if !errors.Is(err, ErrMountTimeout) {
		t.Errorf("error = %v, want wrapped %v", err, ErrMountTimeout)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want wrapped %v", err, context.DeadlineExceeded)
	}
	if code != ExitStartupFailure {
		t.Errorf("exit code = %d, want %d", code, ExitStartupFailure)
	}
	// The data directory never existed, so the child cannot have run.
	if _, statErr := os.Stat(filepath.Join(missing, "spawned")); statErr == nil {
		t.Error("child was spawned despite the mount gate failing")
	}
}

func TestRunHoldsRunLock(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "gantry.lock")

	cfg := testConfig(t, "exit 0")
	cfg.DisableRunLock = false
	cfg.LockPath = lockPath

	sup, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	signals := make(chan os.Signal, 1)
	code, err := sup.Run(context.Background(), signals)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if _, err := os.Stat(lockPath); err != nil {
		t.Errorf("lock file missing after run: %v", err)
	}
}

func TestRunFailsWhenRunLockHeld(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "gantry.lock")
	holder := flock.New(lockPath)
	locked, err := holder.TryLock()
	if err != nil || !locked {
		t.Fatalf("pre-acquiring lock: locked=%v err=%v", locked, err)
	}
	defer holder.Close() //nolint:errcheck

	cfg := testConfig(t, "touch spawned; sleep 60")
	cfg.DisableRunLock = false
	cfg.LockPath = lockPath
	cfg.LockTimeout = 300 * time.Millisecond

	sup, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	signals := make(chan os.Signal, 1)
	code, err := sup.Run(context.Background(), signals)
	if err == nil {
		t.Fatal("expected run lock error, got nil")
	}
	if !errors.Is(err, ErrRunLockUnavailable) {
		t.Errorf("error = %v, want wrapped %v", err, ErrRunLockUnavailable)
	}
	if code != ExitStartupFailure {
		t.Errorf("exit code = %d, want %d", code, ExitStartupFailure)
	}
	if _, statErr := os.Stat(filepath.Join(cfg.DataDir, "spawned")); statErr == nil {
		t.Error("child was spawned despite the run lock being held")
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	tests := map[State]string{
		StateRunning:       "RUNNING",
		StateTermSent:      "TERM_SENT",
		StateWaitChild:     "WAIT_CHILD",
		StateGracefulExit:  "GRACEFUL_EXIT",
		StateForcedExit:    "FORCED_EXIT",
		StateCheckpointing: "CHECKPOINTING",
		StateSyncing:       "SYNCING",
		StateDone:          "DONE",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(state), got, want)
		}
	}
}
