package process

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/harborhq/gantry/internal/sentinel"
)

// ErrAlreadyStarted is returned when Start is called on a process that is
// already running. Callers must Stop the process before starting it again.
const ErrAlreadyStarted = sentinel.Error("process already started")

// ErrNilCmd is returned when SetupAndStart is called with a nil *exec.Cmd.
const ErrNilCmd = sentinel.Error("cmd must not be nil")

// ErrEmptyCmdPath is returned when SetupAndStart is called with an empty cmd.Path.
const ErrEmptyCmdPath = sentinel.Error("cmd.Path must not be empty")

// ErrEmptyDataDir is returned when SetupAndStart is called with an empty data directory.
const ErrEmptyDataDir = sentinel.Error("data directory must not be empty")

// DefaultStopTimeout is the fallback timeout for stopping a process when no
// explicit stop timeout is configured.
const DefaultStopTimeout = 30 * time.Second

// DefaultLivenessPollInterval is the fallback interval between liveness
// probes while waiting for a signaled process to exit.
const DefaultLivenessPollInterval = time.Second

// Supervised owns the lifecycle of a single external child process.
//
// Supervised is not safe for concurrent use. Callers must serialize access
// to all methods. In practice the lifecycle supervisor that embeds Supervised
// drives it from a single control loop.
type Supervised struct {
	cmd      *exec.Cmd
	waitDone <-chan error    // receives the cmd.Wait result; written exactly once
	exited   <-chan struct{} // closed when the process exits; readable by many goroutines
	logFiles LogFiles
	name     string       // process name for logging (e.g., "appserver")
	log      *slog.Logger // logger for operational messages
}

// NewSupervised creates a Supervised with the given name and logger. If
// logger is nil, slog.Default() is used. Panics if name is empty, since an
// empty name produces confusing error messages throughout the process
// lifecycle.
func NewSupervised(name string, logger *slog.Logger) Supervised {
	if name == "" {
		panic("gantry: process name must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return Supervised{name: name, log: logger}
}

// Pid returns the operating-system process id of the running child, or 0 if
// no child is running.
func (s *Supervised) Pid() int {
	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// IsStarted reports whether the process has been started and not yet stopped.
func (s *Supervised) IsStarted() bool {
	return s.cmd != nil
}

// Exited returns a channel that is closed when the process exits. It is safe
// to select on from any number of goroutines. Returns nil if the process has
// not been started or was already stopped.
func (s *Supervised) Exited() <-chan struct{} {
	return s.exited
}

// Logger returns the logger used by this process.
func (s *Supervised) Logger() *slog.Logger {
	return s.log
}

// ReapExit consumes the cmd.Wait result of a process that has already exited
// on its own and returns its exit status. The exit code follows the shell
// convention of 128+signal for signal-terminated processes, so the status can
// be propagated verbatim to a container orchestrator.
//
// ReapExit must only be called after Exited() has fired; calling it on a
// live process blocks until the process terminates. After ReapExit the
// Supervised is reset and IsStarted reports false.
func (s *Supervised) ReapExit() int {
	if s.cmd == nil {
		return 0
	}
	err := <-s.waitDone
	code := exitCodeFromWait(s.cmd, err)
	s.reset()
	return code
}

// exitCodeFromWait derives a propagatable exit status from a completed
// cmd.Wait call. Signal deaths map to 128+signal per shell convention.
func exitCodeFromWait(cmd *exec.Cmd, waitErr error) int {
	state := cmd.ProcessState
	if state == nil {
		// Wait failed before the process ran; treat as generic failure.
		return 1
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	code := state.ExitCode()
	if code < 0 && waitErr != nil {
		return 1
	}
	return code
}

// reset clears process references so IsStarted reports false.
func (s *Supervised) reset() {
	s.cmd = nil
	s.waitDone = nil
	s.exited = nil
}

// Close closes any log file handles held for captured output. If the process
// is still running, Close logs a warning and stops it automatically to
// prevent an orphan. Callers should always call Stop (or ReapExit) before
// Close; the auto-stop is a safety net, not an intended code path.
func (s *Supervised) Close() {
	if s.cmd != nil {
		s.log.Warn("process.Close called without Stop; stopping automatically",
			"process", s.name)
		if _, err := s.Stop(DefaultLivenessPollInterval, DefaultStopTimeout); err != nil {
			s.log.Warn("auto-stop during Close failed",
				"process", s.name, "error", err)
		}
	}
	s.logFiles.Close()
}

// SetupAndStart configures stdio and starts the command. The cmd must
// already have its Path and Args set; this sets Dir, Stdout, Stderr and
// calls Start. By default the child inherits the supervisor's stdout and
// stderr so its output streams straight through to the container log
// collector. When captureLogs is true, output is written to per-process
// log files in dataDir instead.
//
// A single goroutine calling cmd.Wait is started here so that exactly one
// Wait call is made per process. The resulting channel is consumed by Stop
// or ReapExit.
//
// Returns ErrAlreadyStarted if the process is already running.
func (s *Supervised) SetupAndStart(cmd *exec.Cmd, dataDir string, captureLogs bool) error {
	if cmd == nil {
		return ErrNilCmd
	}
	if cmd.Path == "" {
		return ErrEmptyCmdPath
	}
	if dataDir == "" {
		return ErrEmptyDataDir
	}
	if s.cmd != nil {
		return ErrAlreadyStarted
	}

	cmd.Dir = dataDir
	configureSysProcAttr(cmd)

	if captureLogs {
		logFiles, err := NewLogFiles(dataDir, s.name)
		if err != nil {
			return fmt.Errorf("create %s logs: %w", s.name, err)
		}
		cmd.Stdout = logFiles.stdoutFile
		cmd.Stderr = logFiles.stderrFile
		if err := cmd.Start(); err != nil {
			logFiles.Close()
			return fmt.Errorf("start %s process: %w", s.name, err)
		}
		s.logFiles = logFiles
	} else {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("start %s process: %w", s.name, err)
		}
	}
	s.cmd = cmd

	// Start the single cmd.Wait goroutine. cmd.Wait must be called exactly
	// once per started process; a second call is undefined behavior. Two
	// channels are created:
	//   - done (buffered 1): receives the Wait error, consumed once by Stop
	//     or ReapExit.
	//   - exited (closed on exit): broadcast signal readable by any number
	//     of goroutines (readiness polls, the supervisor control loop).
	done := make(chan error, 1)
	exited := make(chan struct{})
	go func() {
		done <- cmd.Wait()
		close(exited)
	}()
	s.waitDone = done
	s.exited = exited

	return nil
}
