package process

import (
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"
)

// killDrainTimeout is the hard upper bound for waiting on the done channel
// after SIGKILL has been sent (or after the process has already exited).
// SIGKILL cannot be caught, so the process should exit almost immediately.
// This timeout is a safety net against indefinite blocking if cmd.Wait
// never returns (e.g., due to stuck I/O on the network mount).
const killDrainTimeout = 10 * time.Second

// drainDone reads from the done channel with the given timeout as a hard
// upper bound. Under normal conditions cmd.Wait returns almost immediately
// after the process exits, so this timeout should never fire.
//
// Returns true and the cmd.Wait error if the channel delivered in time,
// or false and a nil error if the timeout elapsed.
func drainDone(done <-chan error, timeout time.Duration) (bool, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case err := <-done:
		return true, err
	case <-t.C:
		return false, nil
	}
}

// Stop terminates the process gracefully: it sends SIGTERM, then watches for
// the process to exit, probing liveness once per pollInterval for progress
// logging. If the process is still alive when timeout elapses, an
// unconditional SIGKILL is sent and the wait goroutine is drained
// best-effort.
//
// The forced return reports whether SIGKILL was issued — the graceful window
// elapsed with the child still alive. Exactly one of the two outcomes holds:
// the child exited within the window (forced=false) or the kill was sent at
// the ceiling (forced=true).
//
// After Stop returns, IsStarted reports false regardless of whether the stop
// succeeded, because the process is no longer in a known-running state. Safe
// to call when no process is running; returns (false, nil) immediately.
func (s *Supervised) Stop(pollInterval, timeout time.Duration) (forced bool, err error) {
	if s.cmd == nil || s.cmd.Process == nil {
		s.reset()
		return false, nil
	}
	if pollInterval <= 0 {
		pollInterval = DefaultLivenessPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultStopTimeout
	}

	pid := s.cmd.Process.Pid
	defer s.reset()

	if err := s.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// Process already exited; drain the wait goroutine with a hard
		// upper bound to avoid blocking indefinitely.
		ok, waitErr := drainDone(s.waitDone, killDrainTimeout)
		if !ok {
			return false, fmt.Errorf("%s: timed out draining process after signal failure", s.name)
		}
		return false, expectSignalExit(waitErr, s.name)
	}
	s.log.Info("sent SIGTERM, waiting for process to exit",
		"process", s.name, "pid", pid, "timeout", timeout)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for waited := time.Duration(0); ; {
		select {
		case waitErr := <-s.waitDone:
			return false, expectSignalExit(waitErr, s.name)

		case <-ticker.C:
			waited += pollInterval
			if alive, probeErr := Alive(pid); probeErr == nil && !alive {
				// The pid is gone but cmd.Wait has not delivered yet;
				// keep looping, the done channel fires next.
				continue
			}
			s.log.Debug("process still running", "process", s.name, "pid", pid, "waited", waited)

		case <-deadline.C:
			s.log.Warn("graceful shutdown window elapsed, sending SIGKILL",
				"process", s.name, "pid", pid)
			// Kill after the process has already exited returns an
			// "os: process already finished" error, which is harmless
			// and intentionally discarded.
			_ = s.cmd.Process.Kill()
			ok, waitErr := drainDone(s.waitDone, killDrainTimeout)
			if !ok {
				return true, fmt.Errorf("%s: timed out waiting for process to exit after SIGKILL", s.name)
			}
			if err := expectSignalExit(waitErr, s.name); err != nil {
				return true, fmt.Errorf("%s stop timeout: %w", s.name, err)
			}
			return true, nil
		}
	}
}

// expectSignalExit interprets an error from cmd.Wait after sending a
// termination signal. Exit errors caused by SIGTERM or SIGKILL are expected
// and treated as successful stops.
func expectSignalExit(err error, name string) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			sig := status.Signal()
			if sig == syscall.SIGTERM || sig == syscall.SIGKILL {
				return nil
			}
		}
		// A voluntary non-zero exit in response to SIGTERM still counts
		// as a completed stop; the process is gone either way.
		if exitErr.Exited() {
			return nil
		}
	}
	return fmt.Errorf("%s: %w", name, err)
}
