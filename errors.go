package gantry

import "github.com/harborhq/gantry/internal/lifecycle"

// Sentinel errors for error inspection with errors.Is.
// These are immutable constants safe for use in wrapped error chain comparison.
const (
	// ErrMountTimeout is found in Run's error when the data mount never
	// became writable within the mount-wait timeout. The application
	// server was never spawned.
	ErrMountTimeout = lifecycle.ErrMountTimeout

	// ErrRunLockUnavailable is found in Run's error when another
	// supervisor in the same container already holds the run lock.
	ErrRunLockUnavailable = lifecycle.ErrRunLockUnavailable
)
