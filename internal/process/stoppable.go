package process

import (
	"time"
)

// Stoppable represents a process that can be stopped and have its resources
// closed. Stop returns whether a forced kill was required.
type Stoppable interface {
	Stop(pollInterval, timeout time.Duration) (forced bool, err error)
	Close()
}

// StopCloseAndNil stops, closes, and nils a Stoppable pointer in a single
// cleanup step. It is safe to call with a nil p or when *p is nil; in both
// cases it returns (false, nil) immediately.
//
// The two type parameters enforce a pointer-type constraint at compile time:
// P is constrained to both *E and Stoppable, so only pointer types that
// implement Stoppable can be passed, and *E is directly comparable to nil
// without reflection.
//
// Close and nil-out always run even when Stop returns an error: a failed
// Stop means the process is in an unknown state, so file handles must still
// be closed and the stale reference cleared. The Stop result is returned to
// the caller either way.
func StopCloseAndNil[P interface {
	*E
	Stoppable
}, E any](p *P, pollInterval, timeout time.Duration) (forced bool, err error) {
	if p == nil || *p == nil {
		return false, nil
	}
	defer func() {
		(*p).Close()
		*p = nil
	}()
	return (*p).Stop(pollInterval, timeout)
}
