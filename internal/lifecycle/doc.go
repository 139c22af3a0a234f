// Package lifecycle implements the supervisor state machine.
//
// A Supervisor owns the full container lifecycle: run-lock acquisition,
// mount-readiness gate, pre-start database recovery, child process spawn,
// signal interception, and the ordered shutdown sequence that guarantees the
// database is checkpointed and flushed to the remote-backed filesystem
// before the container is reclaimed.
//
// The shutdown sequence is an explicit state machine:
//
//	RUNNING → TERM_SENT → WAIT_CHILD → (GRACEFUL_EXIT | FORCED_EXIT)
//	        → CHECKPOINTING → SYNCING → DONE
//
// Signal handlers hold no logic; they only feed a channel the control loop
// selects on, so the child's handle never lives in global mutable state.
package lifecycle
