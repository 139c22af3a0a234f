package lifecycle

import "fmt"

// State identifies a phase of the supervisor's shutdown state machine.
type State int

const (
	// StateRunning means the child is alive and the supervisor is blocked
	// waiting for either a signal or the child's own exit.
	StateRunning State = iota

	// StateTermSent means a graceful-terminate signal has been sent to the
	// child in response to a terminate-class signal.
	StateTermSent

	// StateWaitChild means the supervisor is polling child liveness,
	// bounded by the graceful-shutdown ceiling.
	StateWaitChild

	// StateGracefulExit means the child exited on its own before the
	// ceiling elapsed.
	StateGracefulExit

	// StateForcedExit means the ceiling elapsed with the child still alive
	// and an unconditional kill was sent.
	StateForcedExit

	// StateCheckpointing means the WAL is being folded into the main
	// database file.
	StateCheckpointing

	// StateSyncing means buffered writes are being flushed to the
	// remote-backed filesystem, followed by a fixed settle delay.
	StateSyncing

	// StateDone means the shutdown sequence completed and the process is
	// about to exit.
	StateDone
)

// String returns the state's name for logging.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateTermSent:
		return "TERM_SENT"
	case StateWaitChild:
		return "WAIT_CHILD"
	case StateGracefulExit:
		return "GRACEFUL_EXIT"
	case StateForcedExit:
		return "FORCED_EXIT"
	case StateCheckpointing:
		return "CHECKPOINTING"
	case StateSyncing:
		return "SYNCING"
	case StateDone:
		return "DONE"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
