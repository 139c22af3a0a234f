// Package process manages the lifecycle of a supervised external process.
//
// It defines Supervised for start/stop behavior with SIGTERM-then-SIGKILL
// escalation, the Stoppable interface, StopCloseAndNil for atomic cleanup,
// WaitReady for polling-based readiness checks, Alive for pid liveness
// probes, and LogFiles for optional stdout/stderr capture.
package process
