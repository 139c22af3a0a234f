// Package appserver wraps the supervised workflow-automation server process.
//
// The server is a black box to the supervisor: it accepts SIGTERM, exposes an
// HTTP health endpoint, and owns the SQLite database file triple in the data
// directory. This package handles spawning it with inherited stdio, the
// optional diagnostic health probe after startup, and graceful termination.
package appserver
