package gantry

import (
	"log/slog"
	"sync/atomic"
)

// logger is the package-level logger, stored as an atomic pointer so
// SetLogger is safe to call concurrently with running supervisors. Named
// "logger" instead of "log" to avoid shadowing the stdlib "log" package.
//
// A nil value means no custom logger has been set; Logger() falls back to a
// cached default derived from slog.Default().
var logger atomic.Pointer[slog.Logger]

// defaultLogger caches the default-derived logger so it is not re-created
// on every Logger() call. If slog.SetDefault() changes after the first
// Logger() call, call SetLogger(nil) to clear the cache and pick up the
// new default.
var defaultLogger atomic.Pointer[slog.Logger]

// Logger returns the current package-level logger. If no custom logger has
// been set via SetLogger, it returns a cached logger derived from
// slog.Default() with the gantry component attribute. Safe to call from
// multiple goroutines.
func Logger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	l := newDefaultLogger()
	// If another goroutine cached a logger first, use theirs.
	if defaultLogger.CompareAndSwap(nil, l) {
		return l
	}
	if l2 := defaultLogger.Load(); l2 != nil {
		return l2
	}
	return l
}

func newDefaultLogger() *slog.Logger {
	return slog.Default().With("component", "gantry")
}

// SetLogger replaces the package-level logger. The provided logger should
// already carry any desired attributes; gantry adds none.
//
// If l is nil, the logger resets to the default: slog.Default() with the
// gantry component attribute, re-derived on the next Logger() call and then
// cached. SetLogger only affects supervisors constructed after the call
// (and ones built without WithLogger); call it before New.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
	defaultLogger.Store(nil)
}
