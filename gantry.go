package gantry

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/harborhq/gantry/internal/lifecycle"
)

// Supervisor drives one application server through the full lifecycle:
// startup gates, supervision and durability-ordered shutdown.
//
// A Supervisor is single-use: construct with New, run once, exit with the
// returned code.
type Supervisor struct {
	inner *lifecycle.Supervisor
}

// New builds a Supervisor from the given options. WithDataDir and
// WithBinary are required; everything else has defaults.
func New(opts ...Option) (*Supervisor, error) {
	cfg := lifecycle.Config{
		Logger: Logger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	inner, err := lifecycle.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Supervisor{inner: inner}, nil
}

// Run executes the supervision lifecycle and returns the process exit code
// the caller should terminate with. Shutdown requests arrive on the signals
// channel; cancelling ctx is treated the same way. Run never installs
// signal handlers itself.
//
// A non-nil error is only ever paired with exit code 1 and means the
// application server was never running.
func (s *Supervisor) Run(ctx context.Context, signals <-chan os.Signal) (int, error) {
	return s.inner.Run(ctx, signals)
}

// RunUntilSignal runs the lifecycle with SIGINT, SIGTERM and SIGQUIT wired
// to the shutdown handler. This is the entrypoint for production use:
//
//	code, err := sup.RunUntilSignal(ctx)
//	if err != nil {
//	    log.Print(err)
//	}
//	os.Exit(code)
func (s *Supervisor) RunUntilSignal(ctx context.Context) (int, error) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(signals)

	return s.inner.Run(ctx, signals)
}
