package appserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/exec"
	"time"

	"github.com/harborhq/gantry/internal/process"
)

// healthCheckTimeout is the per-request timeout for the HTTP client used to
// poll the server's health endpoint during the diagnostic readiness probe.
const healthCheckTimeout = 5 * time.Second

// readinessPollInterval is the interval between consecutive health check
// requests. Workflow servers take seconds to boot (schema migrations,
// extension loading), so a coarse interval is plenty.
const readinessPollInterval = 500 * time.Millisecond

// Compile-time interface satisfaction check.
var _ process.Stoppable = (*Process)(nil)

// Config holds the configuration for the application server process.
type Config struct {
	Binary  string   // Path to the server binary. Required.
	Args    []string // Extra arguments; the default invocation passes none.
	DataDir string   // Working directory, on the data mount. Required.

	// HealthURL is the server's health endpoint for the diagnostic
	// readiness probe. Empty disables the probe.
	HealthURL string

	// CaptureLogs redirects the child's stdout/stderr into log files in
	// DataDir instead of inheriting the supervisor's streams.
	CaptureLogs bool

	// Logger (optional, defaults to slog.Default())
	Logger *slog.Logger
}

// Process manages the application server's lifecycle.
type Process struct {
	config Config
	base   process.Supervised
}

// validate checks that all required Config fields are set and returns an
// error describing the first missing or invalid field.
func (c Config) validate() error {
	if c.Binary == "" {
		return errors.New("binary path must not be empty")
	}
	if c.DataDir == "" {
		return errors.New("data dir must not be empty")
	}
	return nil
}

// New creates a new application server Process with the given configuration.
// It returns an error if any required field is missing. New performs no I/O;
// the process is launched by Start.
func New(cfg Config) (*Process, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid appserver config: %w", err)
	}
	return &Process{
		config: cfg,
		base:   process.NewSupervised("appserver", cfg.Logger),
	}, nil
}

// Start launches the server process in the data directory. Its stdout and
// stderr are inherited unless CaptureLogs is set, so application logs stream
// straight through to the container's log collector.
//
// The command is deliberately not bound to a context. The supervisor owns
// termination ordering — SIGTERM, a bounded grace window, then SIGKILL —
// and a context-bound command would have the runtime SIGKILL the child the
// moment the run context is cancelled, denying it the graceful window.
// Pdeathsig covers the supervisor dying outright.
func (p *Process) Start() error {
	if p.base.IsStarted() {
		return process.ErrAlreadyStarted
	}

	cmd := exec.Command(p.config.Binary, p.config.Args...) //nolint:gosec // G204: binary is operator-configured
	if err := p.base.SetupAndStart(cmd, p.config.DataDir, p.config.CaptureLogs); err != nil {
		return fmt.Errorf("setup and start appserver process: %w", err)
	}
	p.base.Logger().Info("application server started",
		"binary", p.config.Binary, "pid", p.base.Pid(), "data_dir", p.config.DataDir)
	return nil
}

// WaitReady polls the configured health endpoint until it answers 200 or the
// timeout elapses. The probe is diagnostic: the supervisor logs the outcome
// but never tears the server down over a failed probe, since slow starts on
// a cold mount are expected. Returns nil immediately when no HealthURL is
// configured.
func (p *Process) WaitReady(ctx context.Context, timeout time.Duration) error {
	if p.config.HealthURL == "" {
		return nil
	}

	log := p.base.Logger()
	client := &http.Client{Timeout: healthCheckTimeout}
	if err := process.WaitReady(ctx, process.WaitReadyConfig{
		Interval:      readinessPollInterval,
		Timeout:       timeout,
		Name:          "appserver",
		Logger:        log,
		ProcessExited: p.base.Exited(),
	}, func(checkCtx context.Context, attempt int) (bool, error) {
		req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, p.config.HealthURL, nil)
		if err != nil {
			return false, err // malformed URL, no point retrying
		}
		resp, err := client.Do(req)
		if err != nil {
			log.Debug("health probe attempt", "url", p.config.HealthURL, "attempt", attempt, "error", err)
			return false, nil // not listening yet
		}
		_ = resp.Body.Close() // best-effort close of probe response
		if resp.StatusCode != http.StatusOK {
			log.Debug("health probe attempt", "url", p.config.HealthURL, "attempt", attempt, "status", resp.StatusCode)
			return false, nil
		}
		return true, nil
	}); err != nil {
		return fmt.Errorf("appserver not ready: %w", err)
	}
	return nil
}

// Pid returns the child's process id, or 0 if not running.
func (p *Process) Pid() int {
	return p.base.Pid()
}

// IsStarted reports whether the server has been started and not yet stopped.
func (p *Process) IsStarted() bool {
	return p.base.IsStarted()
}

// Exited returns a channel closed when the server process exits.
func (p *Process) Exited() <-chan struct{} {
	return p.base.Exited()
}

// ReapExit consumes the exit status of a server that already exited on its
// own. See process.Supervised.ReapExit for the exit code convention.
func (p *Process) ReapExit() int {
	return p.base.ReapExit()
}

// Stop terminates the server gracefully: SIGTERM, a bounded liveness wait,
// then SIGKILL at the ceiling. The forced return reports whether the kill
// was needed.
func (p *Process) Stop(pollInterval, timeout time.Duration) (forced bool, err error) {
	return p.base.Stop(pollInterval, timeout)
}

// Close releases any log file handles held by the process.
func (p *Process) Close() {
	p.base.Close()
}
