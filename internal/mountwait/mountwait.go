package mountwait

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/harborhq/gantry/internal/process"
)

// DefaultTimeout is the total wait budget for the mount to become writable.
// Object-storage mount daemons typically attach within a few seconds; five
// minutes covers cold-start pathologies without hanging the container forever.
const DefaultTimeout = 5 * time.Minute

// DefaultInterval is the poll interval between write probes.
const DefaultInterval = 2 * time.Second

// Config configures the mount-readiness gate.
type Config struct {
	// Dir is the mount point to probe. Required.
	Dir string

	// Interval is the delay between probes. Defaults to DefaultInterval.
	Interval time.Duration

	// Timeout is the total wait budget. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Logger (optional, defaults to slog.Default())
	Logger *slog.Logger
}

// Probe attempts to create and remove a small probe file in dir, reporting
// whether the directory currently accepts writes. The probe file is always
// removed on success; a leftover probe from a crashed prior attempt is
// harmless since a fresh random name is used each time.
func Probe(dir string) error {
	f, err := os.CreateTemp(dir, ".mount-probe-*")
	if err != nil {
		return fmt.Errorf("write probe in %s: %w", dir, err)
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("close probe file %s: %w", name, err)
	}
	if err := os.Remove(name); err != nil {
		return fmt.Errorf("remove probe file %s: %w", name, err)
	}
	return nil
}

// Wait blocks until the configured directory accepts writes or the wait
// budget is exhausted. On timeout it returns an error; the caller treats
// this as fatal, since every subsequent step (recovery, spawn) operates on
// the mount.
func Wait(ctx context.Context, cfg Config) error {
	if cfg.Dir == "" {
		return errors.New("mount wait: dir must not be empty")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	log.Info("waiting for data mount to become writable",
		"dir", cfg.Dir, "interval", cfg.Interval, "timeout", cfg.Timeout)

	start := time.Now()
	if err := process.WaitReady(ctx, process.WaitReadyConfig{
		Interval: cfg.Interval,
		Timeout:  cfg.Timeout,
		Name:     "data mount",
		Logger:   log,
	}, func(_ context.Context, attempt int) (bool, error) {
		if probeErr := Probe(cfg.Dir); probeErr != nil {
			log.Debug("mount probe failed", "dir", cfg.Dir, "attempt", attempt, "error", probeErr)
			return false, nil // not writable yet
		}
		return true, nil
	}); err != nil {
		return fmt.Errorf("mount %s not writable: %w", cfg.Dir, err)
	}

	log.Info("data mount is writable", "dir", cfg.Dir, "elapsed", time.Since(start))
	return nil
}
