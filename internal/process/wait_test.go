package process

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestWaitReady_InvalidConfig(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		interval time.Duration
		timeout  time.Duration
		wantMsg  string
	}{
		"zero interval":     {interval: 0, timeout: 5 * time.Second, wantMsg: "interval must be positive"},
		"negative interval": {interval: -time.Second, timeout: 5 * time.Second, wantMsg: "interval must be positive"},
		"zero timeout":      {interval: 100 * time.Millisecond, timeout: 0, wantMsg: "timeout must be positive"},
		"negative timeout":  {interval: 100 * time.Millisecond, timeout: -time.Second, wantMsg: "timeout must be positive"},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := WaitReady(context.Background(), WaitReadyConfig{
				Interval: tc.interval,
				Timeout:  tc.timeout,
				Name:     "test-proc",
			}, func(_ context.Context, _ int) (bool, error) {
				t.Fatal("check should not be called with invalid config")
				return false, nil
			})
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("unexpected error message: %v", err)
			}
		})
	}
}

func TestWaitReady_EmptyName(t *testing.T) {
	t.Parallel()

	err := WaitReady(context.Background(), WaitReadyConfig{
		Interval: time.Millisecond,
		Timeout:  time.Second,
	}, func(_ context.Context, _ int) (bool, error) {
		return true, nil
	})
	if err == nil {
		t.Fatal("expected error for empty name, got nil")
	}
}

func TestWaitReady_SucceedsFirstAttempt(t *testing.T) {
	t.Parallel()

	err := WaitReady(context.Background(), WaitReadyConfig{
		Interval: 10 * time.Millisecond,
		Timeout:  5 * time.Second,
		Name:     "test-proc",
	}, func(_ context.Context, _ int) (bool, error) {
		return true, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitReady_SucceedsAfterRetries(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := WaitReady(context.Background(), WaitReadyConfig{
		Interval: time.Millisecond,
		Timeout:  10 * time.Second,
		Name:     "test-proc",
	}, func(_ context.Context, attempt int) (bool, error) {
		attempts = attempt
		return attempt >= 3, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestWaitReady_TimesOut(t *testing.T) {
	t.Parallel()

	err := WaitReady(context.Background(), WaitReadyConfig{
		Interval: time.Millisecond,
		Timeout:  50 * time.Millisecond,
		Name:     "test-proc",
	}, func(_ context.Context, _ int) (bool, error) {
		return false, nil
	})
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want wrapped context.DeadlineExceeded", err)
	}
}

func TestWaitReady_FatalCheckError(t *testing.T) {
	t.Parallel()

	fatal := errors.New("unrecoverable")
	err := WaitReady(context.Background(), WaitReadyConfig{
		Interval: time.Millisecond,
		Timeout:  10 * time.Second,
		Name:     "test-proc",
	}, func(_ context.Context, _ int) (bool, error) {
		return false, fatal
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("error = %v, want wrapped %v", err, fatal)
	}
}

func TestWaitReady_ProcessExited(t *testing.T) {
	t.Parallel()

	// Pre-close the channel to simulate a process that has already exited.
	exited := make(chan struct{})
	close(exited)

	start := time.Now()
	err := WaitReady(context.Background(), WaitReadyConfig{
		Interval:      100 * time.Millisecond,
		Timeout:       10 * time.Second,
		Name:          "test-proc",
		ProcessExited: exited,
	}, func(_ context.Context, _ int) (bool, error) {
		t.Fatal("readiness check should not have been called")
		return false, nil
	})
	elapsed := time.Since(start)

	if !errors.Is(err, ErrProcessExited) {
		t.Fatalf("error = %v, want wrapped %v", err, ErrProcessExited)
	}
	// The function should return almost immediately, well under 1 second.
	if elapsed > time.Second {
		t.Fatalf("expected fast abort, took %v", elapsed)
	}
}
