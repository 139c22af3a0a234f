package cmd

import (
	"log/slog"
	"testing"

	"github.com/spf13/viper"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":     slog.LevelDebug,
		"info":      slog.LevelInfo,
		"warn":      slog.LevelWarn,
		"warning":   slog.LevelWarn,
		"error":     slog.LevelError,
		"ERROR":     slog.LevelError,
		"":          slog.LevelInfo,
		"gibberish": slog.LevelInfo,
	}

	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogLevelFlagBeatsEnvironment(t *testing.T) {
	// Not parallel: mutates process environment and shared viper state.
	t.Setenv("GANTRY_LOG_LEVEL", "debug")
	initConfig()

	// Environment applies when the flag is left at its default.
	if got := viper.GetString("log-level"); got != "debug" {
		t.Errorf("log-level from env = %q, want %q", got, "debug")
	}

	// An explicitly set flag wins over the environment.
	if err := rootCmd.PersistentFlags().Set("log-level", "error"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	if got := viper.GetString("log-level"); got != "error" {
		t.Errorf("log-level with explicit flag = %q, want %q", got, "error")
	}
}
