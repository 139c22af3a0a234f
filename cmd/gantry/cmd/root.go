package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	logLevel string
)

// exitCode is set by the run command so Execute can propagate the
// supervised child's exit code to the shell.
var exitCode int

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gantry",
	Short: "Startup wrapper for a stateful server on an object-storage mount",
	Long: `gantry supervises a single stateful application server whose SQLite
database lives on a FUSE object-storage mount: it waits for the mount to
become writable, reconciles a crash-interrupted database before the server
starts, and turns the platform's shutdown signal into a graceful stop
followed by a WAL checkpoint and a full sync.

Configuration is resolved from flags, GANTRY_* environment variables and an
optional config file, in that order of precedence.`,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return exitCode
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default /etc/gantry/gantry.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")

	// Bound through viper so an explicit flag wins over GANTRY_LOG_LEVEL,
	// which wins over the config file, which wins over the default.
	if err := viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		panic(err)
	}

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}

// initConfig reads the config file and GANTRY_* environment variables, then
// installs the process-wide logger.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("/etc/gantry")
		viper.AddConfigPath(".")
		viper.SetConfigName("gantry")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("GANTRY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine; flags and environment cover everything.
	if err := viper.ReadInConfig(); err == nil {
		slog.Debug("loaded config file", "path", viper.ConfigFileUsed())
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(viper.GetString("log-level")),
	})))
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
