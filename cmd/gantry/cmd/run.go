package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/harborhq/gantry"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Supervise the application server through its full lifecycle",
	Long: `Run the full supervision lifecycle: wait for the data mount, recover the
database, start the server, and shut it down cleanly on SIGINT, SIGTERM or
SIGQUIT.

gantry exits 0 after a requested shutdown, with the server's own exit code
when it exits on its own, and 1 when startup fails before the server was
spawned.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dataDir := viper.GetString("data-dir")
		binary := viper.GetString("binary")
		if dataDir == "" {
			return errors.New("data directory is required (--data-dir or GANTRY_DATA_DIR)")
		}
		if binary == "" {
			return errors.New("server binary is required (--binary or GANTRY_BINARY)")
		}

		opts := []gantry.Option{
			gantry.WithDataDir(dataDir),
			gantry.WithBinary(binary),
		}
		if args := viper.GetStringSlice("args"); len(args) > 0 {
			opts = append(opts, gantry.WithArgs(args...))
		}
		if db := viper.GetString("db"); db != "" {
			opts = append(opts, gantry.WithDBPath(db))
		}
		if url := viper.GetString("health-url"); url != "" {
			opts = append(opts, gantry.WithHealthURL(url))
		}
		if viper.GetBool("capture-logs") {
			opts = append(opts, gantry.WithCapturedLogs())
		}
		if lock := viper.GetString("lock-path"); lock != "" {
			opts = append(opts, gantry.WithLockPath(lock))
		}
		if viper.GetBool("no-run-lock") {
			opts = append(opts, gantry.WithoutRunLock())
		}
		if d := viper.GetDuration("mount-wait-timeout"); d > 0 {
			opts = append(opts, gantry.WithMountWaitTimeout(d))
		}
		if d := viper.GetDuration("mount-wait-interval"); d > 0 {
			opts = append(opts, gantry.WithMountWaitInterval(d))
		}
		if d := viper.GetDuration("shutdown-timeout"); d > 0 {
			opts = append(opts, gantry.WithShutdownTimeout(d))
		}
		if d := viper.GetDuration("shutdown-poll-interval"); d > 0 {
			opts = append(opts, gantry.WithShutdownPollInterval(d))
		}
		if viper.IsSet("sync-settle-delay") {
			opts = append(opts, gantry.WithSyncSettleDelay(viper.GetDuration("sync-settle-delay")))
		}

		sup, err := gantry.New(opts...)
		if err != nil {
			return err
		}

		code, err := sup.RunUntilSignal(cmd.Context())
		exitCode = code
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("data-dir", "", "object-storage mount point backing the database (required)")
	runCmd.Flags().String("binary", "", "application server executable (required)")
	runCmd.Flags().StringSlice("args", nil, "extra arguments for the server")
	runCmd.Flags().String("db", "", "database file (default <data-dir>/database.sqlite)")
	runCmd.Flags().String("health-url", "", "server health endpoint for the diagnostic readiness probe")
	runCmd.Flags().Bool("capture-logs", false, "redirect server stdout/stderr to files in the data directory")
	runCmd.Flags().String("lock-path", "", "run-lock file, off the mount (default under the system temp dir)")
	runCmd.Flags().Bool("no-run-lock", false, "disable the at-most-one-supervisor guard")
	runCmd.Flags().Duration("mount-wait-timeout", 0, "total budget for the mount-readiness gate (default 5m)")
	runCmd.Flags().Duration("mount-wait-interval", 0, "delay between mount write probes (default 2s)")
	runCmd.Flags().Duration("shutdown-timeout", 0, "graceful-shutdown ceiling before SIGKILL (default 30s)")
	runCmd.Flags().Duration("shutdown-poll-interval", 0, "liveness poll interval during shutdown (default 1s)")
	runCmd.Flags().Duration("sync-settle-delay", 0, "hold after the final sync for the mount daemon to flush (default 5s)")

	// Every flag is also reachable as GANTRY_<FLAG> or a config file key.
	if err := viper.BindPFlags(runCmd.Flags()); err != nil {
		panic(err)
	}
}
