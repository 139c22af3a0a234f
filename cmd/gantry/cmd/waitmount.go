package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/harborhq/gantry/internal/mountwait"
)

var (
	waitMountTimeout  time.Duration
	waitMountInterval time.Duration
)

var waitMountCmd = &cobra.Command{
	Use:   "wait-mount <dir>",
	Short: "Block until the given directory accepts writes",
	Long: `Probe the directory with temp-file writes until one succeeds or the
timeout expires, the same gate the supervisor applies before starting the
server. Intended for init containers and startup scripts that need to
sequence on a FUSE mount becoming ready.

Exits 0 once the directory is writable, 1 on timeout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		err := mountwait.Wait(cmd.Context(), mountwait.Config{
			Dir:      args[0],
			Interval: waitMountInterval,
			Timeout:  waitMountTimeout,
			Logger:   slog.Default(),
		})
		if err != nil {
			return fmt.Errorf("mount %s never became writable: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "mount %s is writable\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(waitMountCmd)

	waitMountCmd.Flags().DurationVar(&waitMountTimeout, "timeout", mountwait.DefaultTimeout, "total wait budget")
	waitMountCmd.Flags().DurationVar(&waitMountInterval, "interval", mountwait.DefaultInterval, "delay between write probes")
}
