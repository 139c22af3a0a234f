package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/harborhq/gantry/internal/sqliteutil"
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint <db>",
	Short: "Fold the WAL into the main database file and truncate it",
	Long: `Run a TRUNCATE-mode WAL checkpoint against the given database, the same
operation the supervisor performs during shutdown. Useful as a manual
maintenance step or from a cron-style job while the server is stopped.

A missing database or an absent WAL is a no-op, not an error.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := sqliteutil.Checkpoint(cmd.Context(), args[0], slog.Default())
		if err != nil {
			return fmt.Errorf("checkpoint %s: %w", args[0], err)
		}
		if !res.Ran {
			fmt.Fprintln(cmd.OutOrStdout(), "nothing to checkpoint")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "checkpointed %s: wal %d -> %d bytes\n",
			args[0], res.WALBytesBefore, res.WALBytesAfter)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkpointCmd)
}
