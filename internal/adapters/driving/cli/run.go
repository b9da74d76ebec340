package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Backfill historical reports, then tail the live change feed",
	Long: `Runs the full pipeline: connectivity checks, a backfill pass over
every mirrored form, then continuous tailing of the change feed.
Stops cleanly on SIGINT or SIGTERM, always between reports.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	if err := ensureSyncer(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Println("Starting sync pipeline...")
	if err := syncer.Run(ctx); err != nil {
		return err
	}
	cmd.Println("Pipeline stopped.")
	return nil
}
