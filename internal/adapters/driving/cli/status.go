package cli

import (
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show ledger totals and the live-tail position",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if err := ensureSyncer(); err != nil {
		return err
	}

	status, err := syncer.Status(cmd.Context())
	if err != nil {
		return err
	}

	cmd.Printf("Phase:        %s\n", status.Phase)
	cmd.Printf("Total synced: %d\n", status.TotalSynced)

	cursor := status.Cursor
	if cursor == "" {
		cursor = "(none)"
	}
	cmd.Printf("Cursor:       %s\n", cursor)

	if status.LastSyncTime.IsZero() {
		cmd.Println("Last sync:    never")
	} else {
		cmd.Printf("Last sync:    %s\n", status.LastSyncTime.UTC().Format(time.RFC3339))
	}
	return nil
}
