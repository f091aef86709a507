package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"slackassist/internal/jobs"
)

func newSyncCmd() *cobra.Command {
	var vectorIndex bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one full sync pass and exit",
		Long: `Fetches the channel list, new messages (with threads and
reactions) and reminders once, then exits. Useful for the initial backfill
and for cron-style operation without the daemon.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := setupApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			poller := jobs.NewPoller(a.client, a.store, a.cfg.PollInterval)

			if err := poller.SyncChannels(ctx); err != nil {
				return fmt.Errorf("channel sync failed: %w", err)
			}
			if err := poller.SyncAllMessages(ctx); err != nil {
				return fmt.Errorf("message sync failed: %w", err)
			}
			if err := poller.SyncReminders(ctx); err != nil {
				return fmt.Errorf("reminder sync failed: %w", err)
			}

			if vectorIndex {
				slog.Info("Creating vector index...")
				if err := a.store.CreateVectorIndex(ctx); err != nil {
					return fmt.Errorf("vector index creation failed: %w", err)
				}
			}

			fmt.Println("Sync completed")
			return nil
		},
	}

	cmd.Flags().BoolVar(&vectorIndex, "vector-index", false,
		"create the embedding similarity index after syncing (run once after the initial backfill)")

	return cmd
}
