package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"slackassist/internal/jobs"
)

func newRemindersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reminders",
		Short: "Sync and list pending reminders",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := setupApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			poller := jobs.NewPoller(a.client, a.store, a.cfg.PollInterval)
			if err := poller.SyncReminders(ctx); err != nil {
				return fmt.Errorf("reminder sync failed: %w", err)
			}

			pending, err := a.store.GetPendingReminders(ctx, a.client.UserID())
			if err != nil {
				return err
			}

			if len(pending) == 0 {
				fmt.Println("No pending reminders")
				return nil
			}

			fmt.Printf("Pending reminders (%d):\n", len(pending))
			for _, r := range pending {
				when := "no due time"
				if r.Time != nil {
					when = r.Time.Format("Jan 02 15:04")
				}
				recurring := ""
				if r.Recurring {
					recurring = " (recurring)"
				}
				fmt.Printf("  - %s (%s)%s\n", r.Text, when, recurring)
			}
			return nil
		},
	}
}
