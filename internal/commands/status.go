package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"slackassist/internal/services"
)

func newStatusCmd() *cobra.Command {
	var hours int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what needs your attention",
		Long: `Builds a prioritized report from the cache: mentions first, then
direct messages, then replies in threads you participate in, plus any
pending reminders.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := setupApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			statusSvc := services.NewStatusService(a.store, a.client.UserID())
			report, err := statusSvc.Report(ctx, hours)
			if err != nil {
				return err
			}

			if len(report.Items) == 0 {
				fmt.Printf("Nothing needs your attention (last %dh)\n", hours)
			} else {
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "PRIORITY\tKIND\tCHANNEL\tFROM\tWHEN\tMESSAGE")
				for _, item := range report.Items {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
						item.Priority,
						item.Kind,
						displayName(item.ChannelName, item.ChannelID),
						item.UserName,
						item.Timestamp.Format("Jan 02 15:04"),
						oneLine(item.Preview, 60))
				}
				w.Flush()
			}

			if len(report.Reminders) > 0 {
				fmt.Printf("\nPending reminders (%d):\n", len(report.Reminders))
				for _, r := range report.Reminders {
					when := "no due time"
					if r.Time != nil {
						when = r.Time.Format("Jan 02 15:04")
					}
					fmt.Printf("  - %s (%s)\n", r.Text, when)
				}
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&hours, "hours", 24, "lookback window in hours")

	return cmd
}
