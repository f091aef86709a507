package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newContextCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "context <permalink>",
		Short: "Show the context around a message permalink",
		Long: `Resolves a Slack permalink (either the web archives URL or the
slack:// app URL) against the cache and prints the message, its thread and
related discussion.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := setupApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.searchService().FindContext(ctx, args[0], limit)
			if err != nil {
				return err
			}

			msg := result.Message
			fmt.Printf("Message in %s at %s:\n", msg.ChannelID, msg.CreatedAt.Format("Jan 02 15:04"))
			fmt.Printf("  <%s> %s\n", msg.UserID, msg.Text)

			if len(result.Thread) > 0 {
				fmt.Printf("\nThread (%d messages):\n", len(result.Thread))
				for _, m := range result.Thread {
					fmt.Printf("  [%s] <%s> %s\n",
						m.CreatedAt.Format("15:04"), m.UserID, oneLine(m.Text, 100))
				}
			}

			if len(result.Related) > 0 {
				fmt.Printf("\nRelated discussion:\n")
				for _, r := range result.Related {
					fmt.Printf("  %.2f %s <%s> %s\n",
						r.Score,
						displayName(r.ChannelName, r.Message.ChannelID),
						displayName(r.UserName, r.Message.UserID),
						oneLine(r.Message.Text, 80))
				}
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of related messages")

	return cmd
}
