package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var limit int
	var useSlackAPI bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search cached messages",
		Long: `Searches the local message cache, combining semantic similarity
(when OPENAI_API_KEY is set) with substring matching. With --slack-api the
live Slack search index is queried as well.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			query := strings.Join(args, " ")

			a, err := setupApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			results, err := a.searchService().Search(ctx, query, limit, useSlackAPI)
			if err != nil {
				return err
			}

			if len(results) == 0 {
				fmt.Println("No results found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SCORE\tCHANNEL\tUSER\tMESSAGE")
			for _, r := range results {
				fmt.Fprintf(w, "%.2f\t%s\t%s\t%s\n",
					r.Score,
					displayName(r.ChannelName, r.Message.ChannelID),
					displayName(r.UserName, r.Message.UserID),
					oneLine(r.Message.Text, 80))
			}
			w.Flush()

			fmt.Printf("\n%d results\n", len(results))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of results")
	cmd.Flags().BoolVar(&useSlackAPI, "slack-api", false, "also query Slack's own search index")

	return cmd
}

func displayName(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

// oneLine flattens newlines and truncates for table output.
func oneLine(text string, max int) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= max {
		return flat
	}
	return string(runes[:max]) + "..."
}
