package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"slackassist/internal/logging"
)

var debug bool

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "slackassist",
		Short: "Local Slack cache with semantic search",
		Long: `slackassist keeps a local Postgres cache of your Slack workspace:
channels, messages, threads, reactions and reminders, with pgvector
embeddings for semantic search.

Run "slackassist serve" for the polling daemon with an HTTP API, or use
the one-shot commands (sync, search, status, context, reminders) directly.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// A missing .env file is fine; the environment may be set
			// some other way.
			_ = godotenv.Load()
			logging.SetupLogger()
			if debug {
				logging.SetDebug()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newServeCmd(),
		newSyncCmd(),
		newSearchCmd(),
		newStatusCmd(),
		newContextCmd(),
		newRemindersCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
