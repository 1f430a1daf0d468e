package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "ledger",
	Short:         "Intern progress and attendance ledger",
	Long:          "Tracks intern attendance, course progress and quiz attempts, and derives scores, badges and a leaderboard from them.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "Log level (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().Bool("in-memory", false, "Use the in-memory store instead of PostgreSQL")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(recomputeCmd)
	rootCmd.AddCommand(hashKeyCmd)
}
