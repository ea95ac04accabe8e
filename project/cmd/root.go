package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

// rootCmd はサブコマンドなしで呼ばれたときのコマンドです
var rootCmd = &cobra.Command{
	Use:   "timebot",
	Short: "Slack bot for time reports, vacations and lunch orders",
	Long: `timebot serves the Slack slash command, interactive components and
event endpoints, and runs the periodic reminder jobs.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute はサブコマンドを登録して実行します。main から一度だけ呼ばれます
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newRemindCmd())
	rootCmd.AddCommand(newMigrateCmd())
}
