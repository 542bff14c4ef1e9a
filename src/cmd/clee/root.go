package main

import (
	"github.com/spf13/cobra"

	"clee/src/config"
)

// newRootCmd builds the command tree around a.
func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "clee",
		Short: "clee - inspect and analyze Jenkins test reports",
		Long: `clee is a command-line client for Jenkins system-test jobs.

It lists jobs and builds, shows the test report of a single build, aggregates
results across many builds to find flaky and broken tests, fetches console
logs and queues new builds.

Run 'clee init' once to store the Jenkins connection.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}
	rootCmd.SetOut(a.out)
	rootCmd.SetErr(a.errOut)

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultPath(), "Config file path")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newInitCmd(a),
		newListJobsCmd(a),
		newListCmd(a),
		newStatusCmd(a),
		newAnalyzeCmd(a),
		newLogsCmd(a),
		newBuildCmd(a),
		newClearCacheCmd(a),
		newHistoryCmd(a),
		newMCPCmd(a),
	)

	return rootCmd
}
