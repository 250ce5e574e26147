package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"postplanner-hq/quota/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "quota",
	Short: "Quota - request rate limiting, usage tracking and tier policy",
	Long: `Quota decides whether a caller may proceed.

It keeps three kinds of state for an application's API layer:
  - Fixed-window request rate limits per endpoint category
  - Per-user usage counters for the current billing period
  - The static table of what each subscription tier allows

Declines carry the HTTP status, headers and upgrade hint the application
should pass on to its caller.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the code matching the error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
