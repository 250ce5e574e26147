package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"postplanner-hq/quota/pkg/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load the configuration file with .env files and environment overrides
applied, and report every invalid field.

Exits with status 2 when the configuration is invalid.

Examples:
  # Validate the default config.yaml
  quota validate

  # Validate a specific file
  quota validate --config /etc/quota/config.yaml`,
	Args: cobra.NoArgs,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(cfgFile)
	if err != nil {
		fields := cli.ConfigErrors(err)
		if fields == nil {
			return err
		}
		fmt.Fprintf(out, "✗ %s: %d invalid field(s)\n", cfgFile, len(fields))
		for _, fe := range fields {
			fmt.Fprintf(out, "  - %s: %s\n", fe.Field, fe.Message)
		}
		return err
	}

	fmt.Fprintf(out, "✓ %s is valid\n", cfgFile)
	if verbose {
		fmt.Fprintf(out, "  listen address:  %s\n", cfg.Server.ListenAddress)
		fmt.Fprintf(out, "  usage backend:   %s (%s period)\n", cfg.Usage.Backend, cfg.Usage.Period)
		fmt.Fprintf(out, "  rate categories: %d\n", len(ratePolicies(cfg.Limiter)))
		fmt.Fprintf(out, "  api keys:        %d\n", len(cfg.Auth.Keys))
		fmt.Fprintf(out, "  jwt enabled:     %t\n", cfg.Auth.JWT.Secret != "")
	}
	return nil
}
