/*
Package cli provides command-line helpers for the quota command.

Output Formatting:

Results are printed as text, JSON or CSV. Text and CSV need the result to
implement Table:

	format, err := cli.ParseOutputFormat(flagValue)
	if err != nil {
		return err
	}
	if err := cli.NewFormatter(format).FormatTo(os.Stdout, result); err != nil {
		return err
	}

Errors:

ConfigError and CommandError carry context for the user; ExitCode maps
configuration problems to exit status 2 and everything else to 1.

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
