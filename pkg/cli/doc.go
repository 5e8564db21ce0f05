/*
Package cli provides command-line helpers used by the chatrelay command.

Output Formatting:

Commands render results as a table, JSON or CSV:

	format, err := cli.ParseFormat(flagValue)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(os.Stdout, result)

Table and CSV output require the result to implement Tabular.

Errors and Exit Codes:

Commands return ConfigError, UsageError or CommandError; main maps them to
an exit code with ExitCode.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
*/
package cli
