package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/flowdeck/flowdeck/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:           "flowdeck",
	Short:         "Flowdeck runs small operator workflows behind a web dashboard.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		structured := commandUsesStructuredLogging(cmd)
		setCommandExecutionContext(commandExecutionContext{
			CommandPath:       cmd.CommandPath(),
			UsesStructuredLog: structured,
		})
		if structured {
			if _, err := logging.Setup(logging.Options{Command: cmd.CommandPath(), Writer: os.Stdout}); err != nil {
				return err
			}
		}
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd, workerCmd, migrateCmd, seedCmd, validateCmd, usersCmd)
}
