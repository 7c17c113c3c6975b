// Package main implements the shabelingo command: the review API server and
// the maintenance tasks that share its configuration.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	envFile    string
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "shabelingo",
		Short:         "Spaced repetition review service for language memos",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading configuration")
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "path to a config file (default: ./config.yaml or ./config/config.yaml)")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newImportCmd(opts),
		newGradeCmd(),
	)
	return root
}
