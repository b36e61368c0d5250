package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "authd",
		Short:         "JWT authentication service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	rootCmd.AddCommand(
		newServeCommand(&configPath),
		newWorkerCommand(&configPath),
		newKeygenCommand(),
		newMigrateCommand(&configPath),
	)

	return rootCmd
}
