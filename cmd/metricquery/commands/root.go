package commands

import (
	"github.com/spf13/cobra"

	"metricquery/internal/logging"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "metricquery",
		Short:        "Filter, aggregate and time-group metric collections",
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			logging.InitFromEnv()
		},
	}

	rootCmd.AddCommand(
		NewRunCommand(),
		NewServeCommand(),
		NewPluginsCommand(),
	)

	return rootCmd
}
