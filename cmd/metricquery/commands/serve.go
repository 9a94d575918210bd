package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"metricquery/internal/config"
	"metricquery/internal/engine"
)

// NewServeCommand starts the gRPC query service and the /metrics endpoint.
func NewServeCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve pipeline queries over gRPC",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadEngine(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			e, err := engine.Bootstrap(ctx, cfg, nil)
			if err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
			return e.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "engine.yml", "engine config file (optional)")
	return cmd
}
