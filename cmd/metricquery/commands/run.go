package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"metricquery/internal/plugin"
	"metricquery/internal/runner"
	"metricquery/internal/telemetry"
	"metricquery/sink"
	"metricquery/sink/stdout"
)

// NewRunCommand executes one run file. Without configured sinks the result is
// written to the command output as JSON lines.
func NewRunCommand() *cobra.Command {
	var pipelineFile string
	var pretty bool
	var metricsPort int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a pipeline run file once",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := runner.Compile(pipelineFile, plugin.Default())
			if err != nil {
				return fmt.Errorf("failed to compile %s: %w", pipelineFile, err)
			}
			defer r.Close()
			r.SetTelemetry(telemetry.Default)

			// a long Kafka snapshot can be scraped while it runs
			if metricsPort > 0 {
				telemetry.Default.SetPlugins(plugin.Default())
				srv := telemetry.Expose(metricsPort, prometheus.DefaultGatherer)
				defer func() {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(ctx)
				}()
			}

			if r.SinkCount() == 0 {
				s, err := sink.NewAdapter("stdout")
				if err != nil {
					return err
				}
				if err := s.Configure(stdout.Config{Pretty: pretty, Output: cmd.OutOrStdout()}); err != nil {
					return err
				}
				r.AddSink(s)
			}

			_, err = r.Run(cmd.Context())
			return err
		},
	}

	cmd.Flags().StringVarP(&pipelineFile, "pipeline", "p", "pipeline.yml", "pipeline run file")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "human-readable output when the run file has no sinks")
	cmd.Flags().IntVar(&metricsPort, "metrics-port", 0, "serve /metrics on this port while the run lasts (0 disables)")
	return cmd
}
