package engine

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"metricquery/internal/config"
	"metricquery/internal/logging"
	"metricquery/internal/plugin"
	"metricquery/internal/runner"
	"metricquery/internal/telemetry"
	"metricquery/internal/transport"
)

// Bootstrap opens the gRPC listener, prepares the /metrics server and, when
// cfg.Pipeline is set, executes that run file once. A nil reg selects the
// default registry.
func Bootstrap(ctx context.Context, cfg config.Engine, reg *plugin.Registry) (*Engine, error) {
	logging.Configure(logging.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON})
	log := logging.With("engine")

	if reg == nil {
		reg = plugin.Default()
	}
	m := telemetry.Default
	m.SetPlugins(reg)

	// 1. transport server
	srv, err := transport.StartServer(cfg.GRPCPort, transport.NewQueryService(reg, m))
	if err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}

	// 2. startup run file
	if cfg.Pipeline != "" {
		r, err := runner.Compile(cfg.Pipeline, reg)
		if err != nil {
			srv.Stop()
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		r.SetTelemetry(m)
		out, err := r.Run(ctx)
		_ = r.Close()
		if err != nil {
			srv.Stop()
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		log.Info("startup pipeline done", "path", cfg.Pipeline, "count", len(out))
	}

	// 3. metrics
	return &Engine{
		transport: srv,
		metrics:   telemetry.NewServer(cfg.MetricsPort, prometheus.DefaultGatherer),
	}, nil
}
