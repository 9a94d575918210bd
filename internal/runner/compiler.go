package runner

import (
	"fmt"

	"metricquery/internal/config"
	"metricquery/internal/metric"
	"metricquery/internal/pipeline"
	"metricquery/internal/plugin"
	"metricquery/sink"
	"metricquery/sink/stdout"
	"metricquery/source"

	// drivers register themselves
	_ "metricquery/sink/kafka"
	_ "metricquery/source/file"
	_ "metricquery/source/kafka"
)

// Compile loads a run file, checks that its steps resolve against reg, and
// configures the named source and sinks.
func Compile(path string, reg *plugin.Registry) (*Runner, error) {
	cfg, srcPath, err := config.LoadPipelineSpec(path)
	if err != nil {
		return nil, err
	}
	r := New(reg, cfg)

	// resolve every step now so a typo fails before any I/O
	if err := r.plan(pipeline.New(r.registry, []metric.Metric{})); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	src, err := source.NewAdapter(cfg.Source.Driver)
	if err != nil {
		return nil, err
	}
	if err := src.Configure(source.Config{Path: srcPath, Validate: cfg.Source.Validate}); err != nil {
		return nil, fmt.Errorf("source %s: %w", cfg.Source.Driver, err)
	}
	r.SetSource(src)

	for _, name := range cfg.Sinks {
		sDrv, err := sink.NewAdapter(name)
		if err != nil {
			_ = r.Close()
			return nil, err
		}

		switch name {
		case "stdout":
			err = sDrv.Configure(stdout.Config{Pretty: cfg.SinkConfigs.Stdout.Pretty})
		case "kafka":
			var kc config.Kafka
			if kc, err = config.LoadKafka(cfg.SinkConfigs.Kafka.Config); err == nil {
				err = sDrv.Configure(kc)
			}
		default:
			err = fmt.Errorf("no config block for sink %q", name)
		}
		if err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("sink %s: %w", name, err)
		}
		r.AddSink(sDrv)
	}
	return r, nil
}
