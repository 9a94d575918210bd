// Package runner executes run files: load a collection from a source, run it
// through a pipeline, hand the result to sinks.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"metricquery/internal/legacy"
	"metricquery/internal/logging"
	"metricquery/internal/metric"
	"metricquery/internal/pipeline"
	"metricquery/internal/plugin"
	"metricquery/internal/spec"
	"metricquery/internal/telemetry"
	"metricquery/sink"
	"metricquery/source"
)

type Runner struct {
	registry *plugin.Registry
	file     spec.File
	source   source.Adapter
	sinks    []sink.Adapter
	metrics  *telemetry.Metrics
	log      *slog.Logger
}

// New returns a runner for f without source or sinks. A nil reg selects the
// default registry.
func New(reg *plugin.Registry, f spec.File) *Runner {
	if reg == nil {
		reg = plugin.Default()
	}
	return &Runner{registry: reg, file: f, log: logging.With("runner")}
}

func (r *Runner) AddSink(s sink.Adapter)            { r.sinks = append(r.sinks, s) }
func (r *Runner) SetSource(s source.Adapter)        { r.source = s }
func (r *Runner) SetTelemetry(m *telemetry.Metrics) { r.metrics = m }
func (r *Runner) SinkCount() int                    { return len(r.sinks) }

// Plan appends the steps described by ops, or by the legacy records when ops
// is empty.
func Plan(p *pipeline.Pipeline, ops []spec.Operation, recs []spec.LegacyTransformation) error {
	if len(ops) > 0 {
		return pipeline.Apply(p, ops)
	}
	ts, err := legacy.Compile(recs)
	if err != nil {
		return err
	}
	return legacy.Build(p, ts)
}

func (r *Runner) plan(p *pipeline.Pipeline) error {
	return Plan(p, r.file.Operations, r.file.Transformations)
}

// Run performs one load, execute, push cycle and returns the pushed result.
func (r *Runner) Run(ctx context.Context) ([]metric.Metric, error) {
	if r.source == nil {
		return nil, errors.New("runner: no source configured")
	}
	in, err := r.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("runner: load: %w", err)
	}

	p := pipeline.New(r.registry, in)
	if err := r.plan(p); err != nil {
		return nil, fmt.Errorf("runner: %w", err)
	}
	out, err := p.ExecuteObserved(func(step string, n, m int, elapsed time.Duration, err error) {
		r.metrics.ObserveStep(step, n, m, elapsed, err)
		r.log.Debug("step done", "step", step, "in", n, "out", m, "elapsed", elapsed)
	})
	r.metrics.ObserveExecution("run", len(in), len(out), err)
	if err != nil {
		r.log.Warn("pipeline failed", "steps", p.Len(), "err", err)
		return nil, fmt.Errorf("runner: %w", err)
	}
	if r.file.Sort {
		metric.SortByTimestamp(out)
	}

	for _, s := range r.sinks {
		if err := s.Push(out); err != nil {
			return nil, fmt.Errorf("runner: push: %w", err)
		}
	}
	r.log.Info("pipeline done", "in", len(in), "out", len(out), "steps", p.Len(), "sinks", len(r.sinks))
	return out, nil
}

// Close closes the source and every sink and joins their errors.
func (r *Runner) Close() error {
	var errs []error
	if r.source != nil {
		errs = append(errs, r.source.Close())
	}
	for _, s := range r.sinks {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
