package pipeline

import (
	"fmt"
	"time"

	"metricquery/internal/metric"
	"metricquery/internal/plugin"
	"metricquery/internal/queryerr"
	"metricquery/internal/transform"
)

// Pipeline binds an input collection to an ordered list of strategies.
//
// Builder methods that resolve a plugin by name fail immediately when the
// name is unknown and leave the pipeline unchanged. Execute always restarts
// from the stored input and never modifies it, so a pipeline can be executed
// any number of times.
type Pipeline struct {
	registry *plugin.Registry
	metrics  []metric.Metric
	steps    []transform.Strategy
}

// New copies metrics into a new pipeline resolving plugin names against reg.
// A nil reg selects plugin.Default().
func New(reg *plugin.Registry, metrics []metric.Metric) *Pipeline {
	if reg == nil {
		reg = plugin.Default()
	}
	return &Pipeline{
		registry: reg,
		metrics:  metric.CloneAll(metrics),
		steps:    make([]transform.Strategy, 0, 5),
	}
}

// Filter appends a filter step. Threshold filters are rebound to threshold;
// other registered filters are used as registered.
func (p *Pipeline) Filter(name string, threshold int64) error {
	f, ok := p.registry.Filter(name)
	if !ok {
		return queryerr.InvalidFilter("Unknown filter type: %s", name)
	}
	if tf, ok := f.(plugin.ThresholdFilter); ok {
		f = tf.WithThreshold(threshold)
	}
	p.steps = append(p.steps, transform.NewFilter(f))
	return nil
}

func (p *Pipeline) Aggregate(name string) error {
	a, ok := p.registry.Aggregation(name)
	if !ok {
		return queryerr.InvalidAggregation("Unknown aggregation type: %s", name)
	}
	p.steps = append(p.steps, transform.NewAggregate(a))
	return nil
}

func (p *Pipeline) GroupByTime(grouping, aggregation string) error {
	g, ok := p.registry.TimeGrouping(grouping)
	if !ok {
		return queryerr.InvalidTimeGrouping("Unknown time grouping type: %s", grouping)
	}
	a, ok := p.registry.Aggregation(aggregation)
	if !ok {
		return queryerr.InvalidAggregation("Unknown aggregation type: %s", aggregation)
	}
	p.steps = append(p.steps, transform.NewTimeGroup(g, a))
	return nil
}

// FilterByLabel appends a label_eq filter matching label exactly.
func (p *Pipeline) FilterByLabel(name, label string) error {
	if name != plugin.FilterLabelEqual {
		return queryerr.InvalidFilter("filter %q does not take a single label, want %q", name, plugin.FilterLabelEqual)
	}
	p.steps = append(p.steps, transform.NewFilter(plugin.NewLabelEqual(label)))
	return nil
}

// FilterByLabels appends a label_in filter matching any of labels.
func (p *Pipeline) FilterByLabels(name string, labels []string) error {
	if name != plugin.FilterLabelIn {
		return queryerr.InvalidFilter("filter %q does not take a label set, want %q", name, plugin.FilterLabelIn)
	}
	if len(labels) == 0 {
		return queryerr.InvalidFilter("label set for %s is empty", name)
	}
	p.steps = append(p.steps, transform.NewFilter(plugin.NewLabelIn(labels...)))
	return nil
}

// Then appends a caller-built strategy.
func (p *Pipeline) Then(s transform.Strategy) {
	p.steps = append(p.steps, s)
}

// Len reports the number of steps.
func (p *Pipeline) Len() int { return len(p.steps) }

// Steps returns the step names in execution order.
func (p *Pipeline) Steps() []string {
	out := make([]string, len(p.steps))
	for i, s := range p.steps {
		out[i] = s.Name()
	}
	return out
}

// Metrics returns a copy of the stored input.
func (p *Pipeline) Metrics() []metric.Metric {
	return metric.CloneAll(p.metrics)
}

// Execute runs every step in order, feeding each step the previous output.
// The first failing step aborts execution and no partial result is returned.
func (p *Pipeline) Execute() ([]metric.Metric, error) {
	return p.ExecuteObserved(nil)
}

// StepObserver is told about each step after it ran.
type StepObserver func(step string, in, out int, elapsed time.Duration, err error)

// ExecuteObserved is Execute with a per-step callback; obs may be nil.
func (p *Pipeline) ExecuteObserved(obs StepObserver) ([]metric.Metric, error) {
	cur := metric.CloneAll(p.metrics)
	for i, s := range p.steps {
		start := time.Now()
		out, err := s.Apply(cur)
		if obs != nil {
			obs(s.Name(), len(cur), len(out), time.Since(start), err)
		}
		if err != nil {
			return nil, fmt.Errorf("pipeline: step %d (%s): %w", i, s.Name(), err)
		}
		cur = out
	}
	return cur, nil
}
