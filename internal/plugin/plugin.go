// Package plugin defines the three named capabilities a pipeline step is built
// from (filters, aggregations and time groupings), the built-in
// implementations, and the Registry that resolves them by name.
//
// Plugins are immutable after construction, so one instance may back any
// number of pipeline steps at once.
package plugin

import (
	"metricquery/internal/metric"
	"metricquery/internal/queryerr"
)

// Filter is a named predicate over a single metric. Apply must be pure and
// total.
type Filter interface {
	Name() string
	Apply(m metric.Metric) bool
}

// ThresholdFilter is a Filter comparing against a bound threshold. Registered
// instances act as prototypes that pipelines rebind per step.
type ThresholdFilter interface {
	Filter
	Threshold() int64
	WithThreshold(threshold int64) Filter
}

// Aggregation reduces a non-empty slice of metrics to one value. It must fail
// with queryerr.ErrEmptyMetricStream on an empty slice and must not retain or
// modify the slice.
type Aggregation interface {
	Name() string
	Apply(ms []metric.Metric) (int64, error)
}

// TimeGrouping truncates a UTC timestamp (seconds) to the start of the
// calendar bucket that contains it.
type TimeGrouping interface {
	Name() string
	GroupTimestamp(ts int64) (int64, error)
}

// FilterFunc adapts a function into a Filter.
func FilterFunc(name string, fn func(metric.Metric) bool) Filter {
	return funcFilter{name: name, fn: fn}
}

type funcFilter struct {
	name string
	fn   func(metric.Metric) bool
}

func (f funcFilter) Name() string               { return f.name }
func (f funcFilter) Apply(m metric.Metric) bool { return f.fn(m) }

// AggregationFunc adapts a reduction over values into an Aggregation. The
// empty-input check is handled by the adapter.
func AggregationFunc(name string, fn func(values []int64) int64) Aggregation {
	return funcAggregation{name: name, fn: fn}
}

type funcAggregation struct {
	name string
	fn   func([]int64) int64
}

func (a funcAggregation) Name() string { return a.name }

func (a funcAggregation) Apply(ms []metric.Metric) (int64, error) {
	if len(ms) == 0 {
		return 0, queryerr.EmptyMetricStream()
	}
	values := make([]int64, len(ms))
	for i, m := range ms {
		values[i] = m.Value
	}
	return a.fn(values), nil
}
