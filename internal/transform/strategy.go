package transform

import (
	"metricquery/internal/metric"
	"metricquery/internal/plugin"
	"metricquery/internal/queryerr"
)

type Strategy interface {
	// Name identifies the step in errors, logs and telemetry.
	Name() string
	Apply(ms []metric.Metric) ([]metric.Metric, error)
}

// Func adapts a plain function into a Strategy.
type Func struct {
	Label string
	Fn    func([]metric.Metric) ([]metric.Metric, error)
}

func (f Func) Name() string { return f.Label }

func (f Func) Apply(ms []metric.Metric) ([]metric.Metric, error) { return f.Fn(ms) }

// FilterStrategy keeps, in order, every metric the filter accepts.
type FilterStrategy struct {
	filter plugin.Filter
}

func NewFilter(f plugin.Filter) *FilterStrategy {
	return &FilterStrategy{filter: f}
}

func (s *FilterStrategy) Name() string { return "filter:" + s.filter.Name() }

func (s *FilterStrategy) Apply(ms []metric.Metric) ([]metric.Metric, error) {
	out := make([]metric.Metric, 0, len(ms)/2)
	for _, m := range ms {
		if s.filter.Apply(m) {
			out = append(out, m.Clone())
		}
	}
	return out, nil
}

// AggregateStrategy reduces the whole input to one metric carrying the
// timestamp and label of the first input element.
type AggregateStrategy struct {
	aggregation plugin.Aggregation
}

func NewAggregate(a plugin.Aggregation) *AggregateStrategy {
	return &AggregateStrategy{aggregation: a}
}

func (s *AggregateStrategy) Name() string { return "aggregate:" + s.aggregation.Name() }

func (s *AggregateStrategy) Apply(ms []metric.Metric) ([]metric.Metric, error) {
	if len(ms) == 0 {
		return nil, queryerr.EmptyMetricStream()
	}
	v, err := s.aggregation.Apply(ms)
	if err != nil {
		return nil, err
	}
	out := ms[0].Clone()
	out.Value = v
	return []metric.Metric{out}, nil
}

// TimeGroupStrategy buckets metrics by the grouping's bucket timestamp and
// aggregates each bucket independently. Output metrics carry the bucket
// timestamp and no label. Buckets are emitted in the order they are first
// seen in the input, which is not necessarily timestamp order.
type TimeGroupStrategy struct {
	grouping    plugin.TimeGrouping
	aggregation plugin.Aggregation
}

func NewTimeGroup(g plugin.TimeGrouping, a plugin.Aggregation) *TimeGroupStrategy {
	return &TimeGroupStrategy{grouping: g, aggregation: a}
}

func (s *TimeGroupStrategy) Name() string {
	return "group_by_time:" + s.grouping.Name() + "/" + s.aggregation.Name()
}

func (s *TimeGroupStrategy) Apply(ms []metric.Metric) ([]metric.Metric, error) {
	if len(ms) == 0 {
		return nil, queryerr.EmptyMetricStream()
	}

	var order []int64
	buckets := make(map[int64][]metric.Metric)
	for _, m := range ms {
		ts, err := s.grouping.GroupTimestamp(m.Timestamp)
		if err != nil {
			return nil, err
		}
		if _, seen := buckets[ts]; !seen {
			order = append(order, ts)
		}
		buckets[ts] = append(buckets[ts], metric.New(m.Value, ts))
	}

	out := make([]metric.Metric, 0, len(order))
	for _, ts := range order {
		v, err := s.aggregation.Apply(buckets[ts])
		if err != nil {
			return nil, err
		}
		out = append(out, metric.New(v, ts))
	}
	return out, nil
}
