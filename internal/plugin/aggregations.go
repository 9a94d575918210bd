package plugin

import (
	"strings"

	"metricquery/internal/metric"
	"metricquery/internal/queryerr"
)

// Built-in aggregation names.
const (
	AggregationSum = "sum"
	AggregationAvg = "avg"
	AggregationMin = "min"
	AggregationMax = "max"
)

// Sum adds all values with wrapping int64 arithmetic.
type Sum struct{}

func (Sum) Name() string { return AggregationSum }

func (Sum) Apply(ms []metric.Metric) (int64, error) {
	if len(ms) == 0 {
		return 0, queryerr.EmptyMetricStream()
	}
	return sum(ms), nil
}

// Avg divides the wrapping sum by the count, truncating toward zero:
// a sum of -7 over 2 metrics yields -3.
type Avg struct{}

func (Avg) Name() string { return AggregationAvg }

func (Avg) Apply(ms []metric.Metric) (int64, error) {
	if len(ms) == 0 {
		return 0, queryerr.EmptyMetricStream()
	}
	return sum(ms) / int64(len(ms)), nil
}

type Min struct{}

func (Min) Name() string { return AggregationMin }

func (Min) Apply(ms []metric.Metric) (int64, error) {
	if len(ms) == 0 {
		return 0, queryerr.EmptyMetricStream()
	}
	out := ms[0].Value
	for _, m := range ms[1:] {
		if m.Value < out {
			out = m.Value
		}
	}
	return out, nil
}

type Max struct{}

func (Max) Name() string { return AggregationMax }

func (Max) Apply(ms []metric.Metric) (int64, error) {
	if len(ms) == 0 {
		return 0, queryerr.EmptyMetricStream()
	}
	out := ms[0].Value
	for _, m := range ms[1:] {
		if m.Value > out {
			out = m.Value
		}
	}
	return out, nil
}

func sum(ms []metric.Metric) int64 {
	var s int64
	for _, m := range ms {
		s += m.Value
	}
	return s
}

var aggregationKinds = map[string]Aggregation{
	AggregationSum: Sum{},
	AggregationAvg: Avg{},
	AggregationMin: Min{},
	AggregationMax: Max{},
}

// NewAggregation returns the built-in aggregation of the given kind.
func NewAggregation(kind string) (Aggregation, error) {
	if a, ok := aggregationKinds[kind]; ok {
		return a, nil
	}
	return nil, queryerr.InvalidAggregation("Unknown aggregation type: %s. Expected one of: %s",
		kind, strings.Join(names(aggregationKinds), ", "))
}
