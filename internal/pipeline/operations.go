package pipeline

import (
	"errors"
	"fmt"

	"metricquery/internal/plugin"
	"metricquery/internal/queryerr"
	"metricquery/internal/spec"
)

var ErrUnknownOperation = errors.New("pipeline: unknown operation")

var comparisonOps = map[string]string{
	"greater_than":          plugin.FilterGreaterThan,
	"less_than":             plugin.FilterLessThan,
	"greater_than_or_equal": plugin.FilterGreaterThanOrEqual,
	"less_than_or_equal":    plugin.FilterLessThanOrEqual,
	"equal_to":              plugin.FilterEqual,
}

var aggregationOps = map[string]string{
	"sum":     plugin.AggregationSum,
	"average": plugin.AggregationAvg,
	"minimum": plugin.AggregationMin,
	"maximum": plugin.AggregationMax,
}

var groupingOps = map[string]string{
	"group_by_minute": plugin.GroupingMinute,
	"group_by_hour":   plugin.GroupingHour,
	"group_by_day":    plugin.GroupingDay,
}

// Apply appends one step per operation, in order. It stops at the first
// operation that cannot be built; steps added before it are kept.
func Apply(p *Pipeline, ops []spec.Operation) error {
	for i, op := range ops {
		if err := applyOne(p, op); err != nil {
			return fmt.Errorf("operation %d (%s): %w", i, op.Op, err)
		}
	}
	return nil
}

func applyOne(p *Pipeline, op spec.Operation) error {
	if name, ok := comparisonOps[op.Op]; ok {
		if op.Value == nil {
			return queryerr.InvalidFilter("%s requires a value", op.Op)
		}
		return p.Filter(name, *op.Value)
	}
	if name, ok := aggregationOps[op.Op]; ok {
		return p.Aggregate(name)
	}
	if name, ok := groupingOps[op.Op]; ok {
		agg := op.Aggregation
		if agg == "" {
			agg = plugin.AggregationSum
		}
		return p.GroupByTime(name, agg)
	}

	switch op.Op {
	case "filter":
		if op.Value == nil {
			return queryerr.InvalidFilter("filter %s requires a value", op.Type)
		}
		return p.Filter(op.Type, *op.Value)
	case "aggregate":
		return p.Aggregate(op.Type)
	case "group_by":
		return p.GroupByTime(op.TimeGrouping, op.Aggregation)
	case "filter_by_label":
		if op.Label == nil {
			return queryerr.InvalidFilter("filter_by_label requires a label")
		}
		return p.FilterByLabel(plugin.FilterLabelEqual, *op.Label)
	case "filter_by_labels":
		return p.FilterByLabels(plugin.FilterLabelIn, op.Labels)
	}
	return fmt.Errorf("%w %q", ErrUnknownOperation, op.Op)
}
