// Package legacy accepts the fixed-vocabulary transformation records used by
// older callers and replays them onto a pipeline.
//
// Each record contributes at most two steps, in this order: a comparison
// filter, then either a time-grouped aggregation (when both aggregation and
// time grouping are present) or a plain aggregation. A time grouping without
// an aggregation contributes nothing.
package legacy

import (
	"errors"
	"fmt"

	"metricquery/internal/metric"
	"metricquery/internal/pipeline"
	"metricquery/internal/plugin"
	"metricquery/internal/queryerr"
	"metricquery/internal/spec"
)

type FilterKind int

const (
	GreaterThan FilterKind = iota
	LessThan
	GreaterThanOrEqual
	LessThanOrEqual
	Equal
)

var filterNames = [...]string{
	GreaterThan:        plugin.FilterGreaterThan,
	LessThan:           plugin.FilterLessThan,
	GreaterThanOrEqual: plugin.FilterGreaterThanOrEqual,
	LessThanOrEqual:    plugin.FilterLessThanOrEqual,
	Equal:              plugin.FilterEqual,
}

func (k FilterKind) String() string {
	if k < 0 || int(k) >= len(filterNames) {
		return fmt.Sprintf("FilterKind(%d)", int(k))
	}
	return filterNames[k]
}

// Filter is a comparison kind with its threshold.
type Filter struct {
	Kind  FilterKind
	Value int64
}

type AggregationKind int

const (
	Sum AggregationKind = iota
	Avg
	Min
	Max
)

var aggregationNames = [...]string{
	Sum: plugin.AggregationSum,
	Avg: plugin.AggregationAvg,
	Min: plugin.AggregationMin,
	Max: plugin.AggregationMax,
}

func (k AggregationKind) String() string {
	if k < 0 || int(k) >= len(aggregationNames) {
		return fmt.Sprintf("AggregationKind(%d)", int(k))
	}
	return aggregationNames[k]
}

type TimeGroupingKind int

const (
	Hour TimeGroupingKind = iota
	Minute
	Day
)

var groupingNames = [...]string{
	Hour:   plugin.GroupingHour,
	Minute: plugin.GroupingMinute,
	Day:    plugin.GroupingDay,
}

func (k TimeGroupingKind) String() string {
	if k < 0 || int(k) >= len(groupingNames) {
		return fmt.Sprintf("TimeGroupingKind(%d)", int(k))
	}
	return groupingNames[k]
}

// Transformation is one legacy record. Every field is optional.
type Transformation struct {
	Filter       *Filter
	Aggregation  *AggregationKind
	TimeGrouping *TimeGroupingKind
}

func ParseFilter(kind string, value int64) (Filter, error) {
	for i, name := range filterNames {
		if name == kind {
			return Filter{Kind: FilterKind(i), Value: value}, nil
		}
	}
	return Filter{}, queryerr.InvalidFilter("Unknown filter type: %s. Expected one of: gt, lt, ge, le, eq", kind)
}

func ParseAggregation(kind string) (AggregationKind, error) {
	for i, name := range aggregationNames {
		if name == kind {
			return AggregationKind(i), nil
		}
	}
	return 0, queryerr.InvalidAggregation("Unknown aggregation type: %s. Expected one of: sum, avg, min, max", kind)
}

func ParseTimeGrouping(kind string) (TimeGroupingKind, error) {
	for i, name := range groupingNames {
		if name == kind {
			return TimeGroupingKind(i), nil
		}
	}
	return 0, queryerr.InvalidTimeGrouping("Unknown time grouping type: %s. Expected one of: hour, minute, day", kind)
}

// FromSpec converts a decoded record, rejecting unknown kinds.
func FromSpec(rec spec.LegacyTransformation) (Transformation, error) {
	var t Transformation
	if rec.Filter != nil {
		f, err := ParseFilter(rec.Filter.Type, rec.Filter.Value)
		if err != nil {
			return t, err
		}
		t.Filter = &f
	}
	if rec.Aggregation != "" {
		a, err := ParseAggregation(rec.Aggregation)
		if err != nil {
			return t, err
		}
		t.Aggregation = &a
	}
	if rec.TimeGrouping != "" {
		g, err := ParseTimeGrouping(rec.TimeGrouping)
		if err != nil {
			return t, err
		}
		t.TimeGrouping = &g
	}
	return t, nil
}

var (
	ErrEmptyTransformation = errors.New("legacy: transformation has no filter, aggregation or time grouping")
	ErrGroupingWithoutAgg  = errors.New("legacy: time grouping requires an aggregation")
)

// Validate reports records that would contribute no step at all or whose
// time grouping would be silently ignored.
func (t Transformation) Validate() error {
	if t.Filter == nil && t.Aggregation == nil && t.TimeGrouping == nil {
		return ErrEmptyTransformation
	}
	if t.TimeGrouping != nil && t.Aggregation == nil {
		return ErrGroupingWithoutAgg
	}
	return nil
}

// Compile converts and validates decoded records.
func Compile(recs []spec.LegacyTransformation) ([]Transformation, error) {
	out := make([]Transformation, 0, len(recs))
	for i, rec := range recs {
		t, err := FromSpec(rec)
		if err == nil {
			err = t.Validate()
		}
		if err != nil {
			return nil, fmt.Errorf("transformation %d: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// Build appends the steps of every record to p.
func Build(p *pipeline.Pipeline, ts []Transformation) error {
	for _, t := range ts {
		if t.Filter != nil {
			if err := p.Filter(t.Filter.Kind.String(), t.Filter.Value); err != nil {
				return err
			}
		}
		switch {
		case t.Aggregation != nil && t.TimeGrouping != nil:
			if err := p.GroupByTime(t.TimeGrouping.String(), t.Aggregation.String()); err != nil {
				return err
			}
		case t.Aggregation != nil:
			if err := p.Aggregate(t.Aggregation.String()); err != nil {
				return err
			}
		}
	}
	return nil
}

// Transform runs ts over metrics using plugins from reg (nil selects the
// default registry). The result equals building the same steps by hand.
func Transform(reg *plugin.Registry, metrics []metric.Metric, ts []Transformation) ([]metric.Metric, error) {
	p := pipeline.New(reg, metrics)
	if err := Build(p, ts); err != nil {
		return nil, err
	}
	return p.Execute()
}
