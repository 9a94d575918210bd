package plugin

import (
	"sort"
	"strings"

	"metricquery/internal/metric"
	"metricquery/internal/queryerr"
)

// Built-in filter names.
const (
	FilterGreaterThan        = "gt"
	FilterLessThan           = "lt"
	FilterGreaterThanOrEqual = "ge"
	FilterLessThanOrEqual    = "le"
	FilterEqual              = "eq"
	FilterLabelEqual         = "label_eq"
	FilterLabelIn            = "label_in"
)

// Comparison filters test metric.Value against a threshold with signed
// integer comparison.
type comparison struct {
	name      string
	threshold int64
	cmp       func(v, threshold int64) bool
}

func (c comparison) Name() string               { return c.name }
func (c comparison) Threshold() int64           { return c.threshold }
func (c comparison) Apply(m metric.Metric) bool { return c.cmp(m.Value, c.threshold) }

func (c comparison) WithThreshold(threshold int64) Filter {
	c.threshold = threshold
	return c
}

func GreaterThan(threshold int64) ThresholdFilter {
	return comparison{name: FilterGreaterThan, threshold: threshold, cmp: func(v, t int64) bool { return v > t }}
}

func LessThan(threshold int64) ThresholdFilter {
	return comparison{name: FilterLessThan, threshold: threshold, cmp: func(v, t int64) bool { return v < t }}
}

func GreaterThanOrEqual(threshold int64) ThresholdFilter {
	return comparison{name: FilterGreaterThanOrEqual, threshold: threshold, cmp: func(v, t int64) bool { return v >= t }}
}

func LessThanOrEqual(threshold int64) ThresholdFilter {
	return comparison{name: FilterLessThanOrEqual, threshold: threshold, cmp: func(v, t int64) bool { return v <= t }}
}

func Equal(threshold int64) ThresholdFilter {
	return comparison{name: FilterEqual, threshold: threshold, cmp: func(v, t int64) bool { return v == t }}
}

// LabelEqual matches metrics whose label is present and equal to target.
type LabelEqual struct {
	target string
}

func NewLabelEqual(target string) LabelEqual {
	return LabelEqual{target: target}
}

func (f LabelEqual) Name() string   { return FilterLabelEqual }
func (f LabelEqual) Target() string { return f.target }

func (f LabelEqual) Apply(m metric.Metric) bool {
	l, ok := m.LabelValue()
	return ok && l == f.target
}

// LabelIn matches metrics whose label is present and one of the targets.
type LabelIn struct {
	targets map[string]struct{}
}

func NewLabelIn(targets ...string) LabelIn {
	set := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		set[t] = struct{}{}
	}
	return LabelIn{targets: set}
}

func (f LabelIn) Name() string { return FilterLabelIn }

// Targets returns the target set in sorted order.
func (f LabelIn) Targets() []string {
	out := make([]string, 0, len(f.targets))
	for t := range f.targets {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (f LabelIn) Apply(m metric.Metric) bool {
	l, ok := m.LabelValue()
	if !ok {
		return false
	}
	_, hit := f.targets[l]
	return hit
}

var comparisonKinds = map[string]func(int64) ThresholdFilter{
	FilterGreaterThan:        GreaterThan,
	FilterLessThan:           LessThan,
	FilterGreaterThanOrEqual: GreaterThanOrEqual,
	FilterLessThanOrEqual:    LessThanOrEqual,
	FilterEqual:              Equal,
}

// NewFilter builds a comparison filter by kind.
func NewFilter(kind string, threshold int64) (ThresholdFilter, error) {
	if ctor, ok := comparisonKinds[kind]; ok {
		return ctor(threshold), nil
	}
	return nil, queryerr.InvalidFilter("Unknown filter type: %s. Expected one of: %s",
		kind, strings.Join(names(comparisonKinds), ", "))
}
