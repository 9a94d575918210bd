package transform

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metricquery/internal/metric"
	"metricquery/internal/plugin"
	"metricquery/internal/queryerr"
)

func filterInput() []metric.Metric {
	return []metric.Metric{
		metric.New(10, 1000),
		metric.New(20, 2000),
		metric.NewLabeled(30, 3000, "cpu"),
		metric.New(15, 4000),
		metric.New(25, 5000),
	}
}

func TestFilterStrategyPreservesOrderAndFields(t *testing.T) {
	out, err := NewFilter(plugin.GreaterThan(20)).Apply(filterInput())
	require.NoError(t, err)

	assert.Equal(t, []metric.Metric{metric.NewLabeled(30, 3000, "cpu"), metric.New(25, 5000)}, out)
}

func TestFilterStrategyCopiesMetrics(t *testing.T) {
	in := filterInput()
	out, err := NewFilter(plugin.GreaterThan(20)).Apply(in)
	require.NoError(t, err)

	*out[0].Label = "mem"
	assert.Equal(t, "cpu", *in[2].Label)
}

func TestFilterStrategyEmptyInput(t *testing.T) {
	out, err := NewFilter(plugin.Equal(1)).Apply(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestAggregateStrategy(t *testing.T) {
	in := []metric.Metric{
		metric.NewLabeled(10, 1000, "cpu"),
		metric.New(20, 2000),
		metric.New(30, 3000),
		metric.New(40, 4000),
	}
	tests := []struct {
		agg  plugin.Aggregation
		want int64
	}{
		{plugin.Sum{}, 100},
		{plugin.Avg{}, 25},
		{plugin.Min{}, 10},
		{plugin.Max{}, 40},
	}
	for _, tt := range tests {
		t.Run(tt.agg.Name(), func(t *testing.T) {
			out, err := NewAggregate(tt.agg).Apply(in)
			require.NoError(t, err)
			require.Len(t, out, 1)
			assert.Equal(t, metric.NewLabeled(tt.want, 1000, "cpu"), out[0])
		})
	}
}

func TestAggregateStrategyEmpty(t *testing.T) {
	_, err := NewAggregate(plugin.Sum{}).Apply([]metric.Metric{})
	assert.True(t, errors.Is(err, queryerr.ErrEmptyMetricStream))
}

func ts(h, m, s int) int64 {
	return time.Date(2023, 1, 1, h, m, s, 0, time.UTC).Unix()
}

func byTimestamp(ms []metric.Metric) map[int64]int64 {
	out := make(map[int64]int64, len(ms))
	for _, m := range ms {
		out[m.Timestamp] = m.Value
	}
	return out
}

func TestTimeGroupStrategyHour(t *testing.T) {
	in := []metric.Metric{
		metric.NewLabeled(10, ts(10, 15, 30), "cpu"),
		metric.NewLabeled(20, ts(10, 30, 45), "mem"),
		metric.New(30, ts(11, 15, 30)),
	}
	out, err := NewTimeGroup(plugin.Hour(), plugin.Sum{}).Apply(in)
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.Equal(t, map[int64]int64{ts(10, 0, 0): 30, ts(11, 0, 0): 30}, byTimestamp(out))
	for _, m := range out {
		assert.Nil(t, m.Label)
	}
}

func TestTimeGroupStrategyDayCollapses(t *testing.T) {
	in := []metric.Metric{
		metric.New(10, ts(10, 15, 30)),
		metric.New(20, ts(10, 30, 45)),
		metric.New(30, ts(11, 15, 30)),
	}
	out, err := NewTimeGroup(plugin.Day(), plugin.Avg{}).Apply(in)
	require.NoError(t, err)
	assert.Equal(t, []metric.Metric{metric.New(20, ts(0, 0, 0))}, out)
}

func TestTimeGroupStrategyEmitsFirstSeenOrder(t *testing.T) {
	in := []metric.Metric{
		metric.New(1, ts(12, 0, 0)),
		metric.New(2, ts(9, 0, 0)),
		metric.New(3, ts(12, 30, 0)),
	}
	out, err := NewTimeGroup(plugin.Hour(), plugin.Max{}).Apply(in)
	require.NoError(t, err)
	assert.Equal(t, []metric.Metric{metric.New(3, ts(12, 0, 0)), metric.New(2, ts(9, 0, 0))}, out)
}

func TestTimeGroupStrategyErrors(t *testing.T) {
	s := NewTimeGroup(plugin.Day(), plugin.Sum{})

	_, err := s.Apply(nil)
	assert.True(t, errors.Is(err, queryerr.ErrEmptyMetricStream))

	_, err = s.Apply([]metric.Metric{metric.New(1, 0), metric.New(2, plugin.MaxTimestamp+1)})
	assert.True(t, errors.Is(err, queryerr.ErrInvalidTimeGrouping))
}

func TestTimeGroupStrategyStopsAtFirstRejectedTimestamp(t *testing.T) {
	calls := 0
	counting := plugin.AggregationFunc("count", func(v []int64) int64 {
		calls++
		return int64(len(v))
	})
	_, err := NewTimeGroup(plugin.Hour(), counting).Apply([]metric.Metric{
		metric.New(1, plugin.MinTimestamp-1),
		metric.New(2, 0),
	})
	require.Error(t, err)
	assert.Zero(t, calls)
}

func TestStrategyNames(t *testing.T) {
	assert.Equal(t, "filter:gt", NewFilter(plugin.GreaterThan(1)).Name())
	assert.Equal(t, "aggregate:avg", NewAggregate(plugin.Avg{}).Name())
	assert.Equal(t, "group_by_time:day/sum", NewTimeGroup(plugin.Day(), plugin.Sum{}).Name())
}

func TestFunc(t *testing.T) {
	double := Func{Label: "double", Fn: func(ms []metric.Metric) ([]metric.Metric, error) {
		return append(metric.CloneAll(ms), metric.CloneAll(ms)...), nil
	}}
	out, err := double.Apply([]metric.Metric{metric.New(1, 1)})
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, "double", double.Name())
}
