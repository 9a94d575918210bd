package plugin

import (
	"fmt"
	"strings"
	"time"

	"metricquery/internal/queryerr"
)

// Built-in time grouping names.
const (
	GroupingMinute = "minute"
	GroupingHour   = "hour"
	GroupingDay    = "day"
)

// Range of timestamps accepted as UTC instants.
var (
	MinTimestamp = time.Date(-262143, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()
	MaxTimestamp = time.Date(262142, time.December, 31, 23, 59, 59, 0, time.UTC).Unix()
)

// calendarGrouping truncates on the UTC calendar; width bounds the distance
// between an instant and its bucket start.
type calendarGrouping struct {
	name     string
	width    int64
	truncate func(t time.Time) time.Time
}

func (g calendarGrouping) Name() string { return g.name }

func (g calendarGrouping) GroupTimestamp(ts int64) (int64, error) {
	if ts < MinTimestamp || ts > MaxTimestamp {
		return 0, queryerr.InvalidTimeGrouping("Invalid timestamp: %d", ts)
	}
	bucket := g.truncate(time.Unix(ts, 0).UTC()).Unix()
	if bucket > ts || ts-bucket >= g.width {
		return 0, queryerr.OperationFailed(g.name+" grouping",
			fmt.Sprintf("bucket %d does not contain timestamp %d", bucket, ts))
	}
	return bucket, nil
}

func Minute() TimeGrouping {
	return calendarGrouping{name: GroupingMinute, width: 60, truncate: func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
	}}
}

func Hour() TimeGrouping {
	return calendarGrouping{name: GroupingHour, width: 3600, truncate: func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
	}}
}

func Day() TimeGrouping {
	return calendarGrouping{name: GroupingDay, width: 86400, truncate: func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}}
}

var groupingKinds = map[string]func() TimeGrouping{
	GroupingMinute: Minute,
	GroupingHour:   Hour,
	GroupingDay:    Day,
}

// NewTimeGrouping returns the built-in time grouping of the given kind.
func NewTimeGrouping(kind string) (TimeGrouping, error) {
	if ctor, ok := groupingKinds[kind]; ok {
		return ctor(), nil
	}
	return nil, queryerr.InvalidTimeGrouping("Unknown time grouping type: %s. Expected one of: %s",
		kind, strings.Join(names(groupingKinds), ", "))
}
