package metric

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Metric is a single timestamped integer measurement with an optional label.
//
// Timestamp is seconds since the Unix epoch (UTC). A nil Label and a label
// holding the empty string are different states: only the latter can match
// a label filter.
type Metric struct {
	Value     int64   `json:"value" yaml:"value"`
	Timestamp int64   `json:"timestamp" yaml:"timestamp"`
	Label     *string `json:"label,omitempty" yaml:"label,omitempty"`
}

func New(value, timestamp int64) Metric {
	return Metric{Value: value, Timestamp: timestamp}
}

func NewLabeled(value, timestamp int64, label string) Metric {
	return Metric{Value: value, Timestamp: timestamp, Label: &label}
}

// LabelValue returns the label and whether one is present.
func (m Metric) LabelValue() (string, bool) {
	if m.Label == nil {
		return "", false
	}
	return *m.Label, true
}

// Clone returns a copy that shares no memory with m.
func (m Metric) Clone() Metric {
	out := Metric{Value: m.Value, Timestamp: m.Timestamp}
	if m.Label != nil {
		l := *m.Label
		out.Label = &l
	}
	return out
}

func (m Metric) Time() time.Time {
	return time.Unix(m.Timestamp, 0).UTC()
}

func (m Metric) String() string {
	if l, ok := m.LabelValue(); ok {
		return fmt.Sprintf("%d@%d[%s]", m.Value, m.Timestamp, l)
	}
	return fmt.Sprintf("%d@%d", m.Value, m.Timestamp)
}

// CloneAll copies a collection element by element. A nil input yields an
// empty, non-nil slice.
func CloneAll(ms []Metric) []Metric {
	out := make([]Metric, len(ms))
	for i, m := range ms {
		out[i] = m.Clone()
	}
	return out
}

// SortByTimestamp orders ms in place by ascending timestamp, keeping the
// relative order of equal timestamps.
func SortByTimestamp(ms []Metric) {
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].Timestamp < ms[j].Timestamp })
}

// GroupByLabel partitions labeled metrics by label. The grouped copies carry
// no label; metrics without a label are skipped.
func GroupByLabel(ms []Metric) map[string][]Metric {
	out := make(map[string][]Metric)
	for _, m := range ms {
		l, ok := m.LabelValue()
		if !ok {
			continue
		}
		out[l] = append(out[l], New(m.Value, m.Timestamp))
	}
	return out
}

var (
	ErrBeforeEpoch = errors.New("metric: timestamp before unix epoch")
	ErrFuture      = errors.New("metric: timestamp in the future")
)

// Validate applies ingestion rules: the timestamp must not precede the Unix
// epoch nor lie after now.
func (m Metric) Validate(now time.Time) error {
	if m.Timestamp < 0 {
		return fmt.Errorf("%w: %d", ErrBeforeEpoch, m.Timestamp)
	}
	if m.Timestamp > now.Unix() {
		return fmt.Errorf("%w: %d", ErrFuture, m.Timestamp)
	}
	return nil
}
