// Package file loads metrics from a JSON or YAML document on disk, either a
// bare list or an object with a "metrics" list:
//
//	[{"value": 10, "timestamp": 1672531200, "label": "cpu"}]
package file

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"metricquery/internal/logging"
	"metricquery/internal/metric"
	"metricquery/source"
)

// record requires value and timestamp to be present.
type record struct {
	Value     *int64  `yaml:"value"`
	Timestamp *int64  `yaml:"timestamp"`
	Label     *string `yaml:"label"`
}

type document struct {
	Metrics []record `yaml:"metrics"`
}

type driver struct {
	cfg source.Config
	now func() time.Time
}

func (d *driver) Configure(cfg source.Config) error {
	if cfg.Path == "" {
		return fmt.Errorf("file-source: path required")
	}
	d.cfg = cfg
	if d.now == nil {
		d.now = time.Now
	}
	return nil
}

func (d *driver) Load(ctx context.Context) ([]metric.Metric, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(d.cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("file-source: %w", err)
	}
	ms, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("file-source: %s: %w", d.cfg.Path, err)
	}
	if d.cfg.Validate {
		if err := source.ValidateAll(ms, d.now()); err != nil {
			return nil, err
		}
	}
	logging.With("file-source").Debug("loaded metrics", "path", d.cfg.Path, "count", len(ms))
	return ms, nil
}

func (d *driver) Close() error { return nil }

// Decode parses a metrics document. JSON input is read as YAML.
func Decode(raw []byte) ([]metric.Metric, error) {
	var recs []record
	if err := yaml.Unmarshal(raw, &recs); err != nil {
		var doc document
		if err2 := yaml.Unmarshal(raw, &doc); err2 != nil {
			return nil, err
		}
		recs = doc.Metrics
	}

	out := make([]metric.Metric, 0, len(recs))
	for i, r := range recs {
		if r.Value == nil || r.Timestamp == nil {
			return nil, fmt.Errorf("metric %d: value and timestamp are required", i)
		}
		out = append(out, metric.Metric{Value: *r.Value, Timestamp: *r.Timestamp, Label: r.Label})
	}
	return out, nil
}

func init() {
	source.Register("file", func() source.Adapter { return &driver{} })
}
