package stdout

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"metricquery/internal/metric"
	"metricquery/sink"
)

type Config struct {
	// Pretty prints one human-readable line per metric instead of JSON.
	Pretty bool `yaml:"pretty"`

	// Output defaults to os.Stdout.
	Output io.Writer `yaml:"-"`
}

type driver struct {
	cfg Config

	mu  sync.Mutex // serializes writes
	enc *json.Encoder
	out io.Writer
}

func (d *driver) Configure(raw any) error {
	c, ok := raw.(Config)
	if !ok {
		return fmt.Errorf("stdout-sink: expected Config, got %T", raw)
	}
	d.cfg = c
	d.out = c.Output
	if d.out == nil {
		d.out = os.Stdout
	}
	d.enc = json.NewEncoder(d.out)
	return nil
}

func (d *driver) Push(ms []metric.Metric) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.out == nil {
		return fmt.Errorf("stdout-sink: not configured")
	}
	for _, m := range ms {
		if d.cfg.Pretty {
			if _, err := fmt.Fprintf(d.out, "%s  %s\n", m.Time().Format(time.RFC3339), m); err != nil {
				return fmt.Errorf("stdout-sink: %w", err)
			}
			continue
		}
		if err := d.enc.Encode(m); err != nil {
			return fmt.Errorf("stdout-sink: %w", err)
		}
	}
	return nil
}

func (d *driver) Close() error { return nil }

func init() {
	sink.Register("stdout", func() sink.Adapter { return &driver{} })
}
