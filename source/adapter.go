// Package source loads the metric collection a pipeline runs over.
package source

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"metricquery/internal/metric"
)

// Config is what the run file says about a source.
type Config struct {
	// Path is driver specific: the metrics file for "file", the client
	// config for "kafka".
	Path     string
	Validate bool
}

// Adapter produces one fully materialized collection per Load.
type Adapter interface {
	Configure(Config) error
	Load(context.Context) ([]metric.Metric, error)
	Close() error
}

// Factory builds an Adapter.
type Factory func() Adapter

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
)

// Register is called from each driver's init().
func Register(name string, f Factory) {
	mu.Lock()
	registry[name] = f
	mu.Unlock()
}

// NewAdapter returns a driver by name ("file", "kafka").
func NewAdapter(name string) (Adapter, error) {
	mu.RLock()
	f, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("source: unsupported driver %q", name)
	}
	return f(), nil
}

// Drivers lists the registered driver names.
func Drivers() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ValidateAll checks every metric against now and reports the first failure
// with its index.
func ValidateAll(ms []metric.Metric, now time.Time) error {
	for i, m := range ms {
		if err := m.Validate(now); err != nil {
			return fmt.Errorf("source: metric %d (%s): %w", i, m, err)
		}
	}
	return nil
}
