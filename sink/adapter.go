package sink

import (
	"fmt"
	"sort"
	"sync"

	"metricquery/internal/metric"
)

// Adapter is the common behaviour every sink exposes.
type Adapter interface {
	Configure(any) error           // driver-specific config struct
	Push(ms []metric.Metric) error // consume one pipeline result
	Close() error                  // idempotent
}

type factory = func() Adapter

var (
	mu  sync.RWMutex
	reg = map[string]factory{}
)

func Register(name string, f factory) {
	mu.Lock()
	reg[name] = f
	mu.Unlock()
}

func NewAdapter(name string) (Adapter, error) {
	mu.RLock()
	f, ok := reg[name]
	mu.RUnlock()
	if ok {
		return f(), nil
	}
	return nil, fmt.Errorf("unknown sink %q", name)
}

// Names lists the registered sinks.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(reg))
	for name := range reg {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
