package plugin

import (
	"errors"
	"sort"
	"sync"
)

var ErrUnnamedPlugin = errors.New("plugin: name required")

// Registry maps names to plugin instances, one namespace per capability.
// Registering an existing name replaces the previous entry. A Registry is
// safe for concurrent use.
type Registry struct {
	mu            sync.RWMutex
	filters       map[string]Filter
	aggregations  map[string]Aggregation
	timeGroupings map[string]TimeGrouping
}

// NewRegistry allocates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		filters:       make(map[string]Filter),
		aggregations:  make(map[string]Aggregation),
		timeGroupings: make(map[string]TimeGrouping),
	}
}

// NewBuiltinRegistry allocates a registry holding every built-in plugin.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	RegisterBuiltins(r)
	return r
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide registry, populated with the built-ins on
// first use.
func Default() *Registry {
	defaultOnce.Do(func() { defaultReg = NewBuiltinRegistry() })
	return defaultReg
}

// RegisterBuiltins adds the built-in plugins to r. Comparison filters are
// registered with a zero threshold and label filters with no targets; both
// are rebound when a pipeline step is built.
func RegisterBuiltins(r *Registry) {
	for _, ctor := range comparisonKinds {
		_ = r.RegisterFilter(ctor(0))
	}
	_ = r.RegisterFilter(NewLabelEqual(""))
	_ = r.RegisterFilter(NewLabelIn())

	for _, a := range aggregationKinds {
		_ = r.RegisterAggregation(a)
	}
	for _, ctor := range groupingKinds {
		_ = r.RegisterTimeGrouping(ctor())
	}
}

func (r *Registry) RegisterFilter(f Filter) error {
	if f == nil || f.Name() == "" {
		return ErrUnnamedPlugin
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters[f.Name()] = f
	return nil
}

func (r *Registry) RegisterAggregation(a Aggregation) error {
	if a == nil || a.Name() == "" {
		return ErrUnnamedPlugin
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aggregations[a.Name()] = a
	return nil
}

func (r *Registry) RegisterTimeGrouping(g TimeGrouping) error {
	if g == nil || g.Name() == "" {
		return ErrUnnamedPlugin
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeGroupings[g.Name()] = g
	return nil
}

func (r *Registry) Filter(name string) (Filter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.filters[name]
	return f, ok
}

func (r *Registry) Aggregation(name string) (Aggregation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.aggregations[name]
	return a, ok
}

func (r *Registry) TimeGrouping(name string) (TimeGrouping, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.timeGroupings[name]
	return g, ok
}

func (r *Registry) HasFilter(name string) bool {
	_, ok := r.Filter(name)
	return ok
}

func (r *Registry) HasAggregation(name string) bool {
	_, ok := r.Aggregation(name)
	return ok
}

func (r *Registry) HasTimeGrouping(name string) bool {
	_, ok := r.TimeGrouping(name)
	return ok
}

// FilterNames returns the registered filter names, sorted.
func (r *Registry) FilterNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return names(r.filters)
}

// AggregationNames returns the registered aggregation names, sorted.
func (r *Registry) AggregationNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return names(r.aggregations)
}

// TimeGroupingNames returns the registered time grouping names, sorted.
func (r *Registry) TimeGroupingNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return names(r.timeGroupings)
}

func names[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for name := range m {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
