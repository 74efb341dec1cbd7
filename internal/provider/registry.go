package provider

import (
	"fmt"
	"sort"
	"sync"
)

// RuntimeFactory is a constructor that creates a Runtime.
type RuntimeFactory func() Runtime

// Registry maps provider types to their runtime factories.
type Registry struct {
	mu        sync.Mutex
	factories map[Type]RuntimeFactory
	runtimes  map[Type]Runtime
}

// NewRegistry creates a Registry pre-registered with the built-in runtimes.
func NewRegistry(locator *Locator, opts ...RegistryOption) *Registry {
	cfg := registryConfig{}
	for _, o := range opts {
		o(&cfg)
	}
	r := &Registry{
		factories: make(map[Type]RuntimeFactory),
		runtimes:  make(map[Type]Runtime),
	}
	r.factories[TypeClaudeCode] = func() Runtime { return NewClaudeRuntime(locator, cfg.logger) }
	r.factories[TypeOllama] = func() Runtime { return NewOllamaRuntime(locator, cfg.logger) }
	return r
}

// Register associates a factory with a provider type, replacing any
// existing one.
func (r *Registry) Register(t Type, f RuntimeFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[t] = f
	delete(r.runtimes, t)
}

// Runtime returns the runtime for t, creating it on first use.
func (r *Registry) Runtime(t Type) (Runtime, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rt, ok := r.runtimes[t]; ok {
		return rt, nil
	}
	factory, ok := r.factories[t]
	if !ok {
		return nil, fmt.Errorf("no runtime registered for provider type %q", t)
	}
	rt := factory()
	r.runtimes[t] = rt
	return rt, nil
}

// Types returns the registered provider types in sorted order.
func (r *Registry) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]Type, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
