package service

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/nahkd123/stonks-sub001/pkg/market"
)

// Factory constructs a Service for a catalogue.
type Factory func(catalogue *market.Catalogue, logger zerolog.Logger) (Service, error)

// Registry maps provider names to Service constructors. It is an
// explicit value populated during application wiring and passed where
// needed, rather than a package-level static registration.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a named provider. Registering a name twice is an error.
func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return ErrProviderExists
	}
	r.factories[name] = factory
	return nil
}

// New constructs a Service from the named provider.
func (r *Registry) New(name string, catalogue *market.Catalogue, logger zerolog.Logger) (Service, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrUnknownProvider
	}
	return factory(catalogue, logger)
}

// Providers returns the registered provider names, sorted.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
