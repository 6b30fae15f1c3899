package rts

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Factory builds a fresh descriptor.
type Factory func() (*TargetDescriptor, error)

// ResolverFunc maps a target identifier to a descriptor.
type ResolverFunc func(id string) (*TargetDescriptor, error)

// Registry maps target identifiers to descriptor factories. It performs no
// I/O; every Resolve call runs the factory.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register stores factory under id. Ids are case sensitive and may only be
// registered once.
func (r *Registry) Register(id string, factory Factory) error {
	if id == "" {
		return fmt.Errorf("rts: target id must not be empty")
	}
	if factory == nil {
		return fmt.Errorf("rts: factory for target %q is nil", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.factories == nil {
		r.factories = make(map[string]Factory)
	}
	if _, exists := r.factories[id]; exists {
		return fmt.Errorf("rts: target %q already registered", id)
	}
	r.factories[id] = factory
	return nil
}

// MustRegister is Register for package initialisation; it panics on error.
func (r *Registry) MustRegister(id string, factory Factory) {
	if err := r.Register(id, factory); err != nil {
		panic(err)
	}
}

// Names returns the registered ids sorted alphabetically.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for id := range r.factories {
		names = append(names, id)
	}
	sort.Strings(names)
	return names
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[id]
	return ok
}

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	out := NewRegistry()
	if r == nil {
		return out
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, factory := range r.factories {
		out.factories[id] = factory
	}
	return out
}

// Resolve builds the descriptor registered under id. The descriptor must carry
// id as its name.
func (r *Registry) Resolve(id string) (*TargetDescriptor, error) {
	var factory Factory
	if r != nil && id != "" {
		r.mu.RLock()
		factory = r.factories[id]
		r.mu.RUnlock()
	}
	if factory == nil {
		return nil, &UnknownTargetError{ID: id, Known: r.Names()}
	}
	desc, err := factory()
	if err != nil {
		return nil, fmt.Errorf("rts: build target %q: %w", id, err)
	}
	if desc == nil {
		return nil, invalidDefinition(id, "factory returned no descriptor")
	}
	if desc.Name() != id {
		return nil, invalidDefinition(id, "factory built descriptor named %q", desc.Name())
	}
	return desc, nil
}

// Resolver exposes Resolve as a ResolverFunc.
func (r *Registry) Resolver() ResolverFunc {
	return r.Resolve
}

// WithFallback returns a resolver that consults the registry first and defers
// to next only when the id is unknown here. Any other failure is returned
// as is.
func (r *Registry) WithFallback(next ResolverFunc) ResolverFunc {
	return Chain(r.Resolve, next)
}

// Chain tries resolvers in order, moving on only when a resolver reports
// ErrUnknownTarget. When every resolver fails the known ids are merged into a
// single UnknownTargetError.
func Chain(resolvers ...ResolverFunc) ResolverFunc {
	return func(id string) (*TargetDescriptor, error) {
		var known []string
		for _, resolve := range resolvers {
			if resolve == nil {
				continue
			}
			desc, err := resolve(id)
			if err == nil {
				return desc, nil
			}
			if !errors.Is(err, ErrUnknownTarget) {
				return nil, err
			}
			var unknown *UnknownTargetError
			if errors.As(err, &unknown) {
				known = append(known, unknown.Known...)
			}
		}
		return nil, &UnknownTargetError{ID: id, Known: unique(sortedCopy(known), nil)}
	}
}

func sortedCopy(values []string) []string {
	out := append([]string(nil), values...)
	sort.Strings(out)
	return out
}
