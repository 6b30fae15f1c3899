package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	rts "github.com/goliatone/go-rts"
)

var (
	// ErrNotFound reports a definition missing from the store.
	ErrNotFound = errors.New("catalog: definition not found")
	// ErrDefinitionCycle reports a Base chain that loops back on itself.
	ErrDefinitionCycle = errors.New("catalog: definition cycle")
	// ErrETagMismatch reports a concurrent modification detected by Mutate.
	ErrETagMismatch = errors.New("catalog: etag mismatch")
)

// Meta is storage-owned metadata used for provenance and concurrency control.
type Meta struct {
	Revision  string    `json:"revision,omitempty"`
	ETag      string    `json:"etag,omitempty"`
	Source    string    `json:"source,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Store loads and saves one definition per name.
type Store interface {
	Load(ctx context.Context, name string) (def rts.Definition, meta Meta, ok bool, err error)
	Save(ctx context.Context, def rts.Definition, meta Meta) (Meta, error)
	List(ctx context.Context) ([]string, error)
}

// Mutator edits a definition in place.
type Mutator func(*rts.Definition) error

// Resolver builds descriptors from the definitions held by Store.
type Resolver struct {
	Store   Store
	Options []rts.Option
}

// Chain returns the definitions from the root of name's Base chain down to
// name itself.
func (r Resolver) Chain(ctx context.Context, name string) ([]rts.Definition, error) {
	if r.Store == nil {
		return nil, fmt.Errorf("catalog: store is required")
	}
	if name == "" {
		return nil, fmt.Errorf("catalog: name is required")
	}

	var chain []rts.Definition
	seen := map[string]struct{}{}
	for current := name; current != ""; {
		if _, ok := seen[current]; ok {
			return nil, fmt.Errorf("%w: %q reached again from %q", ErrDefinitionCycle, current, name)
		}
		seen[current] = struct{}{}

		def, _, ok, err := r.Store.Load(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("catalog: load %q: %w", current, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %q (needed by %q)", ErrNotFound, current, name)
		}
		if def.Name == "" {
			def.Name = current
		}
		chain = append(chain, def)
		current = def.Base
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// Descriptor builds the descriptor named name.
func (r Resolver) Descriptor(ctx context.Context, name string) (*rts.TargetDescriptor, error) {
	lineage, err := r.lineage(ctx, name)
	if err != nil {
		return nil, err
	}
	return rts.BuildLineage(lineage, r.Options...)
}

func (r Resolver) lineage(ctx context.Context, name string) (*rts.Lineage, error) {
	chain, err := r.Chain(ctx, name)
	if err != nil {
		return nil, err
	}
	layers := make([]rts.Layer, len(chain))
	for i, def := range chain {
		layers[i] = rts.NewLayer(def)
	}
	lineage, err := rts.NewLineage(layers...)
	if err != nil {
		return nil, fmt.Errorf("catalog: lineage for %q: %w", name, err)
	}
	return lineage, nil
}

// Registry loads every named definition chain, or every stored one when
// names is empty, and returns a registry serving them. Each chain is built
// once up front so broken definitions fail here, and the registry factories
// build a fresh descriptor on every resolve.
func (r Resolver) Registry(ctx context.Context, names ...string) (*rts.Registry, error) {
	if r.Store == nil {
		return nil, fmt.Errorf("catalog: store is required")
	}
	if len(names) == 0 {
		listed, err := r.Store.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("catalog: list: %w", err)
		}
		names = listed
	}

	registry := rts.NewRegistry()
	var errs []error
	for _, name := range names {
		lineage, err := r.lineage(ctx, name)
		if err == nil {
			_, err = rts.BuildLineage(lineage, r.Options...)
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := registry.Register(name, r.factory(lineage)); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return registry, nil
}

// Mutate loads one definition, applies fn, checks that the result still
// builds and saves it. A non-empty meta.ETag must match the stored one.
func (r Resolver) Mutate(ctx context.Context, name string, meta Meta, fn Mutator) (*rts.TargetDescriptor, Meta, error) {
	if r.Store == nil {
		return nil, Meta{}, fmt.Errorf("catalog: store is required")
	}
	if name == "" {
		return nil, Meta{}, fmt.Errorf("catalog: name is required")
	}
	if fn == nil {
		return nil, Meta{}, fmt.Errorf("catalog: mutator is required")
	}

	def, loadedMeta, ok, err := r.Store.Load(ctx, name)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("catalog: load %q: %w", name, err)
	}
	if !ok {
		def = rts.Definition{Name: name}
		loadedMeta = Meta{}
	}
	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return nil, loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	if err := fn(&def); err != nil {
		return nil, loadedMeta, err
	}
	if def.Name != name {
		return nil, loadedMeta, fmt.Errorf("catalog: mutator renamed %q to %q", name, def.Name)
	}

	// Validate against the stored chain before persisting anything.
	candidate := Resolver{Store: overlayStore{Store: r.Store, def: def}, Options: r.Options}
	if _, err := candidate.Descriptor(ctx, name); err != nil {
		return nil, loadedMeta, err
	}

	saved, err := r.Store.Save(ctx, def, mergeMeta(loadedMeta, meta))
	if err != nil {
		return nil, loadedMeta, fmt.Errorf("catalog: save %q: %w", name, err)
	}
	desc, err := r.Descriptor(ctx, name)
	if err != nil {
		return nil, saved, err
	}
	return desc, saved, nil
}

func (r Resolver) factory(lineage *rts.Lineage) rts.Factory {
	return func() (*rts.TargetDescriptor, error) {
		return rts.BuildLineage(lineage, r.Options...)
	}
}

// overlayStore answers loads of def.Name with def and everything else from
// the wrapped store.
type overlayStore struct {
	Store
	def rts.Definition
}

func (s overlayStore) Load(ctx context.Context, name string) (rts.Definition, Meta, bool, error) {
	if name == s.def.Name {
		return s.def, Meta{}, true, nil
	}
	return s.Store.Load(ctx, name)
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.Revision != "" {
		out.Revision = override.Revision
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if override.Source != "" {
		out.Source = override.Source
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	return out
}
