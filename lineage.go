package rts

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-rts/layering"
)

var (
	// ErrLayerNameRequired indicates a definition without a name.
	ErrLayerNameRequired = errors.New("rts: lineage layer name must be provided")
	// ErrDuplicateLayerName indicates the same definition twice in a lineage.
	ErrDuplicateLayerName = errors.New("rts: lineage layer names must be unique")
)

// Layer is one definition inside a lineage.
type Layer struct {
	Name       string
	Definition Definition
}

// NewLayer wraps a deep copy of def.
func NewLayer(def Definition) Layer {
	return Layer{
		Name:       def.Name,
		Definition: layering.Clone(def),
	}
}

// Lineage is the ordered chain of definitions a descriptor is built from, the
// most general first and the most specific last.
type Lineage struct {
	layers []Layer
}

// NewLineage validates and copies layers.
func NewLineage(layers ...Layer) (*Lineage, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("%w: lineage must include at least one layer", ErrInvalidDefinition)
	}
	seen := make(map[string]struct{}, len(layers))
	copied := make([]Layer, len(layers))
	for i, layer := range layers {
		if layer.Name == "" {
			return nil, ErrLayerNameRequired
		}
		if _, ok := seen[layer.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLayerName, layer.Name)
		}
		seen[layer.Name] = struct{}{}
		copied[i] = cloneLayer(layer)
	}
	return &Lineage{layers: copied}, nil
}

// Layers returns a copy of the layers, most general first.
func (l *Lineage) Layers() []Layer {
	if l == nil || len(l.layers) == 0 {
		return nil
	}
	out := make([]Layer, len(l.layers))
	for i := range l.layers {
		out[i] = cloneLayer(l.layers[i])
	}
	return out
}

// Names returns the layer names, most general first.
func (l *Lineage) Names() []string {
	if l == nil {
		return nil
	}
	names := make([]string, len(l.layers))
	for i, layer := range l.layers {
		names[i] = layer.Name
	}
	return names
}

// Len returns the number of layers.
func (l *Lineage) Len() int {
	if l == nil {
		return 0
	}
	return len(l.layers)
}

// Extend returns a new lineage with def appended as the most specific layer.
func (l *Lineage) Extend(def Definition) (*Lineage, error) {
	layers := l.Layers()
	layers = append(layers, NewLayer(def))
	return NewLineage(layers...)
}

// Flatten merges every layer into one definition without evaluating rules.
// Lists append in lineage order, set scalars override.
func (l *Lineage) Flatten() Definition {
	if l == nil {
		return Definition{}
	}
	defs := make([]Definition, len(l.layers))
	for i := range l.layers {
		// layering.Merge expects the strongest layer first.
		defs[len(l.layers)-1-i] = l.layers[i].Definition
	}
	return mergeDefinitions(defs)
}

func mergeDefinitions(strongestFirst []Definition) Definition {
	return layering.Merge(strongestFirst,
		layering.WithSliceStrategy(layering.SliceAppend),
		layering.WithZeroAsUnset(),
	)
}

func cloneLayer(layer Layer) Layer {
	return Layer{
		Name:       layer.Name,
		Definition: layering.Clone(layer.Definition),
	}
}
