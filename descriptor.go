package rts

import (
	"errors"
	"fmt"
	"sort"
)

// TargetDescriptor is the immutable description of one hardware variant's
// runtime build inputs. All accessors return copies.
type TargetDescriptor struct {
	name        string
	caps        Capabilities
	ioMode      IOMode
	loaders     []Loader
	systemFiles map[Profile]string
	core        []string
	extended    []string
	linker      []string
	lineage     *Lineage
	provenance  map[string]Trace
}

// NewDescriptor builds a root descriptor, typically an architecture class.
func NewDescriptor(def Definition, opts ...Option) (*TargetDescriptor, error) {
	lineage, err := NewLineage(NewLayer(def))
	if err != nil {
		return nil, err
	}
	return build(lineage, applyOptions(opts))
}

// Specialize derives a descriptor from base. Lists in def are appended to the
// inherited ones, scalars set in def override, everything else is inherited.
func Specialize(base *TargetDescriptor, def Definition, opts ...Option) (*TargetDescriptor, error) {
	if base == nil {
		return nil, invalidDefinition(def.Name, "base descriptor is nil")
	}
	lineage, err := base.lineage.Extend(def)
	if err != nil {
		return nil, err
	}
	return build(lineage, applyOptions(opts))
}

// BuildLineage builds the descriptor described by lineage.
func BuildLineage(lineage *Lineage, opts ...Option) (*TargetDescriptor, error) {
	if lineage == nil || lineage.Len() == 0 {
		return nil, fmt.Errorf("%w: empty lineage", ErrInvalidDefinition)
	}
	return build(lineage, applyOptions(opts))
}

func build(lineage *Lineage, cfg config) (*TargetDescriptor, error) {
	// Rules see the final capabilities, so the flat merge runs first.
	flat := lineage.Flatten()
	if flat.Name == "" {
		return nil, ErrLayerNameRequired
	}

	ctx := RuleContext{
		Target:       flat.Name,
		Capabilities: flat.Capabilities,
		Profiles:     cfg.profilesOrDefault(),
		Args:         cfg.ruleArgs,
	}
	lineageNames := stringsToAny(lineage.Names())

	layers := lineage.Layers()
	expanded := make([]Definition, len(layers))
	provenance := make(map[string]Trace)
	for i, layer := range layers {
		def := layer.Definition
		record := func(list string, names []string, rule string) {
			for _, name := range names {
				if _, seen := provenance[name]; seen {
					continue
				}
				provenance[name] = Trace{File: name, List: list, Layer: layer.Name, Rule: rule}
			}
		}
		record(ListCore, def.CoreSources, "")
		record(ListExtended, def.ExtendedSources, "")
		record(ListLinker, def.LinkerScripts, "")

		ctx.Metadata = map[string]any{"layer": layer.Name, "lineage": lineageNames}
		for _, rule := range def.Rules {
			matched, err := cfg.evaluateRule(ctx, rule.When)
			if err != nil {
				return nil, inLayer(err, layer.Name)
			}
			if !matched {
				continue
			}
			def.CoreSources = append(def.CoreSources, rule.Core...)
			def.ExtendedSources = append(def.ExtendedSources, rule.Extended...)
			def.LinkerScripts = append(def.LinkerScripts, rule.LinkerScripts...)
			record(ListCore, rule.Core, rule.When)
			record(ListExtended, rule.Extended, rule.When)
			record(ListLinker, rule.LinkerScripts, rule.When)
		}
		def.Rules = nil
		expanded[len(layers)-1-i] = def
	}
	merged := mergeDefinitions(expanded)

	desc := &TargetDescriptor{
		name:        merged.Name,
		caps:        merged.Capabilities.clone(),
		ioMode:      merged.IOMode,
		loaders:     uniqueLoaders(merged.Loaders),
		systemFiles: copySystemFiles(merged.SystemFiles),
		core:        unique(merged.CoreSources, nil),
		linker:      unique(merged.LinkerScripts, nil),
		lineage:     lineage,
		provenance:  provenance,
	}
	desc.extended = unique(merged.ExtendedSources, desc.core)
	for profile, file := range desc.systemFiles {
		if file == "" {
			return nil, invalidDefinition(desc.name, "empty system file for profile %q", profile)
		}
	}
	return desc, nil
}

// Name returns the target identifier.
func (d *TargetDescriptor) Name() string {
	return d.name
}

// Capabilities returns the processor capabilities.
func (d *TargetDescriptor) Capabilities() Capabilities {
	return d.caps.clone()
}

// IOMode returns the I/O backend.
func (d *TargetDescriptor) IOMode() IOMode {
	return d.ioMode
}

// Loaders returns the supported load mechanisms in order.
func (d *TargetDescriptor) Loaders() []Loader {
	return append([]Loader(nil), d.loaders...)
}

// SupportsLoader reports whether loader is one of the descriptor's loaders.
func (d *TargetDescriptor) SupportsLoader(loader Loader) bool {
	for _, candidate := range d.loaders {
		if candidate == loader {
			return true
		}
	}
	return false
}

// ProfileSystemFiles returns the profile to system file mapping.
func (d *TargetDescriptor) ProfileSystemFiles() map[Profile]string {
	return copySystemFiles(d.systemFiles)
}

// Profiles returns the profiles the descriptor has a system file for, in
// default order followed by any others sorted by name.
func (d *TargetDescriptor) Profiles() ProfileSet {
	out := make(ProfileSet, 0, len(d.systemFiles))
	for _, p := range DefaultProfiles() {
		if _, ok := d.systemFiles[p]; ok {
			out = append(out, p)
		}
	}
	var extra []string
	for p := range d.systemFiles {
		if !DefaultProfiles().Contains(p) {
			extra = append(extra, string(p))
		}
	}
	sort.Strings(extra)
	for _, p := range extra {
		out = append(out, Profile(p))
	}
	return out
}

// CoreSources returns the sources needed regardless of tasking support.
func (d *TargetDescriptor) CoreSources() []string {
	return append([]string(nil), d.core...)
}

// ExtendedSources returns the sources needed only by tasking profiles.
func (d *TargetDescriptor) ExtendedSources() []string {
	return append([]string(nil), d.extended...)
}

// LinkerScripts returns the linker scripts, inherited ones first.
func (d *TargetDescriptor) LinkerScripts() []string {
	return append([]string(nil), d.linker...)
}

// SourcesFor returns the core sources, followed by the extended sources when
// tasking is requested.
func (d *TargetDescriptor) SourcesFor(tasking bool) []string {
	out := make([]string, 0, len(d.core)+len(d.extended))
	out = append(out, d.core...)
	if tasking {
		out = append(out, d.extended...)
	}
	return out
}

// SystemFileFor returns the system configuration file implementing profile.
func (d *TargetDescriptor) SystemFileFor(profile Profile) (string, error) {
	file, ok := d.systemFiles[profile]
	if !ok || file == "" {
		return "", &ProfileNotSupportedError{Target: d.name, Profile: profile}
	}
	return file, nil
}

// Validate checks that every profile in profiles has a system file.
func (d *TargetDescriptor) Validate(profiles ProfileSet) error {
	var errs []error
	for _, profile := range profiles {
		if _, err := d.SystemFileFor(profile); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Lineage returns the names of the definitions the descriptor was built from,
// most general first.
func (d *TargetDescriptor) Lineage() []string {
	return d.lineage.Names()
}

// Definition returns the merged definition the descriptor was built from,
// without rules.
func (d *TargetDescriptor) Definition() Definition {
	return Definition{
		Name:            d.name,
		Capabilities:    d.caps.clone(),
		IOMode:          d.ioMode,
		Loaders:         d.Loaders(),
		SystemFiles:     d.ProfileSystemFiles(),
		CoreSources:     d.CoreSources(),
		ExtendedSources: d.ExtendedSources(),
		LinkerScripts:   d.LinkerScripts(),
	}
}

func unique(names, exclude []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(names)+len(exclude))
	for _, name := range exclude {
		seen[name] = struct{}{}
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func uniqueLoaders(loaders []Loader) []Loader {
	if len(loaders) == 0 {
		return nil
	}
	out := make([]Loader, 0, len(loaders))
	for _, loader := range loaders {
		dup := false
		for _, existing := range out {
			if existing == loader {
				dup = true
				break
			}
		}
		if !dup && loader != "" {
			out = append(out, loader)
		}
	}
	return out
}

func copySystemFiles(files map[Profile]string) map[Profile]string {
	if len(files) == 0 {
		return map[Profile]string{}
	}
	out := make(map[Profile]string, len(files))
	for profile, file := range files {
		out[profile] = file
	}
	return out
}
