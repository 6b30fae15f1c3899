// Package manifest lists the files a runtime build for one target and profile
// is made of, with their locations in the source overlay.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"

	rts "github.com/goliatone/go-rts"
	toml "github.com/pelletier/go-toml"
)

// Lookup turns a relative source name into a file location. *rts.SearchPath
// satisfies it; wrap Environment.LookupSource in a LookupFunc to log lookups.
type Lookup interface {
	Resolve(name string) (string, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(name string) (string, error)

// Resolve implements Lookup.
func (f LookupFunc) Resolve(name string) (string, error) {
	return f(name)
}

// File is one entry of a manifest. Path is empty when the file could not be
// located and missing files were allowed.
type File struct {
	Name string `json:"name" toml:"name"`
	Path string `json:"path,omitempty" toml:"path,omitempty"`
}

// Missing reports whether the file was not found in the overlay.
func (f File) Missing() bool {
	return f.Path == ""
}

// Manifest is the resolved file set of a descriptor for one profile.
type Manifest struct {
	Target        string `json:"target" toml:"target"`
	Profile       string `json:"profile" toml:"profile"`
	Tasking       bool   `json:"tasking" toml:"tasking"`
	SystemFile    File   `json:"system_file" toml:"system_file"`
	Sources       []File `json:"sources,omitempty" toml:"sources,omitempty"`
	LinkerScripts []File `json:"linker_scripts,omitempty" toml:"linker_scripts,omitempty"`
}

// Option configures Build.
type Option func(*buildConfig)

type buildConfig struct {
	allowMissing bool
}

// AllowMissing keeps files the overlay cannot locate in the manifest, with an
// empty path, instead of failing.
func AllowMissing() Option {
	return func(cfg *buildConfig) {
		cfg.allowMissing = true
	}
}

// Build resolves every file desc needs for profile through lookup. All missing
// files are reported together.
func Build(desc *rts.TargetDescriptor, profile rts.Profile, lookup Lookup, opts ...Option) (*Manifest, error) {
	if desc == nil {
		return nil, fmt.Errorf("manifest: descriptor is nil")
	}
	if lookup == nil {
		return nil, fmt.Errorf("manifest: lookup is nil")
	}
	cfg := buildConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	systemFile, err := desc.SystemFileFor(profile)
	if err != nil {
		return nil, err
	}

	r := resolver{lookup: lookup, allowMissing: cfg.allowMissing}
	m := &Manifest{
		Target:     desc.Name(),
		Profile:    profile.String(),
		Tasking:    profile.Tasking(),
		SystemFile: r.resolve(systemFile),
	}
	for _, name := range desc.SourcesFor(profile.Tasking()) {
		m.Sources = append(m.Sources, r.resolve(name))
	}
	for _, name := range desc.LinkerScripts() {
		m.LinkerScripts = append(m.LinkerScripts, r.resolve(name))
	}
	if len(r.errs) > 0 {
		return nil, fmt.Errorf("manifest: %s/%s: %w", m.Target, m.Profile, errors.Join(r.errs...))
	}
	return m, nil
}

type resolver struct {
	lookup       Lookup
	allowMissing bool
	errs         []error
}

func (r *resolver) resolve(name string) File {
	path, err := r.lookup.Resolve(name)
	if err == nil {
		return File{Name: name, Path: path}
	}
	if !(r.allowMissing && errors.Is(err, rts.ErrSourceNotFound)) {
		r.errs = append(r.errs, err)
	}
	return File{Name: name}
}

// Files returns every entry in build order: system file, sources, linker
// scripts.
func (m *Manifest) Files() []File {
	if m == nil {
		return nil
	}
	out := make([]File, 0, 1+len(m.Sources)+len(m.LinkerScripts))
	out = append(out, m.SystemFile)
	out = append(out, m.Sources...)
	out = append(out, m.LinkerScripts...)
	return out
}

// Missing returns the names of the entries without a location.
func (m *Manifest) Missing() []string {
	var out []string
	for _, file := range m.Files() {
		if file.Missing() {
			out = append(out, file.Name)
		}
	}
	return out
}

// Label identifies the manifest as target/profile.
func (m *Manifest) Label() string {
	if m == nil {
		return ""
	}
	return m.Target + "/" + m.Profile
}

// EncodeJSON renders m as indented JSON.
func EncodeJSON(m *Manifest) ([]byte, error) {
	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("manifest: encode json: %w", err)
	}
	return out, nil
}

// DecodeJSON parses a manifest produced by EncodeJSON.
func DecodeJSON(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: decode json: %w", err)
	}
	return &m, nil
}

// EncodeTOML renders m as a TOML document.
func EncodeTOML(m *Manifest) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("manifest: encode toml: manifest is nil")
	}
	out, err := toml.Marshal(*m)
	if err != nil {
		return nil, fmt.Errorf("manifest: encode toml: %w", err)
	}
	return out, nil
}

// DecodeTOML parses a manifest produced by EncodeTOML.
func DecodeTOML(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: decode toml: %w", err)
	}
	return &m, nil
}
