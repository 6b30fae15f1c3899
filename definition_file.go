package rts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-rts/internal/hydrate"
	toml "github.com/pelletier/go-toml"
)

// definitionFile is the TOML shape of a Definition:
//
//	name = "stm32g4xx"
//	base = "cortex-m4f"
//	io = "semihosting"
//	loaders = ["ROM", "RAM"]
//
//	[capabilities]
//	cpu = "cortex-m4"
//
//	[system_files]
//	light = "system-xi-arm.ads"
//
//	[sources]
//	core = ["stm32g4_src/setup_pll.adb"]
//	extended = ["svd/a-intnam-G474.ads"]
//	linker_scripts = ["stm32g4_src/ld/common-ROM.ld"]
//
//	[[rule]]
//	when = 'cap.fpu != ""'
//	core = ["arm/fpu-init.S"]
type definitionFile struct {
	Name         string            `toml:"name"`
	Base         string            `toml:"base,omitempty"`
	IO           string            `toml:"io,omitempty"`
	Loaders      []string          `toml:"loaders,omitempty"`
	Capabilities Capabilities      `toml:"capabilities,omitempty"`
	SystemFiles  map[string]string `toml:"system_files,omitempty"`
	Sources      sourcesFile       `toml:"sources,omitempty"`
	Rules        []SourceRule      `toml:"rule,omitempty"`
}

type sourcesFile struct {
	Core          []string `toml:"core,omitempty"`
	Extended      []string `toml:"extended,omitempty"`
	LinkerScripts []string `toml:"linker_scripts,omitempty"`
}

// DefinitionOption configures definition decoding.
type DefinitionOption func(*definitionDecodeConfig)

type definitionDecodeConfig struct {
	strict      bool
	name        string
	source      string
	preHooks    []hydrate.PreHook
	allowCustom bool
}

// WithStrictKeys rejects keys the definition format does not know.
func WithStrictKeys() DefinitionOption {
	return func(cfg *definitionDecodeConfig) {
		cfg.strict = true
	}
}

// WithDefinitionName supplies the name used when the document has none, such
// as the stem of the file it was read from.
func WithDefinitionName(name string) DefinitionOption {
	return func(cfg *definitionDecodeConfig) {
		cfg.name = name
	}
}

// WithDefinitionSource labels decode errors with source.
func WithDefinitionSource(source string) DefinitionOption {
	return func(cfg *definitionDecodeConfig) {
		cfg.source = source
	}
}

// WithDefinitionPreHook lets callers rewrite the raw document before decoding.
func WithDefinitionPreHook(hook func(map[string]any) (map[string]any, error)) DefinitionOption {
	return func(cfg *definitionDecodeConfig) {
		if hook == nil {
			return
		}
		cfg.preHooks = append(cfg.preHooks, func(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
			return hook(payload)
		})
	}
}

// WithCustomProfiles accepts system file keys outside the default profiles.
func WithCustomProfiles() DefinitionOption {
	return func(cfg *definitionDecodeConfig) {
		cfg.allowCustom = true
	}
}

// ParseDefinition decodes a TOML definition document.
func ParseDefinition(data []byte, opts ...DefinitionOption) (Definition, error) {
	cfg := definitionDecodeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	decoderOpts := []hydrate.DecoderOption[definitionFile]{
		hydrate.WithPreHook[definitionFile](lowercaseSystemFileKeys),
	}
	for _, hook := range cfg.preHooks {
		decoderOpts = append(decoderOpts, hydrate.WithPreHook[definitionFile](hook))
	}
	if cfg.strict {
		decoderOpts = append(decoderOpts, hydrate.WithStrict[definitionFile]())
	}
	decoderOpts = append(decoderOpts, hydrate.WithPostHook[definitionFile](defaultName))

	ctx := hydrate.Context{Name: cfg.name, Source: cfg.source}
	file, err := hydrate.NewDecoder(decoderOpts...).DecodeBytes(ctx, data)
	if err != nil {
		return Definition{}, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	return file.definition(cfg.allowCustom)
}

// LoadDefinitionFile reads and decodes the definition stored at path. A
// document without a name takes the file stem.
func LoadDefinitionFile(path string, opts ...DefinitionOption) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("rts: read definition: %w", err)
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	opts = append([]DefinitionOption{WithDefinitionName(stem), WithDefinitionSource(path)}, opts...)
	return ParseDefinition(data, opts...)
}

// EncodeDefinition renders def in the TOML definition format.
func EncodeDefinition(def Definition) ([]byte, error) {
	file := definitionFile{
		Name:         def.Name,
		Base:         def.Base,
		Capabilities: def.Capabilities,
		Sources: sourcesFile{
			Core:          def.CoreSources,
			Extended:      def.ExtendedSources,
			LinkerScripts: def.LinkerScripts,
		},
		Rules: def.Rules,
	}
	if def.IOMode != IOModeUnset {
		file.IO = def.IOMode.String()
	}
	for _, loader := range def.Loaders {
		file.Loaders = append(file.Loaders, string(loader))
	}
	if len(def.SystemFiles) > 0 {
		file.SystemFiles = make(map[string]string, len(def.SystemFiles))
		for profile, name := range def.SystemFiles {
			file.SystemFiles[string(profile)] = name
		}
	}
	out, err := toml.Marshal(file)
	if err != nil {
		return nil, fmt.Errorf("rts: encode definition %q: %w", def.Name, err)
	}
	return out, nil
}

func (f definitionFile) definition(allowCustom bool) (Definition, error) {
	var errs []error
	mode, err := ParseIOMode(f.IO)
	if err != nil {
		errs = append(errs, err)
	}

	def := Definition{
		Name:            f.Name,
		Base:            f.Base,
		Capabilities:    f.Capabilities,
		IOMode:          mode,
		CoreSources:     f.Sources.Core,
		ExtendedSources: f.Sources.Extended,
		LinkerScripts:   f.Sources.LinkerScripts,
		Rules:           f.Rules,
	}
	for _, loader := range f.Loaders {
		parsed, err := parseLoader(loader)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		def.Loaders = append(def.Loaders, parsed)
	}
	if len(f.SystemFiles) > 0 {
		def.SystemFiles = make(map[Profile]string, len(f.SystemFiles))
		keys := make([]string, 0, len(f.SystemFiles))
		for key := range f.SystemFiles {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			profile, known := ParseProfile(key)
			if !known {
				if !allowCustom {
					errs = append(errs, fmt.Errorf("rts: unknown profile %q", key))
					continue
				}
				profile = Profile(key)
			}
			def.SystemFiles[profile] = f.SystemFiles[key]
		}
	}
	for i, rule := range f.Rules {
		if strings.TrimSpace(rule.When) == "" {
			errs = append(errs, fmt.Errorf("rts: rule %d has no condition", i))
		}
	}
	if len(errs) > 0 {
		return Definition{}, invalidDefinition(f.Name, "%v", errors.Join(errs...))
	}
	return def, nil
}

func parseLoader(value string) (Loader, error) {
	switch Loader(strings.ToUpper(strings.TrimSpace(value))) {
	case LoaderROM:
		return LoaderROM, nil
	case LoaderRAM:
		return LoaderRAM, nil
	case LoaderUser:
		return LoaderUser, nil
	default:
		return "", fmt.Errorf("rts: unknown loader %q", value)
	}
}

func lowercaseSystemFileKeys(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
	files, ok := payload["system_files"].(map[string]any)
	if !ok {
		return payload, nil
	}
	normalized := make(map[string]any, len(files))
	for key, value := range files {
		normalized[strings.ToLower(strings.TrimSpace(key))] = value
	}
	payload["system_files"] = normalized
	return payload, nil
}

func defaultName(ctx hydrate.Context, file *definitionFile) error {
	if file.Name == "" {
		file.Name = ctx.Name
	}
	if file.Name == "" {
		return ErrLayerNameRequired
	}
	return nil
}
