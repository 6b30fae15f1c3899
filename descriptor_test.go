package rts

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func scenarioDescriptor(t *testing.T) *TargetDescriptor {
	t.Helper()
	desc, err := NewDescriptor(Definition{
		Name:            "x",
		CoreSources:     []string{"a.src", "b.src"},
		ExtendedSources: []string{"c.src"},
		SystemFiles: map[Profile]string{
			ProfileLight:    "sys-light",
			ProfileEmbedded: "sys-full",
		},
	})
	if err != nil {
		t.Fatalf("new descriptor: %v", err)
	}
	return desc
}

func TestSourcesForTasking(t *testing.T) {
	desc := scenarioDescriptor(t)

	cases := []struct {
		tasking bool
		want    []string
	}{
		{tasking: false, want: []string{"a.src", "b.src"}},
		{tasking: true, want: []string{"a.src", "b.src", "c.src"}},
	}
	for _, tc := range cases {
		if got := desc.SourcesFor(tc.tasking); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("SourcesFor(%v): expected %v got %v", tc.tasking, tc.want, got)
		}
	}

	core := desc.SourcesFor(false)
	full := desc.SourcesFor(true)
	if !reflect.DeepEqual(full[:len(core)], core) {
		t.Fatalf("expected tasking sources to start with the core sources")
	}
}

func TestSystemFileFor(t *testing.T) {
	desc := scenarioDescriptor(t)

	if got, err := desc.SystemFileFor(ProfileEmbedded); err != nil || got != "sys-full" {
		t.Fatalf("embedded: expected sys-full, got %q (%v)", got, err)
	}
	if got, err := desc.SystemFileFor(ProfileLight); err != nil || got != "sys-light" {
		t.Fatalf("light: expected sys-light, got %q (%v)", got, err)
	}

	_, err := desc.SystemFileFor(ProfileLightTasking)
	if !errors.Is(err, ErrProfileNotSupported) {
		t.Fatalf("expected ErrProfileNotSupported, got %v", err)
	}
	var notSupported *ProfileNotSupportedError
	if !errors.As(err, &notSupported) || notSupported.Target != "x" || notSupported.Profile != ProfileLightTasking {
		t.Fatalf("unexpected error detail: %+v", notSupported)
	}
}

func TestValidateProfiles(t *testing.T) {
	desc := scenarioDescriptor(t)

	if err := desc.Validate(ProfileSet{ProfileLight, ProfileEmbedded}); err != nil {
		t.Fatalf("expected covered profiles to validate, got %v", err)
	}
	err := desc.Validate(DefaultProfiles())
	if !errors.Is(err, ErrProfileNotSupported) {
		t.Fatalf("expected missing light-tasking to fail, got %v", err)
	}
	if got := desc.Profiles(); !reflect.DeepEqual(got, ProfileSet{ProfileLight, ProfileEmbedded}) {
		t.Fatalf("unexpected profiles %v", got)
	}
}

func TestDescriptorAccessorsReturnCopies(t *testing.T) {
	desc := scenarioDescriptor(t)

	core := desc.CoreSources()
	core[0] = "mutated"
	files := desc.ProfileSystemFiles()
	files[ProfileLight] = "mutated"
	delete(files, ProfileEmbedded)
	sources := desc.SourcesFor(true)
	sources[2] = "mutated"

	if desc.CoreSources()[0] != "a.src" {
		t.Fatalf("core sources mutated through accessor")
	}
	if got, _ := desc.SystemFileFor(ProfileLight); got != "sys-light" {
		t.Fatalf("system files mutated through accessor")
	}
	if _, err := desc.SystemFileFor(ProfileEmbedded); err != nil {
		t.Fatalf("system files mutated through accessor: %v", err)
	}
	if desc.ExtendedSources()[0] != "c.src" {
		t.Fatalf("extended sources mutated through SourcesFor")
	}
}

func TestNewDescriptorValidation(t *testing.T) {
	cases := []struct {
		name string
		def  Definition
		want error
	}{
		{name: "missing name", def: Definition{}, want: ErrLayerNameRequired},
		{
			name: "empty system file",
			def:  Definition{Name: "x", SystemFiles: map[Profile]string{ProfileLight: ""}},
			want: ErrInvalidDefinition,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewDescriptor(tc.def); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestNewDescriptorDropsDuplicates(t *testing.T) {
	desc, err := NewDescriptor(Definition{
		Name:            "dup",
		Loaders:         []Loader{LoaderROM, LoaderROM, LoaderRAM},
		CoreSources:     []string{"a.S", "b.S", "a.S"},
		ExtendedSources: []string{"b.S", "t.adb", "t.adb"},
	})
	if err != nil {
		t.Fatalf("new descriptor: %v", err)
	}
	if got := desc.CoreSources(); !reflect.DeepEqual(got, []string{"a.S", "b.S"}) {
		t.Fatalf("unexpected core %v", got)
	}
	if got := desc.ExtendedSources(); !reflect.DeepEqual(got, []string{"t.adb"}) {
		t.Fatalf("expected extended to exclude core and duplicates, got %v", got)
	}
	if got := desc.Loaders(); !reflect.DeepEqual(got, []Loader{LoaderROM, LoaderRAM}) {
		t.Fatalf("unexpected loaders %v", got)
	}
	if !desc.SupportsLoader(LoaderRAM) || desc.SupportsLoader(LoaderUser) {
		t.Fatalf("unexpected loader support")
	}
}

func armBase(t *testing.T) *TargetDescriptor {
	t.Helper()
	base, err := NewDescriptor(Definition{
		Name: "cortex-m4f",
		Capabilities: Capabilities{
			Arch:     "arm",
			CPU:      "cortex-m4",
			ISA:      "thumb2",
			FPU:      "fpv4-sp-d16",
			Features: []string{"dsp"},
		},
		IOMode:        IOModeSerial,
		Loaders:       []Loader{LoaderROM},
		SystemFiles:   map[Profile]string{ProfileLight: "system-arm.ads", ProfileEmbedded: "system-arm-full.ads"},
		CoreSources:   []string{"arm/start.S", "arm/vectors.S"},
		LinkerScripts: []string{"arm/common.ld"},
	})
	if err != nil {
		t.Fatalf("base: %v", err)
	}
	return base
}

func TestSpecializeComposes(t *testing.T) {
	base := armBase(t)

	chip, err := Specialize(base, Definition{
		Name:            "chip",
		Capabilities:    Capabilities{CPU: "cortex-m4f", Features: []string{"dsp", "crc"}},
		IOMode:          IOModeSemihosting,
		Loaders:         []Loader{LoaderROM, LoaderRAM},
		SystemFiles:     map[Profile]string{ProfileEmbedded: "system-chip-full.ads", ProfileLightTasking: "system-chip-sfp.ads"},
		CoreSources:     []string{"chip/setup.adb", "arm/start.S"},
		ExtendedSources: []string{"chip/intnames.ads"},
		LinkerScripts:   []string{"chip/rom.ld"},
	})
	if err != nil {
		t.Fatalf("specialize: %v", err)
	}

	if chip.Name() != "chip" {
		t.Fatalf("unexpected name %q", chip.Name())
	}
	if got := chip.CoreSources(); !reflect.DeepEqual(got, []string{"arm/start.S", "arm/vectors.S", "chip/setup.adb"}) {
		t.Fatalf("expected inherited core first without duplicates, got %v", got)
	}
	if got := chip.LinkerScripts(); !reflect.DeepEqual(got, []string{"arm/common.ld", "chip/rom.ld"}) {
		t.Fatalf("unexpected linker scripts %v", got)
	}
	if chip.IOMode() != IOModeSemihosting {
		t.Fatalf("expected io mode override, got %s", chip.IOMode())
	}
	if got := chip.Loaders(); !reflect.DeepEqual(got, []Loader{LoaderROM, LoaderRAM}) {
		t.Fatalf("expected loaders replaced, got %v", got)
	}

	caps := chip.Capabilities()
	if caps.Arch != "arm" || caps.CPU != "cortex-m4f" || caps.FPU != "fpv4-sp-d16" {
		t.Fatalf("expected per-field capability override, got %+v", caps)
	}
	if !reflect.DeepEqual(caps.Features, []string{"dsp", "crc"}) {
		t.Fatalf("expected features appended, got %v", caps.Features)
	}

	want := map[Profile]string{
		ProfileLight:        "system-arm.ads",
		ProfileLightTasking: "system-chip-sfp.ads",
		ProfileEmbedded:     "system-chip-full.ads",
	}
	if got := chip.ProfileSystemFiles(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected per-profile override, got %v", got)
	}
	if got := chip.Lineage(); !reflect.DeepEqual(got, []string{"cortex-m4f", "chip"}) {
		t.Fatalf("unexpected lineage %v", got)
	}

	// the base is not affected by specialization
	if got := base.CoreSources(); len(got) != 2 {
		t.Fatalf("base mutated: %v", got)
	}
	if base.IOMode() != IOModeSerial {
		t.Fatalf("base io mode mutated")
	}
}

func TestSpecializeInheritsUnsetFields(t *testing.T) {
	base := armBase(t)

	chip, err := Specialize(base, Definition{Name: "quiet", IOMode: IOModeNone})
	if err != nil {
		t.Fatalf("specialize: %v", err)
	}
	if chip.IOMode() != IOModeNone {
		t.Fatalf("expected io mode override")
	}
	if !reflect.DeepEqual(chip.CoreSources(), base.CoreSources()) {
		t.Fatalf("expected core sources inherited, got %v", chip.CoreSources())
	}
	if !reflect.DeepEqual(chip.Loaders(), base.Loaders()) {
		t.Fatalf("expected loaders inherited, got %v", chip.Loaders())
	}
	if !reflect.DeepEqual(chip.Capabilities(), base.Capabilities()) {
		t.Fatalf("expected capabilities inherited, got %+v", chip.Capabilities())
	}
}

func TestSpecializeRejectsBadInput(t *testing.T) {
	base := armBase(t)

	if _, err := Specialize(nil, Definition{Name: "x"}); !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("expected nil base to fail, got %v", err)
	}
	if _, err := Specialize(base, Definition{Name: "cortex-m4f"}); !errors.Is(err, ErrDuplicateLayerName) {
		t.Fatalf("expected duplicate layer to fail, got %v", err)
	}
	if _, err := Specialize(base, Definition{}); !errors.Is(err, ErrLayerNameRequired) {
		t.Fatalf("expected unnamed layer to fail, got %v", err)
	}
}

func TestSpecializeMultipleLevels(t *testing.T) {
	base := armBase(t)
	family, err := Specialize(base, Definition{Name: "family", CoreSources: []string{"family/clock.adb"}})
	if err != nil {
		t.Fatalf("family: %v", err)
	}
	chip, err := Specialize(family, Definition{Name: "chip", CoreSources: []string{"chip/pins.adb"}})
	if err != nil {
		t.Fatalf("chip: %v", err)
	}
	want := []string{"arm/start.S", "arm/vectors.S", "family/clock.adb", "chip/pins.adb"}
	if got := chip.CoreSources(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v got %v", want, got)
	}
	if got := chip.Lineage(); !reflect.DeepEqual(got, []string{"cortex-m4f", "family", "chip"}) {
		t.Fatalf("unexpected lineage %v", got)
	}
}

func TestRulesSeeFinalCapabilities(t *testing.T) {
	base, err := NewDescriptor(Definition{
		Name:         "cortex-m4",
		Capabilities: Capabilities{Arch: "arm", CPU: "cortex-m4"},
		CoreSources:  []string{"arm/start.S"},
		Rules: []SourceRule{
			{When: `cap.fpu != ""`, Core: []string{"arm/fpu-init.S"}},
			{When: `"dsp" in cap.features`, Extended: []string{"arm/dsp-context.adb"}},
		},
	})
	if err != nil {
		t.Fatalf("base: %v", err)
	}
	if got := base.CoreSources(); !reflect.DeepEqual(got, []string{"arm/start.S"}) {
		t.Fatalf("expected rules to stay off without an FPU, got %v", got)
	}

	cases := []struct {
		name      string
		evaluator Evaluator
	}{
		{name: "expr", evaluator: NewExprEvaluator()},
		{name: "cel", evaluator: NewCELEvaluator()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chip, err := Specialize(base, Definition{
				Name:         "chip-" + tc.name,
				Capabilities: Capabilities{FPU: "fpv4-sp-d16", Features: []string{"dsp"}},
				CoreSources:  []string{"chip/setup.adb"},
			}, WithEvaluator(tc.evaluator))
			if err != nil {
				t.Fatalf("specialize: %v", err)
			}
			want := []string{"arm/start.S", "arm/fpu-init.S", "chip/setup.adb"}
			if got := chip.CoreSources(); !reflect.DeepEqual(got, want) {
				t.Fatalf("expected %v got %v", want, got)
			}
			if got := chip.ExtendedSources(); !reflect.DeepEqual(got, []string{"arm/dsp-context.adb"}) {
				t.Fatalf("unexpected extended %v", got)
			}
		})
	}
}

func TestRuleMustBeBoolean(t *testing.T) {
	_, err := NewDescriptor(Definition{
		Name:  "bad",
		Rules: []SourceRule{{When: `cap.cpu`, Core: []string{"x.S"}}},
	})
	var evalErr *RuleError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected RuleError, got %v", err)
	}
	if evalErr.Target != "bad" || evalErr.Rule != "cap.cpu" || evalErr.Layer != "bad" {
		t.Fatalf("unexpected error detail: %+v", evalErr)
	}
	if !strings.Contains(err.Error(), `of layer "bad"`) {
		t.Fatalf("expected the layer in %q", err.Error())
	}

	base, err := NewDescriptor(Definition{Name: "cortex-m"})
	if err != nil {
		t.Fatalf("base: %v", err)
	}
	_, err = Specialize(base, Definition{
		Name:  "nrf52",
		Rules: []SourceRule{{When: `cap.fpu ==`, Core: []string{"x.S"}}},
	})
	if !errors.As(err, &evalErr) || evalErr.Layer != "nrf52" || evalErr.Target != "nrf52" {
		t.Fatalf("expected the failing layer to be named, got %v", err)
	}
}

func TestRulesSeeArgsAndLayerMetadata(t *testing.T) {
	cases := []struct {
		name      string
		evaluator Evaluator
	}{
		{name: "expr", evaluator: NewExprEvaluator()},
		{name: "cel", evaluator: NewCELEvaluator()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			base, err := NewDescriptor(Definition{
				Name:  "arm",
				Rules: []SourceRule{{When: `metadata.layer == "arm"`, Core: []string{"arm/start.S"}}},
			}, WithEvaluator(tc.evaluator))
			if err != nil {
				t.Fatalf("base: %v", err)
			}
			chip, err := Specialize(base, Definition{
				Name: "chip",
				Rules: []SourceRule{
					{When: `metadata.layer == "chip" && args.board == "nucleo"`, Core: []string{"chip/nucleo.adb"}},
					{When: `metadata.layer == "arm"`, Core: []string{"chip/never.adb"}},
					{When: `"arm" in metadata.lineage`, Extended: []string{"chip/arm-derived.adb"}},
				},
			}, WithEvaluator(tc.evaluator), WithRuleArgs(map[string]any{"board": "nucleo"}))
			if err != nil {
				t.Fatalf("specialize: %v", err)
			}
			if got := chip.CoreSources(); !reflect.DeepEqual(got, []string{"arm/start.S", "chip/nucleo.adb"}) {
				t.Fatalf("unexpected core sources %v", got)
			}
			if got := chip.ExtendedSources(); !reflect.DeepEqual(got, []string{"chip/arm-derived.adb"}) {
				t.Fatalf("unexpected extended sources %v", got)
			}
			trace, ok := chip.Trace("chip/nucleo.adb")
			if !ok || trace.Layer != "chip" || trace.Rule == "" {
				t.Fatalf("unexpected trace %+v", trace)
			}
		})
	}
}

func TestRuleCustomFunctionAndLogger(t *testing.T) {
	var events []LogEvent
	desc, err := NewDescriptor(Definition{
		Name:         "m0",
		Capabilities: Capabilities{CPU: "cortex-m0"},
		Rules:        []SourceRule{{When: `armv6m(cap.cpu)`, Core: []string{"arm/armv6m-atomic.adb"}}},
	},
		WithCustomFunction("armv6m", func(args ...any) (any, error) {
			cpu, _ := args[0].(string)
			return cpu == "cortex-m0" || cpu == "cortex-m0plus", nil
		}),
		WithLogger(LoggerFunc(func(event LogEvent) { events = append(events, event) })),
	)
	if err != nil {
		t.Fatalf("new descriptor: %v", err)
	}
	if got := desc.CoreSources(); !reflect.DeepEqual(got, []string{"arm/armv6m-atomic.adb"}) {
		t.Fatalf("unexpected core %v", got)
	}
	if len(events) != 1 || events[0].Op != OpEvaluate || events[0].Target != "m0" {
		t.Fatalf("expected one evaluate event, got %+v", events)
	}
}

func TestTraceRecordsContributingLayer(t *testing.T) {
	base, err := NewDescriptor(Definition{
		Name:          "cortex-m4",
		Capabilities:  Capabilities{FPU: "fpv4"},
		CoreSources:   []string{"arm/start.S"},
		LinkerScripts: []string{"arm/common.ld"},
		Rules:         []SourceRule{{When: `cap.fpu != ""`, Core: []string{"arm/fpu.S"}}},
	})
	if err != nil {
		t.Fatalf("base: %v", err)
	}
	chip, err := Specialize(base, Definition{
		Name:            "chip",
		CoreSources:     []string{"chip/setup.adb", "arm/start.S"},
		ExtendedSources: []string{"chip/intnames.ads"},
	})
	if err != nil {
		t.Fatalf("chip: %v", err)
	}

	cases := []struct {
		file string
		want Trace
	}{
		{file: "arm/start.S", want: Trace{File: "arm/start.S", List: ListCore, Layer: "cortex-m4"}},
		{file: "arm/fpu.S", want: Trace{File: "arm/fpu.S", List: ListCore, Layer: "cortex-m4", Rule: `cap.fpu != ""`}},
		{file: "arm/common.ld", want: Trace{File: "arm/common.ld", List: ListLinker, Layer: "cortex-m4"}},
		{file: "chip/intnames.ads", want: Trace{File: "chip/intnames.ads", List: ListExtended, Layer: "chip"}},
	}
	for _, tc := range cases {
		got, ok := chip.Trace(tc.file)
		if !ok {
			t.Fatalf("expected trace for %s", tc.file)
		}
		if got != tc.want {
			t.Fatalf("trace %s: expected %+v got %+v", tc.file, tc.want, got)
		}
	}
	if _, ok := chip.Trace("missing.adb"); ok {
		t.Fatalf("expected no trace for unknown file")
	}

	payload, err := cases[1].want.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	decoded, err := TraceFromJSON(payload)
	if err != nil || decoded != cases[1].want {
		t.Fatalf("expected trace to survive json, got %+v (%v)", decoded, err)
	}
}

func TestDefinitionFlattensDescriptor(t *testing.T) {
	chip, err := Specialize(armBase(t), Definition{Name: "chip", CoreSources: []string{"chip/setup.adb"}})
	if err != nil {
		t.Fatalf("specialize: %v", err)
	}
	flat := chip.Definition()
	again, err := NewDescriptor(flat)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if !reflect.DeepEqual(again.SourcesFor(true), chip.SourcesFor(true)) {
		t.Fatalf("expected flattened definition to rebuild the same sources")
	}
	if !reflect.DeepEqual(again.ProfileSystemFiles(), chip.ProfileSystemFiles()) {
		t.Fatalf("expected flattened definition to rebuild the same system files")
	}
	if again.IOMode() != chip.IOMode() || !reflect.DeepEqual(again.Capabilities(), chip.Capabilities()) {
		t.Fatalf("expected flattened definition to keep scalars")
	}
}
