package rts

import (
	"errors"
	"reflect"
	"testing"
)

func namedFactory(name string) Factory {
	return func() (*TargetDescriptor, error) {
		return NewDescriptor(Definition{
			Name:        name,
			SystemFiles: map[Profile]string{
				ProfileLight:        name + "-light.ads",
				ProfileLightTasking: name + "-sfp.ads",
				ProfileEmbedded:     name + "-full.ads",
			},
		})
	}
}

func TestRegistryRegisterAndResolve(t *testing.T) {
	registry := NewRegistry()
	for _, id := range []string{"samd21", "nrf52832", "stm32f4"} {
		if err := registry.Register(id, namedFactory(id)); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}

	if got := registry.Names(); !reflect.DeepEqual(got, []string{"nrf52832", "samd21", "stm32f4"}) {
		t.Fatalf("expected sorted names, got %v", got)
	}
	for _, id := range registry.Names() {
		desc, err := registry.Resolve(id)
		if err != nil {
			t.Fatalf("resolve %s: %v", id, err)
		}
		if desc.Name() != id {
			t.Fatalf("expected name %s, got %s", id, desc.Name())
		}
	}
	if !registry.Has("stm32f4") || registry.Has("STM32F4") {
		t.Fatalf("expected case sensitive ids")
	}
}

func TestRegistryRegisterRejects(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register("", namedFactory("x")); err == nil {
		t.Fatalf("expected empty id to fail")
	}
	if err := registry.Register("x", nil); err == nil {
		t.Fatalf("expected nil factory to fail")
	}
	registry.MustRegister("x", namedFactory("x"))
	if err := registry.Register("x", namedFactory("x")); err == nil {
		t.Fatalf("expected duplicate id to fail")
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected MustRegister to panic on duplicate")
		}
	}()
	registry.MustRegister("x", namedFactory("x"))
}

func TestRegistryResolveUnknown(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister("x", namedFactory("x"))

	for _, id := range []string{"", "nosuchboard"} {
		_, err := registry.Resolve(id)
		if !errors.Is(err, ErrUnknownTarget) {
			t.Fatalf("resolve %q: expected ErrUnknownTarget, got %v", id, err)
		}
		var unknown *UnknownTargetError
		if !errors.As(err, &unknown) || unknown.ID != id || !reflect.DeepEqual(unknown.Known, []string{"x"}) {
			t.Fatalf("unexpected error detail: %+v", unknown)
		}
	}

	var empty *Registry
	if _, err := empty.Resolve("x"); !errors.Is(err, ErrUnknownTarget) {
		t.Fatalf("expected nil registry to know nothing, got %v", err)
	}
}

func TestRegistryResolveChecksFactory(t *testing.T) {
	boom := errors.New("boom")
	registry := NewRegistry()
	registry.MustRegister("broken", func() (*TargetDescriptor, error) { return nil, boom })
	registry.MustRegister("misnamed", namedFactory("other"))
	registry.MustRegister("empty", func() (*TargetDescriptor, error) { return nil, nil })

	if _, err := registry.Resolve("broken"); !errors.Is(err, boom) {
		t.Fatalf("expected factory error to propagate, got %v", err)
	}
	if _, err := registry.Resolve("misnamed"); !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("expected name mismatch to fail, got %v", err)
	}
	if _, err := registry.Resolve("empty"); !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("expected nil descriptor to fail, got %v", err)
	}
}

func TestRegistryCloneIsIndependent(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister("a", namedFactory("a"))
	clone := registry.Clone()
	clone.MustRegister("b", namedFactory("b"))

	if registry.Has("b") {
		t.Fatalf("expected clone registrations to stay local")
	}
	if !clone.Has("a") {
		t.Fatalf("expected clone to keep existing ids")
	}
}

func TestRegistryWithFallback(t *testing.T) {
	generic := NewRegistry()
	generic.MustRegister("stm32f4", namedFactory("stm32f4"))
	generic.MustRegister("shared", namedFactory("shared"))

	boom := errors.New("boom")
	custom := NewRegistry()
	custom.MustRegister("stm32g4xx", namedFactory("stm32g4xx"))
	custom.MustRegister("broken", func() (*TargetDescriptor, error) { return nil, boom })
	custom.MustRegister("shared", func() (*TargetDescriptor, error) {
		return NewDescriptor(Definition{Name: "shared", CoreSources: []string{"custom.S"}})
	})

	resolve := custom.WithFallback(generic.Resolve)

	if desc, err := resolve("stm32g4xx"); err != nil || desc.Name() != "stm32g4xx" {
		t.Fatalf("expected custom target, got %v (%v)", desc, err)
	}
	if desc, err := resolve("stm32f4"); err != nil || desc.Name() != "stm32f4" {
		t.Fatalf("expected fallback target, got %v (%v)", desc, err)
	}
	if desc, err := resolve("shared"); err != nil || !reflect.DeepEqual(desc.CoreSources(), []string{"custom.S"}) {
		t.Fatalf("expected custom definition to shadow generic, got %v (%v)", desc, err)
	}
	if _, err := resolve("broken"); !errors.Is(err, boom) {
		t.Fatalf("expected non-lookup failures not to fall back, got %v", err)
	}

	_, err := resolve("nosuchboard")
	var unknown *UnknownTargetError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownTargetError, got %v", err)
	}
	want := []string{"broken", "shared", "stm32f4", "stm32g4xx"}
	if !reflect.DeepEqual(unknown.Known, want) {
		t.Fatalf("expected merged known ids %v, got %v", want, unknown.Known)
	}
}
