package rts

import (
	"fmt"
	"slices"
	"strings"
)

// IOMode selects the I/O backend the runtime links against.
type IOMode int

const (
	// IOModeUnset leaves the choice to a more general descriptor.
	IOModeUnset IOMode = iota
	// IOModeNone links no console I/O.
	IOModeNone
	// IOModeSemihosting routes console I/O through the debugger.
	IOModeSemihosting
	// IOModeSerial routes console I/O through a UART driver.
	IOModeSerial
)

func (m IOMode) String() string {
	switch m {
	case IOModeNone:
		return "none"
	case IOModeSemihosting:
		return "semihosting"
	case IOModeSerial:
		return "serial"
	default:
		return "unset"
	}
}

// ParseIOMode converts value into an IOMode. Empty input maps to IOModeUnset.
func ParseIOMode(value string) (IOMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "unset":
		return IOModeUnset, nil
	case "none":
		return IOModeNone, nil
	case "semihosting":
		return IOModeSemihosting, nil
	case "serial":
		return IOModeSerial, nil
	default:
		return IOModeUnset, fmt.Errorf("rts: unknown io mode %q", value)
	}
}

// Loader names a mechanism used to place the program in memory.
type Loader string

const (
	LoaderROM  Loader = "ROM"
	LoaderRAM  Loader = "RAM"
	LoaderUser Loader = "USER"
)

// Capabilities describes the processor a descriptor targets. Empty fields are
// inherited from a more general descriptor.
type Capabilities struct {
	Arch     string   `toml:"arch,omitempty"`
	CPU      string   `toml:"cpu,omitempty"`
	ISA      string   `toml:"isa,omitempty"`
	FPU      string   `toml:"fpu,omitempty"`
	Features []string `toml:"features,omitempty"`
}

// HasFPU reports whether a hardware floating point unit is present.
func (c Capabilities) HasFPU() bool {
	return c.FPU != "" && c.FPU != "none"
}

// Has reports whether feature is listed in the capability set.
func (c Capabilities) Has(feature string) bool {
	return slices.Contains(c.Features, feature)
}

// Binding exposes the capabilities to rule expressions.
func (c Capabilities) Binding() map[string]any {
	features := make([]any, len(c.Features))
	for i, feature := range c.Features {
		features[i] = feature
	}
	return map[string]any{
		"arch":     c.Arch,
		"cpu":      c.CPU,
		"isa":      c.ISA,
		"fpu":      c.FPU,
		"hasFPU":   c.HasFPU(),
		"features": features,
	}
}

func (c Capabilities) clone() Capabilities {
	out := c
	if c.Features != nil {
		out.Features = append([]string(nil), c.Features...)
	}
	return out
}
