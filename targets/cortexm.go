// Package targets holds the builder's own descriptors: the ARM Cortex-M
// architecture classes and the boards built on them.
package targets

import (
	rts "github.com/goliatone/go-rts"
)

// Architecture class identifiers.
const (
	NameCortexM   = "cortex-m"
	NameCortexM0  = "cortex-m0"
	NameCortexM3  = "cortex-m3"
	NameCortexM4  = "cortex-m4"
	NameCortexM4F = "cortex-m4f"
	NameCortexM7F = "cortex-m7f"
)

// CortexM is the root of every Cortex-M descriptor. It carries the sources
// shared by all cores and the capability gated ones.
func CortexM() (*rts.TargetDescriptor, error) {
	return rts.NewDescriptor(rts.Definition{
		Name:         NameCortexM,
		Capabilities: rts.Capabilities{Arch: "arm", ISA: "thumb"},
		IOMode:       rts.IOModeNone,
		Loaders:      []rts.Loader{rts.LoaderROM},
		CoreSources: []string{
			"src/s-macres__cortexm.adb",
			"src/s-bbcpsp__cortexm.ads",
			"src/s-textio__null.adb",
		},
		ExtendedSources: []string{
			"src/s-bbcppr__armv7m.adb",
			"src/s-bbbosu__armv7m.adb",
			"src/s-bcpcst__armvXm.S",
		},
		Rules: []rts.SourceRule{
			{When: "cap.hasFPU", Core: []string{"arm/cortexm/s-bbfpsa.S"}},
			{When: `"dsp" in cap.features`, Core: []string{"src/i-arm_v7m-dsp.ads"}},
		},
	})
}

// CortexM0 is the ARMv6-M class. It has no full runtime.
func CortexM0() (*rts.TargetDescriptor, error) {
	base, err := CortexM()
	if err != nil {
		return nil, err
	}
	return rts.Specialize(base, rts.Definition{
		Name:         NameCortexM0,
		Capabilities: rts.Capabilities{CPU: "cortex-m0", ISA: "armv6-m"},
		SystemFiles: map[rts.Profile]string{
			rts.ProfileLight:        "system-xi-arm.ads",
			rts.ProfileLightTasking: "system-xi-cortexm0-sfp.ads",
		},
		ExtendedSources: []string{"src/s-bbcppr__armv6m.adb"},
	})
}

// CortexM3 is the ARMv7-M class.
func CortexM3() (*rts.TargetDescriptor, error) {
	base, err := CortexM()
	if err != nil {
		return nil, err
	}
	return rts.Specialize(base, rts.Definition{
		Name:         NameCortexM3,
		Capabilities: rts.Capabilities{CPU: "cortex-m3", ISA: "armv7-m"},
		SystemFiles: map[rts.Profile]string{
			rts.ProfileLight:        "system-xi-arm.ads",
			rts.ProfileLightTasking: "system-xi-cortexm3-sfp.ads",
			rts.ProfileEmbedded:     "system-xi-cortexm3-full.ads",
		},
	})
}

// CortexM4 is the ARMv7E-M class without floating point.
func CortexM4() (*rts.TargetDescriptor, error) {
	base, err := CortexM()
	if err != nil {
		return nil, err
	}
	return rts.Specialize(base, rts.Definition{
		Name: NameCortexM4,
		Capabilities: rts.Capabilities{
			CPU:      "cortex-m4",
			ISA:      "armv7e-m",
			Features: []string{"dsp"},
		},
		SystemFiles: map[rts.Profile]string{
			rts.ProfileLight:        "system-xi-arm.ads",
			rts.ProfileLightTasking: "system-xi-cortexm4-sfp.ads",
			rts.ProfileEmbedded:     "system-xi-cortexm4-full.ads",
		},
	})
}

// CortexM4F adds the single precision FPU to CortexM4.
func CortexM4F() (*rts.TargetDescriptor, error) {
	base, err := CortexM4()
	if err != nil {
		return nil, err
	}
	return rts.Specialize(base, rts.Definition{
		Name:         NameCortexM4F,
		Capabilities: rts.Capabilities{FPU: "fpv4-sp-d16"},
	})
}

// CortexM7F is the ARMv7E-M class with the double precision FPU and caches.
func CortexM7F() (*rts.TargetDescriptor, error) {
	base, err := CortexM()
	if err != nil {
		return nil, err
	}
	return rts.Specialize(base, rts.Definition{
		Name: NameCortexM7F,
		Capabilities: rts.Capabilities{
			CPU:      "cortex-m7",
			ISA:      "armv7e-m",
			FPU:      "fpv5-d16",
			Features: []string{"dsp", "cache"},
		},
		SystemFiles: map[rts.Profile]string{
			rts.ProfileLight:        "system-xi-arm.ads",
			rts.ProfileLightTasking: "system-xi-cortexm7-sfp.ads",
			rts.ProfileEmbedded:     "system-xi-cortexm7-full.ads",
		},
		CoreSources: []string{"arm/cortexm/s-cache__cortexm7.adb"},
	})
}

// Classes returns a registry of the architecture classes.
func Classes() *rts.Registry {
	r := rts.NewRegistry()
	r.MustRegister(NameCortexM, CortexM)
	r.MustRegister(NameCortexM0, CortexM0)
	r.MustRegister(NameCortexM3, CortexM3)
	r.MustRegister(NameCortexM4, CortexM4)
	r.MustRegister(NameCortexM4F, CortexM4F)
	r.MustRegister(NameCortexM7F, CortexM7F)
	return r
}
