// Package stm32g4 adds the STM32G4 family to a runtime builder. It carries
// its own support directory, which is searched after the builder's.
package stm32g4

import (
	"path/filepath"
	"runtime"

	rts "github.com/goliatone/go-rts"
	"github.com/goliatone/go-rts/targets"
)

// Name is the target identifier of the family.
const Name = "stm32g4xx"

// Devices lists the parts with a dedicated interrupt names package.
var Devices = []string{"G4A1", "G431", "G441", "G473", "G474", "G483", "G484", "G491"}

// Definition is the layer the family adds on top of the Cortex-M4F class.
func Definition() rts.Definition {
	def := rts.Definition{
		Name:    Name,
		IOMode:  rts.IOModeSemihosting,
		Loaders: []rts.Loader{rts.LoaderROM, rts.LoaderRAM},
		SystemFiles: map[rts.Profile]string{
			rts.ProfileLight:        "system-xi-arm.ads",
			rts.ProfileLightTasking: "system-xi-cortexm4-sfp.ads",
			rts.ProfileEmbedded:     "system-xi-cortexm4-full.ads",
		},
		LinkerScripts: []string{
			"stm32g4_src/ld/common-RAM.ld",
			"stm32g4_src/ld/common-ROM.ld",
		},
	}
	def.AddCoreSources(
		"bb-runtimes/arm/stm32/start-common.S",
		"bb-runtimes/arm/stm32/start-ram.S",
		"bb-runtimes/arm/stm32/start-rom.S",
		"stm32g4_src/setup_pll.ads",
		"stm32g4_src/setup_pll.adb",
		"stm32g4_src/s-bbpara.ads",
		"stm32g4_src/s-bbbopa.ads",
		"stm32g4_src/s-bbmcpa.ads",
		"stm32g4_src/svd/handler.S",
		"stm32g4_src/svd/i-stm32.ads",
		"stm32g4_src/svd/i-stm32-flash.ads",
		"stm32g4_src/svd/i-stm32-pwr.ads",
		"stm32g4_src/svd/i-stm32-rcc.ads",
	)
	for _, device := range Devices {
		def.AddExtendedSources("stm32g4_src/svd/a-intnam-" + device + ".ads")
	}
	return def
}

// Descriptor builds the stm32g4xx descriptor.
func Descriptor(opts ...rts.Option) (*rts.TargetDescriptor, error) {
	base, err := targets.CortexM4F()
	if err != nil {
		return nil, err
	}
	return rts.Specialize(base, Definition(), opts...)
}

// Registry returns a registry holding the family's descriptor.
func Registry(opts ...rts.Option) *rts.Registry {
	r := rts.NewRegistry()
	r.MustRegister(Name, func() (*rts.TargetDescriptor, error) {
		return Descriptor(opts...)
	})
	return r
}

// SupportDir is the directory holding the family's sources: the directory of
// this package in the source tree.
func SupportDir() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "."
	}
	return filepath.Dir(file)
}

// Extension describes the family for Environment.Extend, searching dir for
// its sources.
func Extension(dir string) rts.Extension {
	return rts.Extension{
		Name:    Name,
		Dirs:    []string{dir},
		Targets: Registry(),
	}
}

// Register adds the family to env. Ids other than stm32g4xx still resolve
// through the builder's own targets.
func Register(env *rts.Environment) error {
	return env.Extend(Extension(SupportDir()))
}
