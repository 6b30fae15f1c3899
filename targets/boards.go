package targets

import (
	rts "github.com/goliatone/go-rts"
)

// Board identifiers known to the builder.
const (
	NameSTM32F4  = "stm32f4"
	NameNRF52832 = "nrf52832"
	NameSAMD21   = "samd21"
)

// STM32F4 is the STM32F40x family.
func STM32F4() (*rts.TargetDescriptor, error) {
	base, err := CortexM4F()
	if err != nil {
		return nil, err
	}
	return rts.Specialize(base, rts.Definition{
		Name:    NameSTM32F4,
		IOMode:  rts.IOModeSerial,
		Loaders: []rts.Loader{rts.LoaderROM, rts.LoaderRAM},
		LinkerScripts: []string{
			"arm/stm32/stm32f40x/memory-map.ld",
			"arm/stm32/common-RAM.ld",
			"arm/stm32/common-ROM.ld",
		},
		CoreSources: []string{
			"arm/stm32/start-common.S",
			"arm/stm32/start-ram.S",
			"arm/stm32/start-rom.S",
			"arm/stm32/setup_pll.adb",
			"arm/stm32/stm32f40x/s-bbbopa.ads",
			"arm/stm32/stm32f40x/s-bbmcpa.ads",
			"arm/stm32/stm32f40x/svd/i-stm32.ads",
			"arm/stm32/stm32f40x/svd/handler.S",
		},
		ExtendedSources: []string{
			"arm/stm32/stm32f40x/svd/a-intnam.ads",
			"arm/stm32/s-bbpara.ads",
		},
	})
}

// NRF52832 is the Nordic nRF52832.
func NRF52832() (*rts.TargetDescriptor, error) {
	base, err := CortexM4F()
	if err != nil {
		return nil, err
	}
	return rts.Specialize(base, rts.Definition{
		Name:          NameNRF52832,
		IOMode:        rts.IOModeSerial,
		LinkerScripts: []string{"nordic/nrf52/nrf52832/memory-map.ld", "nordic/nrf52/common-ROM.ld"},
		CoreSources: []string{
			"nordic/nrf52/start-rom.S",
			"nordic/nrf52/setup_board.adb",
			"nordic/nrf52/nrf52832/s-bbbopa.ads",
			"nordic/nrf52/nrf52832/svd/i-nrf52.ads",
			"nordic/nrf52/nrf52832/svd/handler.S",
		},
		ExtendedSources: []string{
			"nordic/nrf52/nrf52832/svd/a-intnam.ads",
			"nordic/nrf52/s-bbpara.ads",
		},
	})
}

// SAMD21 is the Microchip SAM D21. Like every Cortex-M0 it has no embedded
// profile.
func SAMD21() (*rts.TargetDescriptor, error) {
	base, err := CortexM0()
	if err != nil {
		return nil, err
	}
	return rts.Specialize(base, rts.Definition{
		Name:          NameSAMD21,
		IOMode:        rts.IOModeSemihosting,
		LinkerScripts: []string{"microchip/samd21/memory-map.ld", "microchip/samd21/common-ROM.ld"},
		CoreSources: []string{
			"microchip/samd21/start-rom.S",
			"microchip/samd21/s-bbbopa.ads",
			"microchip/samd21/svd/i-samd21.ads",
			"microchip/samd21/svd/handler.S",
		},
		ExtendedSources: []string{
			"microchip/samd21/svd/a-intnam.ads",
			"microchip/samd21/s-bbpara.ads",
		},
	})
}

// Builtin returns a fresh registry of the boards that provide every default
// profile. Cortex-M0 boards live in CortexM0Boards.
func Builtin() *rts.Registry {
	r := rts.NewRegistry()
	r.MustRegister(NameSTM32F4, STM32F4)
	r.MustRegister(NameNRF52832, NRF52832)
	return r
}

// CortexM0Profiles is the profile set an ARMv6-M board can provide.
func CortexM0Profiles() rts.ProfileSet {
	return rts.ProfileSet{rts.ProfileLight, rts.ProfileLightTasking}
}

// CortexM0Boards returns a fresh registry of the Cortex-M0 boards.
func CortexM0Boards() *rts.Registry {
	r := rts.NewRegistry()
	r.MustRegister(NameSAMD21, SAMD21)
	return r
}

// NewEnvironment returns an environment whose generic resolver is Builtin.
func NewEnvironment(opts ...rts.Option) *rts.Environment {
	return rts.NewEnvironment(append([]rts.Option{rts.WithRegistry(Builtin())}, opts...)...)
}

// NewCortexM0Environment returns an environment serving CortexM0Boards and
// checking them against CortexM0Profiles.
func NewCortexM0Environment(opts ...rts.Option) *rts.Environment {
	base := []rts.Option{
		rts.WithRegistry(CortexM0Boards()),
		rts.WithProfiles(CortexM0Profiles()...),
	}
	return rts.NewEnvironment(append(base, opts...)...)
}

// InstallDefault makes a builtin environment the process wide default and
// returns it.
func InstallDefault(opts ...rts.Option) *rts.Environment {
	env := NewEnvironment(opts...)
	rts.SetDefaultEnvironment(env)
	return env
}
