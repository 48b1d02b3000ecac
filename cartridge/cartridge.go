// Package cartridge implements the iNES mapper layer: bank switching and
// nametable-mirroring decisions for cartridge-space CPU and PPU accesses.
//
// The mapper set is intentionally closed (NROM and MMC1 only), modeled as a
// small Mapper interface rather than an open-ended plugin system — see
// DESIGN.md, "Mapper polymorphism".
package cartridge

import (
	"fmt"

	"nesgo/ines"
)

// Mapper is the shared capability set every supported cartridge mapper
// implements.
type Mapper interface {
	// CPURead returns the byte at CPU address addr, which must be in
	// $6000-$FFFF.
	CPURead(addr uint16) uint8
	// CPUWrite handles a CPU write to addr, which must be in $6000-$FFFF.
	CPUWrite(addr uint16, val uint8)
	// PPURead returns the byte at PPU address addr, which must be in
	// $0000-$1FFF (the pattern tables).
	PPURead(addr uint16) uint8
	// PPUWrite handles a PPU write to addr. Ignored when CHR is ROM.
	PPUWrite(addr uint16, val uint8)
	// Mirroring returns the current nametable mirroring mode. For MMC1 this
	// can change at runtime.
	Mirroring() ines.Mirroring
}

// Cartridge owns the parsed ROM image and the mapper instance that
// interprets it.
type Cartridge struct {
	Rom    *ines.Rom
	Mapper Mapper
}

// New builds a Cartridge from a parsed ROM, instantiating the mapper named
// by the iNES header. Mapper numbers other than 0 (NROM) and 1 (MMC1) are
// rejected with a descriptive error, per spec.
func New(rom *ines.Rom) (*Cartridge, error) {
	var m Mapper
	switch n := rom.Mapper(); n {
	case 0:
		m = newNROM(rom)
	case 1:
		m = newMMC1(rom)
	default:
		return nil, fmt.Errorf("unsupported mapper: %d", n)
	}
	return &Cartridge{Rom: rom, Mapper: m}, nil
}

// chrRAMSize is the size of CHR-RAM substituted when a cartridge declares
// zero CHR-ROM banks.
const chrRAMSize = 8 * 1024

// prgRAMSize is the size of the battery/work SRAM window at $6000-$7FFF.
const prgRAMSize = 8 * 1024
