// Package console wires the CPU, PPU, cartridge and controller ports
// together into one running machine.
//
// bus.go implements the CPU-side address decode. arl-nestor builds this
// from nes.go's reflective hwio.MemMap (bank-mapped RAM mirrors, a
// MapBank callback into the PPU's register struct); the address space
// here is small and fixed, so it is decoded directly instead — see
// DESIGN.md for the tradeoff.
package console

import (
	"nesgo/cartridge"
	"nesgo/input"
	"nesgo/internal/logx"
	"nesgo/ppu"
)

var modBus = logx.NewModule("bus")

// ramSize is the console's 2KiB of work RAM, mirrored four times across
// $0000-$1FFF.
const ramSize = 0x0800

// Bus implements cpu.Bus and routes every CPU address to the right
// device: internal RAM, PPU registers (mirrored every 8 bytes across
// $2000-$3FFF), OAM DMA at $4014, controller ports at $4016/$4017, an
// APU stub across the rest of $4000-$4017, and the cartridge at
// $4020-$FFFF.
type Bus struct {
	ram  [ramSize]byte
	PPU  *ppu.PPU
	Cart *cartridge.Cartridge
	Pads *input.Ports

	// oamDMAStall accumulates the CPU stall cycles owed for the last
	// $4014 write; Console.RunFrame drains it after each CPU.Step.
	oamDMAStall int

	// cpuCyclesOdd lets CPUWrite compute the correct 513/514 OAM DMA
	// stall without the Bus needing a full reference to the CPU.
	cpuCyclesOdd bool
}

// NewBus wires a Bus to its PPU, cartridge and controller ports.
func NewBus(p *ppu.PPU, cart *cartridge.Cartridge, pads *input.Ports) *Bus {
	return &Bus{PPU: p, Cart: cart, Pads: pads}
}

// SetCPUCyclesOdd tells the bus whether the CPU's total cycle count is
// currently odd, which the next $4014 write needs to compute its stall
// length. The orchestrator calls this before every CPU.Step.
func (b *Bus) SetCPUCyclesOdd(odd bool) { b.cpuCyclesOdd = odd }

// TakeOAMDMAStall returns and clears the stall cycles owed by the most
// recent $4014 write.
func (b *Bus) TakeOAMDMAStall() int {
	s := b.oamDMAStall
	b.oamDMAStall = 0
	return s
}

func (b *Bus) CPURead(addr uint16) uint8 {
	switch {
	case addr < 0x2000:
		return b.ram[addr&0x07FF]
	case addr < 0x4000:
		return b.PPU.ReadRegister(0x2000 + addr&7)
	case addr == 0x4016:
		return b.Pads.Read4016()
	case addr == 0x4017:
		return b.Pads.Read4017()
	case addr < 0x4018:
		return 0 // APU stub: reads return 0, including $4015
	default:
		return b.Cart.Mapper.CPURead(addr)
	}
}

// Peek reads addr the way CPURead does, but without the side effects
// register/controller reads normally have (PPUSTATUS vblank clear,
// PPUDATA buffer advance, controller shift-register advance). Used only
// by the disassembler/tracer.
func (b *Bus) Peek(addr uint16) uint8 {
	switch {
	case addr < 0x2000:
		return b.ram[addr&0x07FF]
	case addr < 0x4000:
		return b.PPU.Peek(0x2000 + addr&7)
	case addr == 0x4016:
		return b.Pads.Peek4016()
	case addr == 0x4017:
		return b.Pads.Peek4017()
	case addr < 0x4018:
		return 0
	default:
		return b.Cart.Mapper.CPURead(addr)
	}
}

func (b *Bus) CPUWrite(addr uint16, val uint8) {
	switch {
	case addr < 0x2000:
		b.ram[addr&0x07FF] = val
	case addr < 0x4000:
		b.PPU.WriteRegister(0x2000+addr&7, val)
	case addr == 0x4014:
		b.doOAMDMA(val)
	case addr == 0x4016:
		b.Pads.Write4016(val)
	case addr < 0x4018:
		// APU stub: writes ignored.
	default:
		b.Cart.Mapper.CPUWrite(addr, val)
	}
}

// doOAMDMA copies 256 bytes starting at val<<8 into PPU OAM and records
// the CPU stall this costs: 513 cycles normally, 514 if the DMA begins
// on an odd CPU cycle.
func (b *Bus) doOAMDMA(val uint8) {
	base := uint16(val) << 8
	for i := 0; i < 256; i++ {
		b.PPU.WriteOAMByte(b.CPURead(base + uint16(i)))
	}
	if b.cpuCyclesOdd {
		b.oamDMAStall = 514
	} else {
		b.oamDMAStall = 513
	}
	modBus.Debugf("OAM DMA from $%04X, stall=%d", base, b.oamDMAStall)
}
