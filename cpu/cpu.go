// Package cpu implements the Ricoh 2A03's 6502-derived CPU core: all 151
// official opcodes, addressing-mode timing with page-cross penalties, and
// RESET/NMI/IRQ sequencing.
//
// Execution is per-instruction: Step decodes and executes exactly one
// instruction and reports the number of cycles it consumed. This is
// deliberately coarser than a per-memory-access tick (see arl-nestor's
// emu/opcodes.go, which ticks the PPU on every single Read8/Write8): the
// orchestrator this core is built for runs a whole CPU instruction and then
// steps the PPU by 3x that many dots, trading sub-instruction accuracy for
// a simpler, less error-prone coordination model (spec §5, §9).
package cpu

import "nesgo/internal/logx"

var modCPU = logx.NewModule("cpu")

// Vector addresses.
const (
	NMIVector   = 0xFFFA
	ResetVector = 0xFFFC
	IRQVector   = 0xFFFE
)

// Bus is the memory interface the CPU reads and writes through. It is
// satisfied by console.Bus.
type Bus interface {
	CPURead(addr uint16) uint8
	CPUWrite(addr uint16, val uint8)
}

// CPU holds 6502 register and interrupt-line state.
type CPU struct {
	Bus Bus

	A, X, Y, SP uint8
	PC          uint16
	P           P

	Cycles int64 // total cycles executed, monotonically non-decreasing

	nmiRequested bool // edge already latched by the PPU; consumed on next Step
	irqLine      bool // level-sensitive, driven by mapper/APU IRQ sources

	halted bool
}

// New returns a CPU wired to bus, in an indeterminate pre-power-on state.
// Call Reset before running it.
func New(bus Bus) *CPU {
	return &CPU{Bus: bus}
}

// Reset performs the power-on/reset sequence: load PC from the reset
// vector, set SP to 0xFD, set the I flag, and burn no simulated cycles
// (the 7-8 dummy cycles real hardware spends are not counted; Cycles
// restarts at 0).
func (c *CPU) Reset() {
	c.A, c.X, c.Y = 0, 0, 0
	c.SP = 0xFD
	c.P = 0x24 // unused + I set
	c.PC = c.read16(ResetVector)
	c.Cycles = 0
	c.nmiRequested = false
	c.irqLine = false
	c.halted = false
}

// TriggerNMI latches a non-maskable interrupt request. The PPU calls this
// exactly once per low-to-high transition of its internal NMI condition,
// so the CPU does not need to do its own edge detection.
func (c *CPU) TriggerNMI() { c.nmiRequested = true }

// SetIRQ sets or clears the level-sensitive IRQ line.
func (c *CPU) SetIRQ(asserted bool) { c.irqLine = asserted }

// IsHalted reports whether Halt has been called since the last Reset.
func (c *CPU) IsHalted() bool { return c.halted }

// Halt stops further Step calls from executing instructions. Nothing in
// this package calls it: an undefined opcode is logged and skipped (see
// execOne), not halted on.
func (c *CPU) Halt() { c.halted = true }

// Step samples pending interrupts (RESET is handled out-of-band via
// Reset, so priority here is NMI > IRQ), then decodes and executes one
// instruction, returning the number of cycles consumed.
func (c *CPU) Step() int {
	if c.halted {
		return 0
	}

	var cycles int
	switch {
	case c.nmiRequested:
		c.nmiRequested = false
		cycles = c.interrupt(NMIVector, false)
	case c.irqLine && !c.P.I():
		cycles = c.interrupt(IRQVector, false)
	default:
		cycles = c.execOne()
	}
	c.Cycles += int64(cycles)
	return cycles
}

func (c *CPU) execOne() int {
	opcode := c.Bus.CPURead(c.PC)
	entry := decodeTable[opcode]
	if entry.exec == nil {
		modCPU.Warnf("undefined opcode $%02X at $%04X", opcode, c.PC)
		c.PC++
		return 2
	}

	o, pageCrossed, size := c.resolve(entry.mode)
	c.PC += size

	cycles := entry.cycles
	if entry.pagePenalty && pageCrossed {
		cycles++
	}
	extra := entry.exec(c, o)
	return cycles + extra
}

// interrupt pushes PC and P and jumps to vector, costing 7 cycles. brk
// distinguishes a software BRK (sets the B flag in the pushed P) from a
// hardware NMI/IRQ (B flag clear).
func (c *CPU) interrupt(vector uint16, brk bool) int {
	c.push16(c.PC)
	p := c.P
	if brk {
		p.set(flagB)
	} else {
		p.clear(flagB)
	}
	p.set(flagUnused)
	c.push8(uint8(p))
	c.P.set(flagI)
	c.PC = c.read16(vector)
	return 7
}

/* memory helpers */

func (c *CPU) read16(addr uint16) uint16 {
	lo := c.Bus.CPURead(addr)
	hi := c.Bus.CPURead(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

// read16bug reproduces the 6502's indirect-JMP page-wrap bug: if the
// pointer's low byte is $FF, the high byte is fetched from the start of
// the same page rather than the next one.
func (c *CPU) read16bug(addr uint16) uint16 {
	lo := c.Bus.CPURead(addr)
	hiAddr := (addr & 0xFF00) | uint16(uint8(addr)+1)
	hi := c.Bus.CPURead(hiAddr)
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) push8(v uint8) {
	c.Bus.CPUWrite(0x0100+uint16(c.SP), v)
	c.SP--
}

func (c *CPU) push16(v uint16) {
	c.push8(uint8(v >> 8))
	c.push8(uint8(v))
}

func (c *CPU) pull8() uint8 {
	c.SP++
	return c.Bus.CPURead(0x0100 + uint16(c.SP))
}

func (c *CPU) pull16() uint16 {
	lo := c.pull8()
	hi := c.pull8()
	return uint16(hi)<<8 | uint16(lo)
}

func pageCrossed(a, b uint16) bool { return a&0xFF00 != b&0xFF00 }
