package console

import (
	"fmt"
	"io"

	"nesgo/cpu"
)

// Tracer writes one line per executed CPU instruction in the format
// SPEC_FULL.md's CLI --trace flag calls for: disassembly followed by
// register and PPU-position state, grounded on arl-nestor's hw/tracer.go
// (same field layout: A/X/Y/P/S hex pairs, then PPU:scanline,dot and the
// running cycle count).
type Tracer struct {
	w io.Writer
}

// NewTracer wraps w (stdout, stderr, or a --trace file) as a per-
// instruction execution trace sink.
func NewTracer(w io.Writer) *Tracer { return &Tracer{w: w} }

// Trace writes one line describing the instruction about to execute at
// c.PC, then the CPU/PPU state it executes from. peek must be a
// side-effect-free memory read (see cpu.Disassemble).
func (t *Tracer) Trace(c *cpu.CPU, peek func(uint16) uint8, scanline, dot int) {
	disasm := cpu.Disassemble(c.PC, peek)
	scanlineOut := scanline
	if scanlineOut == 261 {
		scanlineOut = -1
	}
	fmt.Fprintf(t.w, "%-47s A:%02X X:%02X Y:%02X P:%02X SP:%02X PPU:%3d,%3d CYC:%d\n",
		disasm, c.A, c.X, c.Y, uint8(c.P), c.SP, scanlineOut, dot, c.Cycles)
}
