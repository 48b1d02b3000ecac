// console.go is the orchestrator: it owns the CPU, PPU, cartridge and
// controller ports, and drives them at the NES's fixed 1:3 CPU:PPU clock
// ratio. Grounded on arl-nestor's nes.go (NES.PowerUp/Reset/Run), expanded
// to actually step the PPU (the teacher's prototype never did) and to
// dispatch through cartridge.Cartridge instead of being hardwired to
// mapper 0.
package console

import (
	"fmt"
	"io"

	"nesgo/cartridge"
	"nesgo/cpu"
	"nesgo/ines"
	"nesgo/input"
	"nesgo/internal/logx"
	"nesgo/ppu"
)

var modConsole = logx.NewModule("emu")

// Console is a fully wired, runnable NES.
type Console struct {
	CPU  *cpu.CPU
	PPU  *ppu.PPU
	Bus  *Bus
	Cart *cartridge.Cartridge
	Pads *input.Ports

	Tracer *Tracer // nil disables tracing
}

// New parses no ROM by itself; call PowerUp with a loaded *ines.Rom.
func New() *Console {
	return &Console{Pads: &input.Ports{}}
}

// PowerUp loads rom into a fresh Cartridge, wires the PPU and CPU onto a
// new Bus, connects the PPU's NMI line to the CPU, and performs the
// power-on reset sequence.
func (c *Console) PowerUp(rom *ines.Rom) error {
	cart, err := cartridge.New(rom)
	if err != nil {
		return fmt.Errorf("powerup: %w", err)
	}
	c.Cart = cart

	c.PPU = ppu.New(cart.Mapper)
	c.Bus = NewBus(c.PPU, cart, c.Pads)
	c.CPU = cpu.New(c.Bus)
	c.PPU.SetNMICallback(c.CPU.TriggerNMI)

	c.Reset()
	modConsole.Infof("powered up: mapper %d, %s mirroring", rom.Mapper(), rom.MirroringMode())
	return nil
}

// Reset forwards the reset signal to the CPU and PPU.
func (c *Console) Reset() {
	c.CPU.Reset()
	c.PPU.Reset()
}

// SetTraceOutput enables per-instruction tracing to w, or disables it
// when w is nil.
func (c *Console) SetTraceOutput(w io.Writer) {
	if w == nil {
		c.Tracer = nil
		return
	}
	c.Tracer = NewTracer(w)
}

// SetButtons updates the live button state sampled into controller port
// i (0 or 1) at the next strobe latch.
func (c *Console) SetButtons(port int, b input.Button) {
	c.Pads.Controllers[port].SetButtons(b)
}

// stepPPU advances the PPU by n dots, three per CPU cycle.
func (c *Console) stepPPU(cpuCycles int) {
	for i := 0; i < cpuCycles*3; i++ {
		c.PPU.Step()
	}
}

// stepInstruction executes exactly one CPU instruction (or interrupt
// sequence), advances the PPU in lockstep, and applies any OAM DMA
// stall the instruction triggered.
func (c *Console) stepInstruction() {
	if c.Tracer != nil {
		c.Tracer.Trace(c.CPU, c.Bus.Peek, c.PPU.Scanline(), c.PPU.Dot())
	}

	c.Bus.SetCPUCyclesOdd(c.CPU.Cycles%2 != 0)
	cycles := c.CPU.Step()
	c.stepPPU(cycles)

	if stall := c.Bus.TakeOAMDMAStall(); stall > 0 {
		c.CPU.Cycles += int64(stall)
		c.stepPPU(stall)
	}
}

// RunFrame executes CPU instructions until the PPU completes one frame
// (the pre-render scanline finishes), then returns. The framebuffer is
// available at c.PPU.Frame immediately after this returns.
func (c *Console) RunFrame() {
	for !c.PPU.FrameReady() {
		c.stepInstruction()
	}
}

// Step executes exactly one CPU instruction (or interrupt sequence) and
// its lockstep PPU/DMA effects. Exported for tracing tools and
// conformance tests that need single-instruction granularity instead of
// whole-frame granularity.
func (c *Console) Step() {
	c.stepInstruction()
}
