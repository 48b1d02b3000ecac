package console

import (
	"bytes"
	"testing"

	"nesgo/ines"
	"nesgo/input"
)

// buildNROM assembles a minimal synthetic NROM image: PRG filled with NOPs
// ($EA) and a reset vector at $8000.
func buildNROM() *ines.Rom {
	var buf bytes.Buffer
	buf.WriteString(ines.Magic)
	buf.Write([]byte{2, 1, 0x00, 0x00, 0, 0, 0, 0, 0, 0, 0, 0})
	prg := make([]byte, 2*16384)
	for i := range prg {
		prg[i] = 0xEA // NOP
	}
	prg[0x7FFC] = 0x00 // reset vector low -> $8000
	prg[0x7FFD] = 0x80
	buf.Write(prg)
	buf.Write(make([]byte, 8192))

	rom := new(ines.Rom)
	if _, err := rom.ReadFrom(bytes.NewReader(buf.Bytes())); err != nil {
		panic(err)
	}
	return rom
}

func newTestConsole(t *testing.T) *Console {
	t.Helper()
	c := New()
	if err := c.PowerUp(buildNROM()); err != nil {
		t.Fatalf("PowerUp: %v", err)
	}
	return c
}

func TestPowerUpSetsPCFromResetVector(t *testing.T) {
	c := newTestConsole(t)
	if c.CPU.PC != 0x8000 {
		t.Errorf("PC = %#04x, want 0x8000", c.CPU.PC)
	}
}

func TestRunFrameAdvancesExactlyOneFrame(t *testing.T) {
	c := newTestConsole(t)
	before := c.PPU.FrameCount()
	c.RunFrame()
	if got := c.PPU.FrameCount(); got != before+1 {
		t.Errorf("FrameCount after RunFrame = %d, want %d", got, before+1)
	}
}

func TestOAMDMAStallsCPUAndCopiesOAM(t *testing.T) {
	c := newTestConsole(t)
	for i := 0; i < 256; i++ {
		c.Bus.ram[0x0200+i] = uint8(i)
	}

	before := c.CPU.Cycles
	c.Bus.CPUWrite(0x4014, 0x02) // DMA source page $0200
	stall := c.Bus.TakeOAMDMAStall()
	if stall != 513 && stall != 514 {
		t.Fatalf("stall = %d, want 513 or 514", stall)
	}
	if c.CPU.Cycles != before {
		t.Error("CPUWrite itself should not mutate CPU.Cycles; the orchestrator applies the stall")
	}
	if c.PPU.Peek(0x2004) != 0 {
		t.Fatalf("expected OAMADDR to have wrapped back to 0 after 256 writes")
	}
}

func TestControllerWiringRoundTrips(t *testing.T) {
	c := newTestConsole(t)
	c.SetButtons(0, input.ButtonA|input.ButtonRight)

	c.Bus.CPUWrite(0x4016, 1)
	c.Bus.CPUWrite(0x4016, 0)

	want := []uint8{1, 0, 0, 0, 0, 0, 0, 1} // A, B, Select, Start, Up, Down, Left, Right
	for i, w := range want {
		if got := c.Bus.CPURead(0x4016) & 1; got != w {
			t.Errorf("read %d: bit = %d, want %d", i, got, w)
		}
	}
	if got := c.Bus.CPURead(0x4016) & 1; got != 1 {
		t.Errorf("ninth read = %d, want 1", got)
	}
}

func TestTraceOutputDoesNotPerturbState(t *testing.T) {
	c := newTestConsole(t)
	var buf bytes.Buffer
	c.SetTraceOutput(&buf)

	c.Bus.CPUWrite(0x4016, 1)
	c.Bus.CPUWrite(0x4016, 0)
	beforeShift := c.Pads.Controllers[0]

	c.stepInstruction()

	if buf.Len() == 0 {
		t.Error("expected a trace line to be written")
	}
	if c.Pads.Controllers[0] != beforeShift {
		t.Error("tracing a NOP instruction should not have touched controller shift state")
	}
}
