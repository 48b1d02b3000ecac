package console

import (
	"path/filepath"
	"testing"

	"nesgo/ines"
	"nesgo/internal/testroms"
)

// TestNestestAutomationEntryPoint checks the very first instruction
// nestest.nes executes at its documented "automation mode" entry point
// ($C000, which runs every official opcode without needing a controller
// to dismiss the interactive menu first).
func TestNestestAutomationEntryPoint(t *testing.T) {
	c := newNestestConsole(t)

	c.CPU.PC = 0xC000
	if c.CPU.P != 0x24 {
		t.Fatalf("P after reset = %#02x, want 0x24 (documented nestest initial state)", c.CPU.P)
	}

	c.Step() // JMP $C5F5, the first instruction nestest.nes executes at $C000
	if c.CPU.PC != 0xC5F5 {
		t.Errorf("PC after first instruction = %#04x, want 0xC5F5", c.CPU.PC)
	}
}

// TestNestestRunsToCompletionWithoutErrors runs nestest.nes's automated
// opcode test (started at $C000) to completion, the same role the
// teacher's nestest.log diff plays but without vendoring a copyrighted
// oracle log into the module: it downloads the ROM itself through
// internal/testroms and is skipped outright when that download isn't
// available.
//
// nestest.txt (shipped alongside the ROM in the test-roms checkout)
// documents the pass condition directly: once every official opcode has
// been exercised, the program parks the CPU in a tight self-loop at
// $C66E and leaves its result codes at $0002/$0003, both zero on
// success. That self-loop, not a specific cycle count, is used as the
// run's stopping condition here: this core's CPU.Reset does not burn
// the ~7 dummy power-on cycles Nintendulator's own CYC column starts
// counting from (see cpu/cpu.go), so the raw cycle counter this test
// would read is offset from the well-known 26554-cycle reference by
// that constant and isn't a reliable equality check on its own.
func TestNestestRunsToCompletionWithoutErrors(t *testing.T) {
	const haltPC = 0xC66E
	const maxInstructions = 30000 // official-opcode course is ~8991 instructions; ample headroom

	c := newNestestConsole(t)
	c.CPU.PC = 0xC000

	for i := 0; c.CPU.PC != haltPC; i++ {
		if i >= maxInstructions {
			t.Fatalf("nestest did not reach its $%04X completion loop within %d instructions (stuck at PC=%#04x)", haltPC, maxInstructions, c.CPU.PC)
		}
		c.Step()
	}

	if errCode := c.Bus.CPURead(0x0002); errCode != 0x00 {
		t.Errorf("result code at $0002 = %#02x, want 0x00 (no official-opcode errors)", errCode)
	}
	if errCode := c.Bus.CPURead(0x0003); errCode != 0x00 {
		t.Errorf("result code at $0003 = %#02x, want 0x00 (no unofficial-opcode errors)", errCode)
	}
}

func newNestestConsole(t *testing.T) *Console {
	t.Helper()
	if testing.Short() {
		t.Skip("downloads external test ROMs; skipped in -short mode")
	}

	dir := testroms.RomsPath(t)
	rom, err := ines.Open(filepath.Join(dir, "other", "nestest.nes"))
	if err != nil {
		t.Skipf("nestest.nes not found in test-roms checkout: %v", err)
	}

	c := New()
	if err := c.PowerUp(rom); err != nil {
		t.Fatalf("PowerUp: %v", err)
	}
	return c
}
