package ppu

import (
	"testing"

	"nesgo/ines"
)

// stubMapper is a minimal ppu.Mapper backed by flat CHR-RAM, for isolated
// PPU testing.
type stubMapper struct {
	chr       [0x2000]byte
	mirroring ines.Mirroring
}

func (m *stubMapper) PPURead(addr uint16) uint8     { return m.chr[addr&0x1FFF] }
func (m *stubMapper) PPUWrite(addr uint16, v uint8) { m.chr[addr&0x1FFF] = v }
func (m *stubMapper) Mirroring() ines.Mirroring     { return m.mirroring }

func newTestPPU() *PPU {
	return New(&stubMapper{mirroring: ines.Vertical})
}

func TestPPUSTATUSReadClearsVBlankAndToggle(t *testing.T) {
	p := newTestPPU()
	p.status |= 0x80
	p.w = true

	got := p.ReadRegister(0x2002)
	if got&0x80 == 0 {
		t.Fatal("expected vblank bit to be set on the returned value")
	}
	if p.status&0x80 != 0 {
		t.Error("vblank bit not cleared after PPUSTATUS read")
	}
	if p.w {
		t.Error("write toggle not cleared after PPUSTATUS read")
	}
	if p.ReadRegister(0x2002)&0x80 != 0 {
		t.Error("immediate re-read should return vblank=0")
	}
}

func TestPPUADDRTwoWriteSequenceSetsV(t *testing.T) {
	p := newTestPPU()
	p.WriteRegister(0x2006, 0x21) // high 6 bits
	p.WriteRegister(0x2006, 0x08) // low 8 bits, commits to v
	if p.v != 0x2108 {
		t.Errorf("v = %#04x, want 0x2108", p.v)
	}
}

func TestPPUDATAIncrementsByOneOrThirtyTwo(t *testing.T) {
	p := newTestPPU()
	p.WriteRegister(0x2006, 0x00)
	p.WriteRegister(0x2006, 0x00) // v = 0x0000, pattern table space
	p.WriteRegister(0x2007, 0xAB)
	if p.v != 1 {
		t.Errorf("v after write = %#04x, want 1 (increment mode 1)", p.v)
	}

	p.WriteRegister(0x2000, 0x04) // VRAM increment = 32
	before := p.v
	p.WriteRegister(0x2007, 0xCD)
	if p.v != before+32 {
		t.Errorf("v after write = %#04x, want %#04x", p.v, before+32)
	}
}

func TestPaletteMirrorEntriesAlias(t *testing.T) {
	p := newTestPPU()
	p.writePalette(0x3F10, 0x0A)
	if got := p.readPalette(0x3F00); got != 0x0A {
		t.Errorf("readPalette(0x3F00) = %#02x, want 0x0A (aliases 0x3F10)", got)
	}
	p.writePalette(0x3F00, 0x0B)
	if got := p.readPalette(0x3F10); got != 0x0B {
		t.Errorf("readPalette(0x3F10) = %#02x, want 0x0B (aliases 0x3F00)", got)
	}
}

func TestVerticalMirroringMapsNametables(t *testing.T) {
	p := newTestPPU() // vertical: nametable 0 and 2 share physical page 0
	p.writeVRAM(0x2000, 0x11)
	if got := p.readVRAM(0x2800); got != 0x11 {
		t.Errorf("readVRAM(0x2800) = %#02x, want 0x11 under vertical mirroring", got)
	}
	if got := p.readVRAM(0x2400); got == 0x11 {
		t.Error("nametable 1 should not alias nametable 0 under vertical mirroring")
	}
}

func TestNMIFiresOnceAtScanline241Dot1(t *testing.T) {
	p := newTestPPU()
	fired := 0
	p.SetNMICallback(func() { fired++ })
	p.WriteRegister(0x2000, 0x80) // enable NMI generation

	// advance to scanline 241 dot 1
	for i := 0; i < 241*341+1; i++ {
		p.Step()
	}
	if fired != 1 {
		t.Errorf("NMI fired %d times, want exactly 1", fired)
	}
	if p.status&0x80 == 0 {
		t.Error("vblank flag not set at scanline 241 dot 1")
	}
}

func TestVBlankAndFlagsClearAtPreRenderDot1(t *testing.T) {
	p := newTestPPU()
	p.status = 0xE0 // vblank, sprite0hit, overflow all set

	for i := 0; i < 261*341+1; i++ {
		p.Step()
	}
	if p.status&0xE0 != 0 {
		t.Errorf("status = %#02x, want vblank/sprite0/overflow bits clear at pre-render dot 1", p.status)
	}
}

func TestSpriteEvaluationFindsOverlappingSprite(t *testing.T) {
	p := newTestPPU()
	p.WriteRegister(0x2001, 0x18) // enable background+sprite rendering
	p.oam[0] = 29                 // Y: covers scanline 30 (row 0) as next-scanline target
	p.oam[1] = 0                  // tile 0
	p.oam[2] = 0                  // attr
	p.oam[3] = 32                 // X

	p.scanline = 29
	p.dot = 257
	p.evaluateSprites()

	if p.spriteCount != 1 {
		t.Fatalf("spriteCount = %d, want 1", p.spriteCount)
	}
	if p.spriteX[0] != 32 {
		t.Errorf("spriteX[0] = %d, want 32", p.spriteX[0])
	}
	if !p.spriteIsZero[0] {
		t.Error("sprite at OAM index 0 should be flagged as sprite zero")
	}
}

func TestSprite0HitSetsWhenOpaqueSpriteOverlapsOpaqueBackground(t *testing.T) {
	p := newTestPPU()
	p.WriteRegister(0x2001, 0x18) // enable background+sprite rendering

	const x, y = 32, 30
	p.scanline = y
	p.dot = x + 1

	// Opaque background pixel: top bit of the shift registers, fine-x 0.
	p.bgShiftLo = 0x8000
	p.bgShiftHi = 0x0000

	// Opaque sprite-zero pixel at the same column, drawn in front.
	p.spriteCount = 1
	p.spriteX[0] = x
	p.spritePatternsLo[0] = 0x80
	p.spritePatternsHi[0] = 0x00
	p.spriteAttrs[0] = 0x00
	p.spriteIsZero[0] = true

	p.renderPixel()

	if got := p.ReadRegister(0x2002); got&0x40 == 0 {
		t.Errorf("PPUSTATUS = %#02x, want bit 6 (sprite-0 hit) set", got)
	}
}

func TestSpriteOverflowFlagSetPastEight(t *testing.T) {
	p := newTestPPU()
	for i := 0; i < 9; i++ {
		p.oam[i*4] = 50 // all cover the same target scanline
	}
	p.scanline = 50
	p.evaluateSprites()
	if p.status&0x20 == 0 {
		t.Error("sprite overflow flag not set with 9 sprites on one scanline")
	}
	if p.spriteCount != 8 {
		t.Errorf("spriteCount = %d, want capped at 8", p.spriteCount)
	}
}
