// Package ppu implements the Ricoh 2C02: the scanline/dot-accurate
// background and sprite renderer, its CPU-visible register file, and VRAM
// (nametable + palette RAM) and OAM storage.
//
// arl-nestor's hw/ppu.go supplies the register semantics this package
// generalizes (PPUCTRL/MASK/STATUS/SCROLL/ADDR/DATA read/write-callback
// shapes, the v/t/x/w latch dance, buffered PPUDATA reads) but left the
// scanline state machine itself stubbed — every case in its dot switch was
// an empty `break`. The fetch/shift pipeline and sprite evaluation below
// follow the timing table in nesdev's PPU rendering reference, the same
// one RNG999-gones/internal/ppu implements pixel-by-pixel rather than with
// literal shift registers; this package keeps the shift-register state
// shape the rest of the corpus uses (since cycle-for-cycle state, not just
// final pixels, is externally observable through mid-frame register
// reads).
package ppu

import "nesgo/ines"

const (
	ScreenWidth  = 256
	ScreenHeight = 240
)

// Mapper is the PPU-facing subset of cartridge.Mapper: pattern-table
// access and nametable mirroring.
type Mapper interface {
	PPURead(addr uint16) uint8
	PPUWrite(addr uint16, val uint8)
	Mirroring() ines.Mirroring
}

// PPU holds all CPU-visible and internal 2C02 state.
type PPU struct {
	Mapper Mapper

	nmiCallback func()

	// CPU-visible registers
	ctrl, mask, status, oamAddr uint8
	busLatch                    uint8 // approximates "last value written" open-bus reads

	// internal scroll/address latches
	v, t uint16
	x    uint8
	w    bool

	readBuffer uint8

	vram    [2048]byte
	palette [32]byte
	oam     [256]byte

	// background fetch latches and shift registers
	ntByte, atByte, ptLowByte, ptHighByte uint8
	bgShiftLo, bgShiftHi                  uint16
	attrShiftLo, attrShiftHi              uint8
	attrLatchLo, attrLatchHi              uint8

	// sprite units for the scanline currently being drawn
	spriteCount      int
	spritePatternsLo [8]uint8
	spritePatternsHi [8]uint8
	spriteAttrs      [8]uint8
	spriteX          [8]uint8
	spriteIsZero     [8]bool

	scanline int // 0-261
	dot      int // 0-340
	frameOdd bool

	nmiOutput   bool // PPUCTRL bit 7
	nmiOccurred bool // vblank flag, mirrors status bit 7
	nmiPrevious bool

	frameCount uint64
	frameReady bool

	Frame [ScreenWidth * ScreenHeight]uint32
}

// New returns a PPU wired to mapper, already reset.
func New(mapper Mapper) *PPU {
	p := &PPU{Mapper: mapper}
	p.Reset()
	return p
}

// SetNMICallback installs the function invoked on every low-to-high
// transition of the internal (ctrl-enabled AND vblank) NMI condition.
// The console wires this to cpu.CPU.TriggerNMI.
func (p *PPU) SetNMICallback(cb func()) { p.nmiCallback = cb }

func (p *PPU) Reset() {
	p.ctrl, p.mask, p.status, p.oamAddr = 0, 0, 0, 0
	p.v, p.t, p.x, p.w = 0, 0, 0, false
	p.scanline, p.dot = 0, 0
	p.frameOdd = false
	p.nmiOutput, p.nmiOccurred, p.nmiPrevious = false, false, false
	p.frameReady = false
}

func (p *PPU) Scanline() int      { return p.scanline }
func (p *PPU) Dot() int           { return p.dot }
func (p *PPU) FrameCount() uint64 { return p.frameCount }

// FrameReady reports and clears whether a frame completed since the last
// call.
func (p *PPU) FrameReady() bool {
	r := p.frameReady
	p.frameReady = false
	return r
}

/* CPU-facing register file, mapped at $2000-$2007 (mirrored every 8). */

func (p *PPU) ReadRegister(addr uint16) uint8 {
	switch addr & 7 {
	case 2: // PPUSTATUS
		result := (p.status & 0xE0) | (p.busLatch & 0x1F)
		p.status &^= 0x80
		p.w = false
		p.nmiOccurred = false
		p.checkNMI()
		p.busLatch = result
		return result
	case 4: // OAMDATA
		p.busLatch = p.oam[p.oamAddr]
		return p.busLatch
	case 7: // PPUDATA
		p.busLatch = p.readData()
		return p.busLatch
	default:
		return p.busLatch
	}
}

func (p *PPU) WriteRegister(addr uint16, val uint8) {
	p.busLatch = val
	switch addr & 7 {
	case 0: // PPUCTRL
		p.ctrl = val
		p.t = (p.t &^ 0x0C00) | (uint16(val&0x03) << 10)
		p.nmiOutput = val&0x80 != 0
		p.checkNMI()
	case 1: // PPUMASK
		p.mask = val
	case 3: // OAMADDR
		p.oamAddr = val
	case 4: // OAMDATA
		if p.renderingActive() {
			return // writes during rendering are discarded
		}
		p.oam[p.oamAddr] = val
		p.oamAddr++
	case 5: // PPUSCROLL
		if !p.w {
			p.t = (p.t &^ 0x001F) | uint16(val>>3)
			p.x = val & 0x07
		} else {
			p.t = (p.t &^ 0x73E0) | (uint16(val&0x07) << 12) | (uint16(val&0xF8) << 2)
		}
		p.w = !p.w
	case 6: // PPUADDR
		if !p.w {
			p.t = (p.t &^ 0x7F00) | (uint16(val&0x3F) << 8)
		} else {
			p.t = (p.t &^ 0x00FF) | uint16(val)
			p.v = p.t & 0x7FFF
		}
		p.w = !p.w
	case 7: // PPUDATA
		p.writeData(val)
	}
}

// Peek returns what ReadRegister would return for addr, without clearing
// vblank, the write toggle, or advancing any buffered-read/address
// state. Used by the disassembler/tracer, which must not perturb
// machine state.
func (p *PPU) Peek(addr uint16) uint8 {
	switch addr & 7 {
	case 2:
		return (p.status & 0xE0) | (p.busLatch & 0x1F)
	case 4:
		return p.oam[p.oamAddr]
	case 7:
		if p.v&0x3FFF >= 0x3F00 {
			return p.readPalette(p.v & 0x3FFF)
		}
		return p.readBuffer
	default:
		return p.busLatch
	}
}

// WriteOAMByte appends one byte at the current OAMADDR and advances it,
// used by the console's $4014 OAM DMA handler (which bypasses the normal
// rendering-active write lockout: DMA always lands).
func (p *PPU) WriteOAMByte(val uint8) {
	p.oam[p.oamAddr] = val
	p.oamAddr++
}

func (p *PPU) renderingActive() bool {
	return p.mask&0x18 != 0 && (p.scanline <= 239 || p.scanline == 261)
}

func (p *PPU) checkNMI() {
	nmi := p.nmiOutput && p.nmiOccurred
	if nmi && !p.nmiPrevious && p.nmiCallback != nil {
		p.nmiCallback()
	}
	p.nmiPrevious = nmi
}

func (p *PPU) incrementV() {
	if p.ctrl&0x04 != 0 {
		p.v += 32
	} else {
		p.v++
	}
	p.v &= 0x7FFF
}

func (p *PPU) readData() uint8 {
	addr := p.v & 0x3FFF
	var result uint8
	if addr >= 0x3F00 {
		result = p.readPalette(addr)
		p.readBuffer = p.readVRAM(addr - 0x1000)
	} else {
		result = p.readBuffer
		p.readBuffer = p.readVRAM(addr)
	}
	p.incrementV()
	return result
}

func (p *PPU) writeData(val uint8) {
	p.writeVRAM(p.v&0x3FFF, val)
	p.incrementV()
}

func (p *PPU) readVRAM(addr uint16) uint8 {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		return p.Mapper.PPURead(addr)
	case addr < 0x3F00:
		return p.vram[p.mirrorNametable(addr)]
	default:
		return p.readPalette(addr)
	}
}

func (p *PPU) writeVRAM(addr uint16, val uint8) {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		p.Mapper.PPUWrite(addr, val)
	case addr < 0x3F00:
		p.vram[p.mirrorNametable(addr)] = val
	default:
		p.writePalette(addr, val)
	}
}

// mirrorNametable folds a logical $2000-$3EFF nametable address (4
// logical 1KiB tables, with $3000-$3EFF exactly mirroring $2000-$2EFF)
// down to an index into the 2KiB physical VRAM, per the cartridge's
// mirroring mode.
func (p *PPU) mirrorNametable(addr uint16) uint16 {
	table := (addr - 0x2000) & 0x0FFF
	nt := int(table >> 10)
	offset := table & 0x03FF

	var physical int
	switch p.Mapper.Mirroring() {
	case ines.Vertical:
		physical = nt & 1
	case ines.Horizontal:
		physical = nt >> 1
	case ines.SingleHi:
		physical = 1
	default: // SingleLo and any unrecognized mode
		physical = 0
	}
	return uint16(physical)*0x400 + offset
}

func paletteIndex(addr uint16) uint16 {
	idx := addr & 0x1F
	if idx >= 0x10 && idx%4 == 0 {
		idx -= 0x10
	}
	return idx
}

func (p *PPU) readPalette(addr uint16) uint8     { return p.palette[paletteIndex(addr)] }
func (p *PPU) writePalette(addr uint16, v uint8) { p.palette[paletteIndex(addr)] = v & 0x3F }

/* scanline/dot state machine */

// Step advances the PPU by one dot (1/3 of a CPU cycle) and then performs
// that dot's work, so after it returns Scanline/Dot name the dot just
// executed. Call it 3 times per CPU cycle consumed, per the orchestrator's
// clock ratio.
func (p *PPU) Step() {
	p.advanceDot()

	if p.scanline <= 239 || p.scanline == 261 {
		p.renderStep()
	}

	if p.scanline == 241 && p.dot == 1 {
		p.status |= 0x80
		p.nmiOccurred = true
		p.checkNMI()
	}
	if p.scanline == 261 && p.dot == 1 {
		p.status &^= 0xE0
		p.nmiOccurred = false
		p.checkNMI()
	}
}

func (p *PPU) advanceDot() {
	p.dot++
	if p.scanline == 261 && p.dot == 340 && p.frameOdd && p.mask&0x18 != 0 {
		p.dot++ // odd-frame skip: the pre-render scanline is one dot short
	}
	if p.dot > 340 {
		p.dot = 0
		p.scanline++
		if p.scanline > 261 {
			p.scanline = 0
			p.frameOdd = !p.frameOdd
			p.frameCount++
			p.frameReady = true
		}
	}
}

func (p *PPU) renderStep() {
	if p.mask&0x18 == 0 {
		return
	}
	preRender := p.scanline == 261

	if (p.dot >= 1 && p.dot <= 256) || (p.dot >= 321 && p.dot <= 336) {
		p.shiftBackground()
		switch p.dot % 8 {
		case 1:
			p.loadBackgroundShifters()
			p.ntByte = p.readVRAM(0x2000 | (p.v & 0x0FFF))
		case 3:
			p.atByte = p.fetchAttribute()
		case 5:
			p.ptLowByte = p.fetchPatternByte(p.ntByte, false)
		case 7:
			p.ptHighByte = p.fetchPatternByte(p.ntByte, true)
		case 0:
			p.incrementCoarseX()
		}
	}

	if p.dot == 256 {
		p.incrementY()
	}
	if p.dot == 257 {
		p.copyHorizontalBits()
		p.evaluateSprites()
	}
	if preRender && p.dot >= 280 && p.dot <= 304 {
		p.copyVerticalBits()
	}

	if p.dot >= 1 && p.dot <= 256 && p.scanline <= 239 {
		p.renderPixel()
	}
}

func (p *PPU) shiftBackground() {
	p.bgShiftLo <<= 1
	p.bgShiftHi <<= 1
	p.attrShiftLo = (p.attrShiftLo << 1) | (p.attrLatchLo & 1)
	p.attrShiftHi = (p.attrShiftHi << 1) | (p.attrLatchHi & 1)
}

func (p *PPU) loadBackgroundShifters() {
	p.bgShiftLo = (p.bgShiftLo &^ 0xFF) | uint16(p.ptLowByte)
	p.bgShiftHi = (p.bgShiftHi &^ 0xFF) | uint16(p.ptHighByte)
	if p.atByte&1 != 0 {
		p.attrLatchLo = 0xFF
	} else {
		p.attrLatchLo = 0x00
	}
	if p.atByte&2 != 0 {
		p.attrLatchHi = 0xFF
	} else {
		p.attrLatchHi = 0x00
	}
}

func (p *PPU) fetchAttribute() uint8 {
	v := p.v
	addr := 0x23C0 | (v & 0x0C00) | ((v >> 4) & 0x38) | ((v >> 2) & 0x07)
	b := p.readVRAM(addr)
	shift := ((v >> 4) & 4) | (v & 2)
	return (b >> shift) & 0x03
}

func (p *PPU) fetchPatternByte(nt uint8, high bool) uint8 {
	fineY := (p.v >> 12) & 0x07
	table := uint16(0)
	if p.ctrl&0x10 != 0 {
		table = 0x1000
	}
	addr := table + uint16(nt)*16 + fineY
	if high {
		addr += 8
	}
	return p.Mapper.PPURead(addr)
}

func (p *PPU) incrementCoarseX() {
	if p.v&0x001F == 31 {
		p.v &^= 0x001F
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

func (p *PPU) incrementY() {
	if p.v&0x7000 != 0x7000 {
		p.v += 0x1000
		return
	}
	p.v &^= 0x7000
	y := (p.v & 0x03E0) >> 5
	switch y {
	case 29:
		y = 0
		p.v ^= 0x0800
	case 31:
		y = 0
	default:
		y++
	}
	p.v = (p.v &^ 0x03E0) | (y << 5)
}

func (p *PPU) copyHorizontalBits() { p.v = (p.v &^ 0x041F) | (p.t & 0x041F) }
func (p *PPU) copyVerticalBits()   { p.v = (p.v &^ 0x7BE0) | (p.t & 0x7BE0) }

func (p *PPU) evaluateSprites() {
	nextScanline := p.scanline + 1
	if nextScanline == 262 {
		nextScanline = 0
	}

	spriteHeight := 8
	if p.ctrl&0x20 != 0 {
		spriteHeight = 16
	}

	p.spriteCount = 0
	p.oamAddr = 0

	overflow := false
	for i := 0; i < 64; i++ {
		y := int(p.oam[i*4])
		row := nextScanline - (y + 1)
		if row < 0 || row >= spriteHeight {
			continue
		}
		if p.spriteCount == 8 {
			overflow = true
			break
		}

		tileIndex := p.oam[i*4+1]
		attr := p.oam[i*4+2]
		x := p.oam[i*4+3]
		if attr&0x80 != 0 {
			row = spriteHeight - 1 - row
		}

		var lo, hi uint8
		if spriteHeight == 16 {
			table := uint16(tileIndex&1) * 0x1000
			tile := uint16(tileIndex &^ 1)
			r := row
			if r >= 8 {
				tile++
				r -= 8
			}
			addr := table + tile*16 + uint16(r)
			lo = p.Mapper.PPURead(addr)
			hi = p.Mapper.PPURead(addr + 8)
		} else {
			table := uint16(0)
			if p.ctrl&0x08 != 0 {
				table = 0x1000
			}
			addr := table + uint16(tileIndex)*16 + uint16(row)
			lo = p.Mapper.PPURead(addr)
			hi = p.Mapper.PPURead(addr + 8)
		}

		idx := p.spriteCount
		p.spritePatternsLo[idx] = lo
		p.spritePatternsHi[idx] = hi
		p.spriteAttrs[idx] = attr
		p.spriteX[idx] = x
		p.spriteIsZero[idx] = i == 0
		p.spriteCount++
	}
	if overflow {
		p.status |= 0x20
	}
}

// spritePixelAt returns the highest-priority (lowest OAM index) opaque
// sprite pixel covering framebuffer column x, if any.
func (p *PPU) spritePixelAt(x int) (pixel, palette uint8, opaque, isZero, behindBG bool) {
	if p.mask&0x10 == 0 {
		return
	}
	if p.mask&0x04 == 0 && x < 8 {
		return
	}
	for i := 0; i < p.spriteCount; i++ {
		sx := int(p.spriteX[i])
		if x < sx || x >= sx+8 {
			continue
		}
		col := uint8(x - sx)
		attr := p.spriteAttrs[i]
		if attr&0x40 != 0 {
			col = 7 - col
		}
		lo := (p.spritePatternsLo[i] >> (7 - col)) & 1
		hi := (p.spritePatternsHi[i] >> (7 - col)) & 1
		px := lo | hi<<1
		if px == 0 {
			continue
		}
		return px, attr & 0x03, true, p.spriteIsZero[i], attr&0x20 != 0
	}
	return
}

func (p *PPU) renderPixel() {
	x := p.dot - 1
	y := p.scanline

	var bgPixel, bgPalette uint8
	if p.mask&0x08 != 0 && (x >= 8 || p.mask&0x02 != 0) {
		shift := uint(15 - p.x)
		lo := uint8((p.bgShiftLo >> shift) & 1)
		hi := uint8((p.bgShiftHi >> shift) & 1)
		bgPixel = lo | hi<<1
		ashift := uint(7 - p.x)
		pl0 := (p.attrShiftLo >> ashift) & 1
		pl1 := (p.attrShiftHi >> ashift) & 1
		bgPalette = pl0 | pl1<<1
	}
	bgOpaque := bgPixel != 0

	spPixel, spPalette, spOpaque, spIsZero, spBehind := p.spritePixelAt(x)

	if bgOpaque && spOpaque && spIsZero && x != 255 && p.mask&0x18 == 0x18 {
		p.status |= 0x40
	}

	var colorAddr uint16
	switch {
	case !bgOpaque && !spOpaque:
		colorAddr = 0x3F00
	case !bgOpaque && spOpaque:
		colorAddr = 0x3F10 + uint16(spPalette)*4 + uint16(spPixel)
	case bgOpaque && !spOpaque:
		colorAddr = 0x3F00 + uint16(bgPalette)*4 + uint16(bgPixel)
	case spBehind:
		colorAddr = 0x3F00 + uint16(bgPalette)*4 + uint16(bgPixel)
	default:
		colorAddr = 0x3F10 + uint16(spPalette)*4 + uint16(spPixel)
	}

	idx := p.readPalette(colorAddr) & 0x3F
	p.Frame[y*ScreenWidth+x] = SystemPalette[idx]
}
