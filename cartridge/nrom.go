package cartridge

import "nesgo/ines"

// NROM (mapper 0) has no bank-switching registers: PRG-ROM is either 16KiB
// (mirrored twice into $8000-$FFFF) or 32KiB (mapped once), and CHR is a
// fixed 8KiB window, backed by ROM or, when the header declares zero CHR
// banks, by RAM.
type NROM struct {
	prg []byte // 16KiB or 32KiB
	chr []byte // always 8KiB; writable when chrRAM is true
	ram [prgRAMSize]byte

	chrRAM    bool
	mirroring ines.Mirroring
}

func newNROM(rom *ines.Rom) *NROM {
	n := &NROM{
		prg:       rom.PRG,
		mirroring: rom.MirroringMode(),
	}
	if rom.HasCHRRAM() {
		n.chr = make([]byte, chrRAMSize)
		n.chrRAM = true
	} else {
		n.chr = rom.CHR
	}
	return n
}

func (n *NROM) CPURead(addr uint16) uint8 {
	switch {
	case addr >= 0x6000 && addr < 0x8000:
		return n.ram[addr-0x6000]
	case addr >= 0x8000:
		return n.prg[int(addr-0x8000)%len(n.prg)]
	default:
		return 0
	}
}

func (n *NROM) CPUWrite(addr uint16, val uint8) {
	if addr >= 0x6000 && addr < 0x8000 {
		n.ram[addr-0x6000] = val
	}
	// Writes into $8000-$FFFF are ignored: NROM has no registers.
}

func (n *NROM) PPURead(addr uint16) uint8 {
	return n.chr[addr&0x1FFF]
}

func (n *NROM) PPUWrite(addr uint16, val uint8) {
	if n.chrRAM {
		n.chr[addr&0x1FFF] = val
	}
}

func (n *NROM) Mirroring() ines.Mirroring { return n.mirroring }
