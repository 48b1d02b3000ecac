package main

import (
	"fmt"
	"os"

	"github.com/go-faster/jx"

	"nesgo/ines"
)

// runRomInfo prints a ROM's iNES header, plain-text or as JSON, standing
// in for the teacher's structured-wire-encoding debugger use of jx (see
// DESIGN.md).
func runRomInfo(cfg RomInfo) {
	rom, err := ines.Open(cfg.RomPath)
	checkf(err, "failed to open rom")

	if !cfg.JSON {
		rom.PrintInfo(os.Stdout)
		return
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("mapper")
	e.UInt8(rom.Mapper())
	e.FieldStart("mirroring")
	e.Str(rom.MirroringMode().String())
	e.FieldStart("prg_size")
	e.Int(rom.PRGSize())
	e.FieldStart("chr_size")
	e.Int(rom.CHRSize())
	e.FieldStart("chr_ram")
	e.Bool(rom.HasCHRRAM())
	e.FieldStart("battery")
	e.Bool(rom.HasBattery())
	e.FieldStart("trainer")
	e.Bool(rom.HasTrainer())
	e.ObjEnd()

	fmt.Println(e.String())
}
