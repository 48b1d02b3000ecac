package cpu

import "fmt"

// Disassemble renders the instruction at addr as a "PC  OPCODE BYTES  MNEMONIC
// OPERAND" line in the nestest/Nintendulator log format, for trace output
// (see console.Tracer). peek reads memory without side effects; callers pass
// a shadow read path since regular CPURead can have side effects (PPU
// register reads, controller shifts) that a disassembler must not trigger.
func Disassemble(addr uint16, peek func(uint16) uint8) string {
	opcode := peek(addr)
	e := decodeTable[opcode]
	if e.exec == nil {
		return fmt.Sprintf("%04X  %02X        .DB $%02X", addr, opcode, opcode)
	}

	var size uint16
	switch e.mode {
	case modeImplied, modeAccumulator:
		size = 1
	case modeImmediate, modeZeroPage, modeZeroPageX, modeZeroPageY,
		modeIndirectX, modeIndirectY, modeRelative:
		size = 2
	default:
		size = 3
	}

	bytes := fmt.Sprintf("%02X", opcode)
	for i := uint16(1); i < size; i++ {
		bytes += fmt.Sprintf(" %02X", peek(addr+i))
	}

	var operand string
	switch e.mode {
	case modeImplied:
		operand = ""
	case modeAccumulator:
		operand = "A"
	case modeImmediate:
		operand = fmt.Sprintf("#$%02X", peek(addr+1))
	case modeZeroPage:
		operand = fmt.Sprintf("$%02X", peek(addr+1))
	case modeZeroPageX:
		operand = fmt.Sprintf("$%02X,X", peek(addr+1))
	case modeZeroPageY:
		operand = fmt.Sprintf("$%02X,Y", peek(addr+1))
	case modeAbsolute:
		operand = fmt.Sprintf("$%02X%02X", peek(addr+2), peek(addr+1))
	case modeAbsoluteX:
		operand = fmt.Sprintf("$%02X%02X,X", peek(addr+2), peek(addr+1))
	case modeAbsoluteY:
		operand = fmt.Sprintf("$%02X%02X,Y", peek(addr+2), peek(addr+1))
	case modeIndirect:
		operand = fmt.Sprintf("($%02X%02X)", peek(addr+2), peek(addr+1))
	case modeIndirectX:
		operand = fmt.Sprintf("($%02X,X)", peek(addr+1))
	case modeIndirectY:
		operand = fmt.Sprintf("($%02X),Y", peek(addr+1))
	case modeRelative:
		offset := int8(peek(addr + 1))
		operand = fmt.Sprintf("$%04X", addr+2+uint16(offset))
	}

	return fmt.Sprintf("%04X  %-9s %s %s", addr, bytes, e.name, operand)
}
