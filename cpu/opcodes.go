package cpu

// addrMode names the 6502's addressing modes. The decode table maps each
// opcode byte to {mnemonic-bearing exec func, mode, base cycles}, per the
// opcode/addressing-mode/cycle split used throughout 6502 references (and
// mirrored in arl-nestor's disasm tables, which key off the same modes).
type addrMode uint8

const (
	modeImplied addrMode = iota
	modeAccumulator
	modeImmediate
	modeZeroPage
	modeZeroPageX
	modeZeroPageY
	modeAbsolute
	modeAbsoluteX
	modeAbsoluteY
	modeIndirect
	modeIndirectX
	modeIndirectY
	modeRelative
)

// operand is the resolved location an opcode's exec function reads from or
// writes to. For modeAccumulator, addr is unused and loadOperand/
// storeOperand act on c.A directly.
type operand struct {
	addr uint16
	mode addrMode
}

func (c *CPU) loadOperand(o operand) uint8 {
	if o.mode == modeAccumulator {
		return c.A
	}
	return c.Bus.CPURead(o.addr)
}

func (c *CPU) storeOperand(o operand, v uint8) {
	if o.mode == modeAccumulator {
		c.A = v
		return
	}
	c.Bus.CPUWrite(o.addr, v)
}

// resolve computes the operand for mode given the CPU's current PC
// (pointing at the opcode byte), returning the operand, whether resolving
// it crossed a page boundary, and the instruction's total size in bytes.
func (c *CPU) resolve(mode addrMode) (o operand, crossed bool, size uint16) {
	switch mode {
	case modeImplied, modeAccumulator:
		return operand{mode: mode}, false, 1
	case modeImmediate:
		return operand{addr: c.PC + 1, mode: mode}, false, 2
	case modeZeroPage:
		addr := uint16(c.Bus.CPURead(c.PC + 1))
		return operand{addr: addr, mode: mode}, false, 2
	case modeZeroPageX:
		addr := uint16(c.Bus.CPURead(c.PC+1) + c.X)
		return operand{addr: addr, mode: mode}, false, 2
	case modeZeroPageY:
		addr := uint16(c.Bus.CPURead(c.PC+1) + c.Y)
		return operand{addr: addr, mode: mode}, false, 2
	case modeAbsolute:
		addr := c.read16(c.PC + 1)
		return operand{addr: addr, mode: mode}, false, 3
	case modeAbsoluteX:
		base := c.read16(c.PC + 1)
		addr := base + uint16(c.X)
		return operand{addr: addr, mode: mode}, pageCrossed(base, addr), 3
	case modeAbsoluteY:
		base := c.read16(c.PC + 1)
		addr := base + uint16(c.Y)
		return operand{addr: addr, mode: mode}, pageCrossed(base, addr), 3
	case modeIndirect:
		ptr := c.read16(c.PC + 1)
		addr := c.read16bug(ptr)
		return operand{addr: addr, mode: mode}, false, 3
	case modeIndirectX:
		zp := c.Bus.CPURead(c.PC+1) + c.X
		addr := c.read16zp(zp)
		return operand{addr: addr, mode: mode}, false, 2
	case modeIndirectY:
		zp := c.Bus.CPURead(c.PC + 1)
		base := c.read16zp(zp)
		addr := base + uint16(c.Y)
		return operand{addr: addr, mode: mode}, pageCrossed(base, addr), 2
	case modeRelative:
		offset := int8(c.Bus.CPURead(c.PC + 1))
		addr := c.PC + 2 + uint16(offset)
		return operand{addr: addr, mode: mode}, false, 2
	}
	panic("cpu: unhandled addressing mode")
}

// read16zp reads a 16-bit pointer from zero page, wrapping within page 0
// rather than crossing into page 1.
func (c *CPU) read16zp(zp uint8) uint16 {
	lo := c.Bus.CPURead(uint16(zp))
	hi := c.Bus.CPURead(uint16(zp + 1))
	return uint16(hi)<<8 | uint16(lo)
}

// execFunc executes one decoded instruction and returns any cycles beyond
// the opcode's base+page-penalty count (used only by branches).
type execFunc func(c *CPU, o operand) int

type opEntry struct {
	name        string
	mode        addrMode
	cycles      int
	pagePenalty bool
	exec        execFunc
}

// decodeTable covers the 151 official 6502 opcodes. Unlisted entries have
// a nil exec and are treated as undefined at runtime (see execOne).
var decodeTable = buildDecodeTable()

func buildDecodeTable() [256]opEntry {
	var t [256]opEntry

	set := func(op uint8, name string, mode addrMode, cycles int, pagePenalty bool, exec execFunc) {
		t[op] = opEntry{name: name, mode: mode, cycles: cycles, pagePenalty: pagePenalty, exec: exec}
	}

	// ADC
	set(0x69, "ADC", modeImmediate, 2, false, opADC)
	set(0x65, "ADC", modeZeroPage, 3, false, opADC)
	set(0x75, "ADC", modeZeroPageX, 4, false, opADC)
	set(0x6D, "ADC", modeAbsolute, 4, false, opADC)
	set(0x7D, "ADC", modeAbsoluteX, 4, true, opADC)
	set(0x79, "ADC", modeAbsoluteY, 4, true, opADC)
	set(0x61, "ADC", modeIndirectX, 6, false, opADC)
	set(0x71, "ADC", modeIndirectY, 5, true, opADC)

	// AND
	set(0x29, "AND", modeImmediate, 2, false, opAND)
	set(0x25, "AND", modeZeroPage, 3, false, opAND)
	set(0x35, "AND", modeZeroPageX, 4, false, opAND)
	set(0x2D, "AND", modeAbsolute, 4, false, opAND)
	set(0x3D, "AND", modeAbsoluteX, 4, true, opAND)
	set(0x39, "AND", modeAbsoluteY, 4, true, opAND)
	set(0x21, "AND", modeIndirectX, 6, false, opAND)
	set(0x31, "AND", modeIndirectY, 5, true, opAND)

	// ASL
	set(0x0A, "ASL", modeAccumulator, 2, false, opASL)
	set(0x06, "ASL", modeZeroPage, 5, false, opASL)
	set(0x16, "ASL", modeZeroPageX, 6, false, opASL)
	set(0x0E, "ASL", modeAbsolute, 6, false, opASL)
	set(0x1E, "ASL", modeAbsoluteX, 7, false, opASL)

	// branches
	set(0x90, "BCC", modeRelative, 2, false, branch(func(c *CPU) bool { return !c.P.C() }))
	set(0xB0, "BCS", modeRelative, 2, false, branch(func(c *CPU) bool { return c.P.C() }))
	set(0xF0, "BEQ", modeRelative, 2, false, branch(func(c *CPU) bool { return c.P.Z() }))
	set(0x30, "BMI", modeRelative, 2, false, branch(func(c *CPU) bool { return c.P.N() }))
	set(0xD0, "BNE", modeRelative, 2, false, branch(func(c *CPU) bool { return !c.P.Z() }))
	set(0x10, "BPL", modeRelative, 2, false, branch(func(c *CPU) bool { return !c.P.N() }))
	set(0x50, "BVC", modeRelative, 2, false, branch(func(c *CPU) bool { return !c.P.V() }))
	set(0x70, "BVS", modeRelative, 2, false, branch(func(c *CPU) bool { return c.P.V() }))

	// BIT
	set(0x24, "BIT", modeZeroPage, 3, false, opBIT)
	set(0x2C, "BIT", modeAbsolute, 4, false, opBIT)

	// BRK
	set(0x00, "BRK", modeImplied, 7, false, opBRK)

	// flag ops
	set(0x18, "CLC", modeImplied, 2, false, func(c *CPU, o operand) int { c.P.clear(flagC); return 0 })
	set(0xD8, "CLD", modeImplied, 2, false, func(c *CPU, o operand) int { c.P.clear(flagD); return 0 })
	set(0x58, "CLI", modeImplied, 2, false, func(c *CPU, o operand) int { c.P.clear(flagI); return 0 })
	set(0xB8, "CLV", modeImplied, 2, false, func(c *CPU, o operand) int { c.P.clear(flagV); return 0 })
	set(0x38, "SEC", modeImplied, 2, false, func(c *CPU, o operand) int { c.P.set(flagC); return 0 })
	set(0xF8, "SED", modeImplied, 2, false, func(c *CPU, o operand) int { c.P.set(flagD); return 0 })
	set(0x78, "SEI", modeImplied, 2, false, func(c *CPU, o operand) int { c.P.set(flagI); return 0 })

	// CMP / CPX / CPY
	set(0xC9, "CMP", modeImmediate, 2, false, compare(func(c *CPU) uint8 { return c.A }))
	set(0xC5, "CMP", modeZeroPage, 3, false, compare(func(c *CPU) uint8 { return c.A }))
	set(0xD5, "CMP", modeZeroPageX, 4, false, compare(func(c *CPU) uint8 { return c.A }))
	set(0xCD, "CMP", modeAbsolute, 4, false, compare(func(c *CPU) uint8 { return c.A }))
	set(0xDD, "CMP", modeAbsoluteX, 4, true, compare(func(c *CPU) uint8 { return c.A }))
	set(0xD9, "CMP", modeAbsoluteY, 4, true, compare(func(c *CPU) uint8 { return c.A }))
	set(0xC1, "CMP", modeIndirectX, 6, false, compare(func(c *CPU) uint8 { return c.A }))
	set(0xD1, "CMP", modeIndirectY, 5, true, compare(func(c *CPU) uint8 { return c.A }))

	set(0xE0, "CPX", modeImmediate, 2, false, compare(func(c *CPU) uint8 { return c.X }))
	set(0xE4, "CPX", modeZeroPage, 3, false, compare(func(c *CPU) uint8 { return c.X }))
	set(0xEC, "CPX", modeAbsolute, 4, false, compare(func(c *CPU) uint8 { return c.X }))

	set(0xC0, "CPY", modeImmediate, 2, false, compare(func(c *CPU) uint8 { return c.Y }))
	set(0xC4, "CPY", modeZeroPage, 3, false, compare(func(c *CPU) uint8 { return c.Y }))
	set(0xCC, "CPY", modeAbsolute, 4, false, compare(func(c *CPU) uint8 { return c.Y }))

	// DEC / DEX / DEY
	set(0xC6, "DEC", modeZeroPage, 5, false, opDEC)
	set(0xD6, "DEC", modeZeroPageX, 6, false, opDEC)
	set(0xCE, "DEC", modeAbsolute, 6, false, opDEC)
	set(0xDE, "DEC", modeAbsoluteX, 7, false, opDEC)
	set(0xCA, "DEX", modeImplied, 2, false, func(c *CPU, o operand) int { c.X--; c.P.setNZ(c.X); return 0 })
	set(0x88, "DEY", modeImplied, 2, false, func(c *CPU, o operand) int { c.Y--; c.P.setNZ(c.Y); return 0 })

	// EOR
	set(0x49, "EOR", modeImmediate, 2, false, opEOR)
	set(0x45, "EOR", modeZeroPage, 3, false, opEOR)
	set(0x55, "EOR", modeZeroPageX, 4, false, opEOR)
	set(0x4D, "EOR", modeAbsolute, 4, false, opEOR)
	set(0x5D, "EOR", modeAbsoluteX, 4, true, opEOR)
	set(0x59, "EOR", modeAbsoluteY, 4, true, opEOR)
	set(0x41, "EOR", modeIndirectX, 6, false, opEOR)
	set(0x51, "EOR", modeIndirectY, 5, true, opEOR)

	// INC / INX / INY
	set(0xE6, "INC", modeZeroPage, 5, false, opINC)
	set(0xF6, "INC", modeZeroPageX, 6, false, opINC)
	set(0xEE, "INC", modeAbsolute, 6, false, opINC)
	set(0xFE, "INC", modeAbsoluteX, 7, false, opINC)
	set(0xE8, "INX", modeImplied, 2, false, func(c *CPU, o operand) int { c.X++; c.P.setNZ(c.X); return 0 })
	set(0xC8, "INY", modeImplied, 2, false, func(c *CPU, o operand) int { c.Y++; c.P.setNZ(c.Y); return 0 })

	// JMP / JSR / RTS / RTI
	set(0x4C, "JMP", modeAbsolute, 3, false, func(c *CPU, o operand) int { c.PC = o.addr; return 0 })
	set(0x6C, "JMP", modeIndirect, 5, false, func(c *CPU, o operand) int { c.PC = o.addr; return 0 })
	set(0x20, "JSR", modeAbsolute, 6, false, opJSR)
	set(0x60, "RTS", modeImplied, 6, false, func(c *CPU, o operand) int { c.PC = c.pull16() + 1; return 0 })
	set(0x40, "RTI", modeImplied, 6, false, opRTI)

	// LDA / LDX / LDY
	set(0xA9, "LDA", modeImmediate, 2, false, load(func(c *CPU, v uint8) { c.A = v }))
	set(0xA5, "LDA", modeZeroPage, 3, false, load(func(c *CPU, v uint8) { c.A = v }))
	set(0xB5, "LDA", modeZeroPageX, 4, false, load(func(c *CPU, v uint8) { c.A = v }))
	set(0xAD, "LDA", modeAbsolute, 4, false, load(func(c *CPU, v uint8) { c.A = v }))
	set(0xBD, "LDA", modeAbsoluteX, 4, true, load(func(c *CPU, v uint8) { c.A = v }))
	set(0xB9, "LDA", modeAbsoluteY, 4, true, load(func(c *CPU, v uint8) { c.A = v }))
	set(0xA1, "LDA", modeIndirectX, 6, false, load(func(c *CPU, v uint8) { c.A = v }))
	set(0xB1, "LDA", modeIndirectY, 5, true, load(func(c *CPU, v uint8) { c.A = v }))

	set(0xA2, "LDX", modeImmediate, 2, false, load(func(c *CPU, v uint8) { c.X = v }))
	set(0xA6, "LDX", modeZeroPage, 3, false, load(func(c *CPU, v uint8) { c.X = v }))
	set(0xB6, "LDX", modeZeroPageY, 4, false, load(func(c *CPU, v uint8) { c.X = v }))
	set(0xAE, "LDX", modeAbsolute, 4, false, load(func(c *CPU, v uint8) { c.X = v }))
	set(0xBE, "LDX", modeAbsoluteY, 4, true, load(func(c *CPU, v uint8) { c.X = v }))

	set(0xA0, "LDY", modeImmediate, 2, false, load(func(c *CPU, v uint8) { c.Y = v }))
	set(0xA4, "LDY", modeZeroPage, 3, false, load(func(c *CPU, v uint8) { c.Y = v }))
	set(0xB4, "LDY", modeZeroPageX, 4, false, load(func(c *CPU, v uint8) { c.Y = v }))
	set(0xAC, "LDY", modeAbsolute, 4, false, load(func(c *CPU, v uint8) { c.Y = v }))
	set(0xBC, "LDY", modeAbsoluteX, 4, true, load(func(c *CPU, v uint8) { c.Y = v }))

	// LSR
	set(0x4A, "LSR", modeAccumulator, 2, false, opLSR)
	set(0x46, "LSR", modeZeroPage, 5, false, opLSR)
	set(0x56, "LSR", modeZeroPageX, 6, false, opLSR)
	set(0x4E, "LSR", modeAbsolute, 6, false, opLSR)
	set(0x5E, "LSR", modeAbsoluteX, 7, false, opLSR)

	// NOP
	set(0xEA, "NOP", modeImplied, 2, false, func(c *CPU, o operand) int { return 0 })

	// ORA
	set(0x09, "ORA", modeImmediate, 2, false, opORA)
	set(0x05, "ORA", modeZeroPage, 3, false, opORA)
	set(0x15, "ORA", modeZeroPageX, 4, false, opORA)
	set(0x0D, "ORA", modeAbsolute, 4, false, opORA)
	set(0x1D, "ORA", modeAbsoluteX, 4, true, opORA)
	set(0x19, "ORA", modeAbsoluteY, 4, true, opORA)
	set(0x01, "ORA", modeIndirectX, 6, false, opORA)
	set(0x11, "ORA", modeIndirectY, 5, true, opORA)

	// stack
	set(0x48, "PHA", modeImplied, 3, false, func(c *CPU, o operand) int { c.push8(c.A); return 0 })
	set(0x08, "PHP", modeImplied, 3, false, opPHP)
	set(0x68, "PLA", modeImplied, 4, false, func(c *CPU, o operand) int { c.A = c.pull8(); c.P.setNZ(c.A); return 0 })
	set(0x28, "PLP", modeImplied, 4, false, opPLP)

	// ROL / ROR
	set(0x2A, "ROL", modeAccumulator, 2, false, opROL)
	set(0x26, "ROL", modeZeroPage, 5, false, opROL)
	set(0x36, "ROL", modeZeroPageX, 6, false, opROL)
	set(0x2E, "ROL", modeAbsolute, 6, false, opROL)
	set(0x3E, "ROL", modeAbsoluteX, 7, false, opROL)

	set(0x6A, "ROR", modeAccumulator, 2, false, opROR)
	set(0x66, "ROR", modeZeroPage, 5, false, opROR)
	set(0x76, "ROR", modeZeroPageX, 6, false, opROR)
	set(0x6E, "ROR", modeAbsolute, 6, false, opROR)
	set(0x7E, "ROR", modeAbsoluteX, 7, false, opROR)

	// SBC
	set(0xE9, "SBC", modeImmediate, 2, false, opSBC)
	set(0xE5, "SBC", modeZeroPage, 3, false, opSBC)
	set(0xF5, "SBC", modeZeroPageX, 4, false, opSBC)
	set(0xED, "SBC", modeAbsolute, 4, false, opSBC)
	set(0xFD, "SBC", modeAbsoluteX, 4, true, opSBC)
	set(0xF9, "SBC", modeAbsoluteY, 4, true, opSBC)
	set(0xE1, "SBC", modeIndirectX, 6, false, opSBC)
	set(0xF1, "SBC", modeIndirectY, 5, true, opSBC)

	// STA / STX / STY
	set(0x85, "STA", modeZeroPage, 3, false, store(func(c *CPU) uint8 { return c.A }))
	set(0x95, "STA", modeZeroPageX, 4, false, store(func(c *CPU) uint8 { return c.A }))
	set(0x8D, "STA", modeAbsolute, 4, false, store(func(c *CPU) uint8 { return c.A }))
	set(0x9D, "STA", modeAbsoluteX, 5, false, store(func(c *CPU) uint8 { return c.A }))
	set(0x99, "STA", modeAbsoluteY, 5, false, store(func(c *CPU) uint8 { return c.A }))
	set(0x81, "STA", modeIndirectX, 6, false, store(func(c *CPU) uint8 { return c.A }))
	set(0x91, "STA", modeIndirectY, 6, false, store(func(c *CPU) uint8 { return c.A }))

	set(0x86, "STX", modeZeroPage, 3, false, store(func(c *CPU) uint8 { return c.X }))
	set(0x96, "STX", modeZeroPageY, 4, false, store(func(c *CPU) uint8 { return c.X }))
	set(0x8E, "STX", modeAbsolute, 4, false, store(func(c *CPU) uint8 { return c.X }))

	set(0x84, "STY", modeZeroPage, 3, false, store(func(c *CPU) uint8 { return c.Y }))
	set(0x94, "STY", modeZeroPageX, 4, false, store(func(c *CPU) uint8 { return c.Y }))
	set(0x8C, "STY", modeAbsolute, 4, false, store(func(c *CPU) uint8 { return c.Y }))

	// register transfers
	set(0xAA, "TAX", modeImplied, 2, false, func(c *CPU, o operand) int { c.X = c.A; c.P.setNZ(c.X); return 0 })
	set(0xA8, "TAY", modeImplied, 2, false, func(c *CPU, o operand) int { c.Y = c.A; c.P.setNZ(c.Y); return 0 })
	set(0xBA, "TSX", modeImplied, 2, false, func(c *CPU, o operand) int { c.X = c.SP; c.P.setNZ(c.X); return 0 })
	set(0x8A, "TXA", modeImplied, 2, false, func(c *CPU, o operand) int { c.A = c.X; c.P.setNZ(c.A); return 0 })
	set(0x9A, "TXS", modeImplied, 2, false, func(c *CPU, o operand) int { c.SP = c.X; return 0 })
	set(0x98, "TYA", modeImplied, 2, false, func(c *CPU, o operand) int { c.A = c.Y; c.P.setNZ(c.A); return 0 })

	return t
}

/* shared exec-function shapes */

func load(assign func(c *CPU, v uint8)) execFunc {
	return func(c *CPU, o operand) int {
		v := c.loadOperand(o)
		assign(c, v)
		c.P.setNZ(v)
		return 0
	}
}

func store(value func(c *CPU) uint8) execFunc {
	return func(c *CPU, o operand) int {
		c.storeOperand(o, value(c))
		return 0
	}
}

func compare(reg func(c *CPU) uint8) execFunc {
	return func(c *CPU, o operand) int {
		v := c.loadOperand(o)
		r := reg(c)
		d := r - v
		c.P.setC(r >= v)
		c.P.setNZ(d)
		return 0
	}
}

func branch(taken func(c *CPU) bool) execFunc {
	return func(c *CPU, o operand) int {
		if !taken(c) {
			return 0
		}
		target := o.addr
		extra := 1
		if pageCrossed(c.PC, target) {
			extra++
		}
		c.PC = target
		return extra
	}
}

func opADC(c *CPU, o operand) int {
	v := c.loadOperand(o)
	sum := uint16(c.A) + uint16(v) + uint16(b2u8(c.P.C()))
	result := uint8(sum)
	c.P.setC(sum > 0xFF)
	c.P.setV((c.A^v)&0x80 == 0 && (c.A^result)&0x80 != 0)
	c.A = result
	c.P.setNZ(c.A)
	return 0
}

func opSBC(c *CPU, o operand) int {
	v := c.loadOperand(o) ^ 0xFF
	sum := uint16(c.A) + uint16(v) + uint16(b2u8(c.P.C()))
	result := uint8(sum)
	c.P.setC(sum > 0xFF)
	c.P.setV((c.A^v)&0x80 == 0 && (c.A^result)&0x80 != 0)
	c.A = result
	c.P.setNZ(c.A)
	return 0
}

func opAND(c *CPU, o operand) int {
	c.A &= c.loadOperand(o)
	c.P.setNZ(c.A)
	return 0
}

func opORA(c *CPU, o operand) int {
	c.A |= c.loadOperand(o)
	c.P.setNZ(c.A)
	return 0
}

func opEOR(c *CPU, o operand) int {
	c.A ^= c.loadOperand(o)
	c.P.setNZ(c.A)
	return 0
}

func opASL(c *CPU, o operand) int {
	v := c.loadOperand(o)
	c.P.setC(v&0x80 != 0)
	v <<= 1
	c.storeOperand(o, v)
	c.P.setNZ(v)
	return 0
}

func opLSR(c *CPU, o operand) int {
	v := c.loadOperand(o)
	c.P.setC(v&0x01 != 0)
	v >>= 1
	c.storeOperand(o, v)
	c.P.setNZ(v)
	return 0
}

func opROL(c *CPU, o operand) int {
	v := c.loadOperand(o)
	carryIn := b2u8(c.P.C())
	c.P.setC(v&0x80 != 0)
	v = v<<1 | carryIn
	c.storeOperand(o, v)
	c.P.setNZ(v)
	return 0
}

func opROR(c *CPU, o operand) int {
	v := c.loadOperand(o)
	carryIn := b2u8(c.P.C())
	c.P.setC(v&0x01 != 0)
	v = v>>1 | carryIn<<7
	c.storeOperand(o, v)
	c.P.setNZ(v)
	return 0
}

func opINC(c *CPU, o operand) int {
	v := c.loadOperand(o) + 1
	c.storeOperand(o, v)
	c.P.setNZ(v)
	return 0
}

func opDEC(c *CPU, o operand) int {
	v := c.loadOperand(o) - 1
	c.storeOperand(o, v)
	c.P.setNZ(v)
	return 0
}

func opBIT(c *CPU, o operand) int {
	v := c.loadOperand(o)
	c.P.setZ(c.A&v == 0)
	c.P.setN(v&0x80 != 0)
	c.P.setV(v&0x40 != 0)
	return 0
}

func opJSR(c *CPU, o operand) int {
	c.push16(c.PC - 1)
	c.PC = o.addr
	return 0
}

func opBRK(c *CPU, o operand) int {
	c.PC++ // BRK's operand byte is skipped (signature byte)
	c.interrupt(IRQVector, true)
	return 0
}

func opRTI(c *CPU, o operand) int {
	c.P = P(c.pull8())&^flagB | flagUnused
	c.PC = c.pull16()
	return 0
}

func opPHP(c *CPU, o operand) int {
	c.push8(uint8(c.P | flagB | flagUnused))
	return 0
}

func opPLP(c *CPU, o operand) int {
	c.P = P(c.pull8())&^flagB | flagUnused
	return 0
}
