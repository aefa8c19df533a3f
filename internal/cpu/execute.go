package cpu

// execute performs the operation named by opcode against the already
// computed effective address, returning any extra cycles earned by a page
// crossing (for qualifying read instructions) or a taken branch.
func (c *CPU) execute(opcode uint8, addr uint16, pageCrossed bool) uint8 {
	var extra uint8
	if pageCrossed && readPenalizingOpcodes[opcode] {
		extra = 1
	}

	switch opcode {
	// --- Load/Store ---
	case 0xA9, 0xA5, 0xB5, 0xAD, 0xBD, 0xB9, 0xA1, 0xB1: // LDA
		c.A = c.bus.Read(addr)
		c.setZN(c.A)
	case 0xA2, 0xA6, 0xB6, 0xAE, 0xBE: // LDX
		c.X = c.bus.Read(addr)
		c.setZN(c.X)
	case 0xA0, 0xA4, 0xB4, 0xAC, 0xBC: // LDY
		c.Y = c.bus.Read(addr)
		c.setZN(c.Y)
	case 0xA3, 0xA7, 0xAF, 0xB3, 0xB7, 0xBF, 0xAB: // LAX
		v := c.bus.Read(addr)
		c.A, c.X = v, v
		c.setZN(v)
	case 0x85, 0x95, 0x8D, 0x9D, 0x99, 0x81, 0x91: // STA
		c.bus.Write(addr, c.A)
	case 0x86, 0x96, 0x8E: // STX
		c.bus.Write(addr, c.X)
	case 0x84, 0x94, 0x8C: // STY
		c.bus.Write(addr, c.Y)
	case 0x83, 0x87, 0x8F, 0x97: // SAX
		c.bus.Write(addr, c.A&c.X)

	// --- Transfers ---
	case 0xAA: // TAX
		c.X = c.A
		c.setZN(c.X)
	case 0xA8: // TAY
		c.Y = c.A
		c.setZN(c.Y)
	case 0x8A: // TXA
		c.A = c.X
		c.setZN(c.A)
	case 0x98: // TYA
		c.A = c.Y
		c.setZN(c.A)
	case 0xBA: // TSX
		c.X = c.SP
		c.setZN(c.X)
	case 0x9A: // TXS
		c.SP = c.X

	// --- Stack ---
	case 0x48: // PHA
		c.push(c.A)
	case 0x68: // PLA
		c.A = c.pop()
		c.setZN(c.A)
	case 0x08: // PHP
		c.push(c.packStatus() | flagB)
	case 0x28: // PLP
		c.restoreStatus(c.pop())

	// --- Logic ---
	case 0x29, 0x25, 0x35, 0x2D, 0x3D, 0x39, 0x21, 0x31: // AND
		c.A &= c.bus.Read(addr)
		c.setZN(c.A)
	case 0x09, 0x05, 0x15, 0x0D, 0x1D, 0x19, 0x01, 0x11: // ORA
		c.A |= c.bus.Read(addr)
		c.setZN(c.A)
	case 0x49, 0x45, 0x55, 0x4D, 0x5D, 0x59, 0x41, 0x51: // EOR
		c.A ^= c.bus.Read(addr)
		c.setZN(c.A)
	case 0x24, 0x2C: // BIT
		v := c.bus.Read(addr)
		c.Z = (c.A & v) == 0
		c.N = v&0x80 != 0
		c.V = v&0x40 != 0

	// --- Arithmetic ---
	case 0x69, 0x65, 0x75, 0x6D, 0x7D, 0x79, 0x61, 0x71: // ADC
		c.adc(c.bus.Read(addr))
	case 0xE9, 0xE5, 0xF5, 0xED, 0xFD, 0xF9, 0xE1, 0xF1, 0xEB: // SBC (+EB unofficial)
		c.adc(^c.bus.Read(addr))
	case 0xC9, 0xC5, 0xD5, 0xCD, 0xDD, 0xD9, 0xC1, 0xD1: // CMP
		c.compare(c.A, c.bus.Read(addr))
	case 0xE0, 0xE4, 0xEC: // CPX
		c.compare(c.X, c.bus.Read(addr))
	case 0xC0, 0xC4, 0xCC: // CPY
		c.compare(c.Y, c.bus.Read(addr))

	// --- Increments/Decrements ---
	case 0xE6, 0xF6, 0xEE, 0xFE: // INC
		v := c.bus.Read(addr) + 1
		c.bus.Write(addr, v)
		c.setZN(v)
	case 0xC6, 0xD6, 0xCE, 0xDE: // DEC
		v := c.bus.Read(addr) - 1
		c.bus.Write(addr, v)
		c.setZN(v)
	case 0xE8: // INX
		c.X++
		c.setZN(c.X)
	case 0xC8: // INY
		c.Y++
		c.setZN(c.Y)
	case 0xCA: // DEX
		c.X--
		c.setZN(c.X)
	case 0x88: // DEY
		c.Y--
		c.setZN(c.Y)

	// --- Shifts/Rotates ---
	case 0x0A: // ASL A
		c.C = c.A&0x80 != 0
		c.A <<= 1
		c.setZN(c.A)
	case 0x06, 0x16, 0x0E, 0x1E: // ASL mem
		v := c.bus.Read(addr)
		c.C = v&0x80 != 0
		v <<= 1
		c.bus.Write(addr, v)
		c.setZN(v)
	case 0x4A: // LSR A
		c.C = c.A&0x01 != 0
		c.A >>= 1
		c.setZN(c.A)
	case 0x46, 0x56, 0x4E, 0x5E: // LSR mem
		v := c.bus.Read(addr)
		c.C = v&0x01 != 0
		v >>= 1
		c.bus.Write(addr, v)
		c.setZN(v)
	case 0x2A: // ROL A
		carryIn := c.C
		c.C = c.A&0x80 != 0
		c.A <<= 1
		if carryIn {
			c.A |= 0x01
		}
		c.setZN(c.A)
	case 0x26, 0x36, 0x2E, 0x3E: // ROL mem
		v := c.bus.Read(addr)
		carryIn := c.C
		c.C = v&0x80 != 0
		v <<= 1
		if carryIn {
			v |= 0x01
		}
		c.bus.Write(addr, v)
		c.setZN(v)
	case 0x6A: // ROR A
		carryIn := c.C
		c.C = c.A&0x01 != 0
		c.A >>= 1
		if carryIn {
			c.A |= 0x80
		}
		c.setZN(c.A)
	case 0x66, 0x76, 0x6E, 0x7E: // ROR mem
		v := c.bus.Read(addr)
		carryIn := c.C
		c.C = v&0x01 != 0
		v >>= 1
		if carryIn {
			v |= 0x80
		}
		c.bus.Write(addr, v)
		c.setZN(v)

	// --- Jumps/Calls ---
	case 0x4C, 0x6C: // JMP
		c.PC = addr
	case 0x20: // JSR
		c.pushWord(c.PC - 1)
		c.PC = addr
	case 0x60: // RTS
		c.PC = c.popWord() + 1
	case 0x00: // BRK
		c.PC++
		c.pushWord(c.PC)
		c.push(c.packStatus() | flagB)
		c.I = true
		lo := uint16(c.bus.Read(irqVector))
		hi := uint16(c.bus.Read(irqVector + 1))
		c.PC = (hi << 8) | lo
	case 0x40: // RTI
		c.restoreStatus(c.pop())
		c.PC = c.popWord()

	// --- Branches ---
	case 0x10, 0x30, 0x50, 0x70, 0x90, 0xB0, 0xD0, 0xF0:
		if branchOpcodes[opcode](c) {
			extra++
			if pageCrossed {
				extra++
			}
			c.PC = addr
		}

	// --- Flags ---
	case 0x18: // CLC
		c.C = false
	case 0x38: // SEC
		c.C = true
	case 0x58: // CLI
		c.I = false
	case 0x78: // SEI
		c.I = true
	case 0xB8: // CLV
		c.V = false
	case 0xD8: // CLD
		c.D = false
	case 0xF8: // SED
		c.D = true

	// --- Unofficial RMW combos ---
	case 0x03, 0x07, 0x0F, 0x13, 0x17, 0x1B, 0x1F: // SLO: ASL then ORA
		v := c.bus.Read(addr)
		c.C = v&0x80 != 0
		v <<= 1
		c.bus.Write(addr, v)
		c.A |= v
		c.setZN(c.A)
	case 0x23, 0x27, 0x2F, 0x33, 0x37, 0x3B, 0x3F: // RLA: ROL then AND
		v := c.bus.Read(addr)
		carryIn := c.C
		c.C = v&0x80 != 0
		v <<= 1
		if carryIn {
			v |= 0x01
		}
		c.bus.Write(addr, v)
		c.A &= v
		c.setZN(c.A)
	case 0x43, 0x47, 0x4F, 0x53, 0x57, 0x5B, 0x5F: // SRE: LSR then EOR
		v := c.bus.Read(addr)
		c.C = v&0x01 != 0
		v >>= 1
		c.bus.Write(addr, v)
		c.A ^= v
		c.setZN(c.A)
	case 0x63, 0x67, 0x6F, 0x73, 0x77, 0x7B, 0x7F: // RRA: ROR then ADC
		v := c.bus.Read(addr)
		carryIn := c.C
		c.C = v&0x01 != 0
		v >>= 1
		if carryIn {
			v |= 0x80
		}
		c.bus.Write(addr, v)
		c.adc(v)
	case 0xC3, 0xC7, 0xCF, 0xD3, 0xD7, 0xDB, 0xDF: // DCP: DEC then CMP
		v := c.bus.Read(addr) - 1
		c.bus.Write(addr, v)
		c.compare(c.A, v)
	case 0xE3, 0xE7, 0xEF, 0xF3, 0xF7, 0xFB, 0xFF: // ISB/ISC: INC then SBC
		v := c.bus.Read(addr) + 1
		c.bus.Write(addr, v)
		c.adc(^v)

	// --- NOPs (official and unofficial) ---
	case 0xEA, 0x1A, 0x3A, 0x5A, 0x7A, 0xDA, 0xFA,
		0x04, 0x44, 0x64, 0x0C, 0x14, 0x34, 0x54, 0x74, 0xD4, 0xF4,
		0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC,
		0x80, 0x82, 0x89, 0xC2, 0xE2:
		// no-op; operand was already consumed by operandAddress for the
		// addressing-mode side effects (reads that don't alter state)

	case 0x0B, 0x2B: // ANC
		c.A &= c.bus.Read(addr)
		c.setZN(c.A)
		c.C = c.A&0x80 != 0

	default:
		// JAM/halt and remaining rare unofficial opcodes (AHX, TAS, SHX,
		// SHY, XAA, LAS, ALR, ARR, AXS) are not exercised by the ROMs
		// this core targets; treated as a no-op costing the opcode
		// table's base cycle count rather than a hard crash so a stray illegal byte in unmapped memory doesn't
		// wedge the whole system.
	}

	return extra
}

// adc implements both ADC and SBC (SBC being ADC with the operand inverted
// by the caller), including the V flag's signed-overflow formula.
func (c *CPU) adc(operand uint8) {
	carryIn := uint16(0)
	if c.C {
		carryIn = 1
	}
	sum := uint16(c.A) + uint16(operand) + carryIn
	result := uint8(sum)

	c.C = sum > 0xFF
	c.V = (c.A^operand)&0x80 == 0 && (c.A^result)&0x80 != 0
	c.A = result
	c.setZN(c.A)
}

// compare implements CMP/CPX/CPY's shared subtract-and-set-flags behavior.
func (c *CPU) compare(reg, operand uint8) {
	result := reg - operand
	c.C = reg >= operand
	c.setZN(result)
}
