package cpu

// opcodeTable is the full 256-entry decode table, including unofficial
// opcodes used by test ROMs such as nestest (LAX, SAX, DCP, ISB/ISC, SLO,
// RLA, SRE, RRA, and the various NOP/SKB/SKW forms). Cycle counts are base
// counts; operandAddress/execute add the page-cross and branch-taken
// penalties per spec 4.1.
var opcodeTable = [256]instruction{
	0x00: {"BRK", 7, Implied}, 0x01: {"ORA", 6, IndexedIndirect}, 0x02: {"JAM", 2, Implied}, 0x03: {"SLO", 8, IndexedIndirect},
	0x04: {"NOP", 3, ZeroPage}, 0x05: {"ORA", 3, ZeroPage}, 0x06: {"ASL", 5, ZeroPage}, 0x07: {"SLO", 5, ZeroPage},
	0x08: {"PHP", 3, Implied}, 0x09: {"ORA", 2, Immediate}, 0x0A: {"ASL", 2, Accumulator}, 0x0B: {"ANC", 2, Immediate},
	0x0C: {"NOP", 4, Absolute}, 0x0D: {"ORA", 4, Absolute}, 0x0E: {"ASL", 6, Absolute}, 0x0F: {"SLO", 6, Absolute},

	0x10: {"BPL", 2, Relative}, 0x11: {"ORA", 5, IndirectIndexed}, 0x12: {"JAM", 2, Implied}, 0x13: {"SLO", 8, IndirectIndexed},
	0x14: {"NOP", 4, ZeroPageX}, 0x15: {"ORA", 4, ZeroPageX}, 0x16: {"ASL", 6, ZeroPageX}, 0x17: {"SLO", 6, ZeroPageX},
	0x18: {"CLC", 2, Implied}, 0x19: {"ORA", 4, AbsoluteY}, 0x1A: {"NOP", 2, Implied}, 0x1B: {"SLO", 7, AbsoluteY},
	0x1C: {"NOP", 4, AbsoluteX}, 0x1D: {"ORA", 4, AbsoluteX}, 0x1E: {"ASL", 7, AbsoluteX}, 0x1F: {"SLO", 7, AbsoluteX},

	0x20: {"JSR", 6, Absolute}, 0x21: {"AND", 6, IndexedIndirect}, 0x22: {"JAM", 2, Implied}, 0x23: {"RLA", 8, IndexedIndirect},
	0x24: {"BIT", 3, ZeroPage}, 0x25: {"AND", 3, ZeroPage}, 0x26: {"ROL", 5, ZeroPage}, 0x27: {"RLA", 5, ZeroPage},
	0x28: {"PLP", 4, Implied}, 0x29: {"AND", 2, Immediate}, 0x2A: {"ROL", 2, Accumulator}, 0x2B: {"ANC", 2, Immediate},
	0x2C: {"BIT", 4, Absolute}, 0x2D: {"AND", 4, Absolute}, 0x2E: {"ROL", 6, Absolute}, 0x2F: {"RLA", 6, Absolute},

	0x30: {"BMI", 2, Relative}, 0x31: {"AND", 5, IndirectIndexed}, 0x32: {"JAM", 2, Implied}, 0x33: {"RLA", 8, IndirectIndexed},
	0x34: {"NOP", 4, ZeroPageX}, 0x35: {"AND", 4, ZeroPageX}, 0x36: {"ROL", 6, ZeroPageX}, 0x37: {"RLA", 6, ZeroPageX},
	0x38: {"SEC", 2, Implied}, 0x39: {"AND", 4, AbsoluteY}, 0x3A: {"NOP", 2, Implied}, 0x3B: {"RLA", 7, AbsoluteY},
	0x3C: {"NOP", 4, AbsoluteX}, 0x3D: {"AND", 4, AbsoluteX}, 0x3E: {"ROL", 7, AbsoluteX}, 0x3F: {"RLA", 7, AbsoluteX},

	0x40: {"RTI", 6, Implied}, 0x41: {"EOR", 6, IndexedIndirect}, 0x42: {"JAM", 2, Implied}, 0x43: {"SRE", 8, IndexedIndirect},
	0x44: {"NOP", 3, ZeroPage}, 0x45: {"EOR", 3, ZeroPage}, 0x46: {"LSR", 5, ZeroPage}, 0x47: {"SRE", 5, ZeroPage},
	0x48: {"PHA", 3, Implied}, 0x49: {"EOR", 2, Immediate}, 0x4A: {"LSR", 2, Accumulator}, 0x4B: {"ALR", 2, Immediate},
	0x4C: {"JMP", 3, Absolute}, 0x4D: {"EOR", 4, Absolute}, 0x4E: {"LSR", 6, Absolute}, 0x4F: {"SRE", 6, Absolute},

	0x50: {"BVC", 2, Relative}, 0x51: {"EOR", 5, IndirectIndexed}, 0x52: {"JAM", 2, Implied}, 0x53: {"SRE", 8, IndirectIndexed},
	0x54: {"NOP", 4, ZeroPageX}, 0x55: {"EOR", 4, ZeroPageX}, 0x56: {"LSR", 6, ZeroPageX}, 0x57: {"SRE", 6, ZeroPageX},
	0x58: {"CLI", 2, Implied}, 0x59: {"EOR", 4, AbsoluteY}, 0x5A: {"NOP", 2, Implied}, 0x5B: {"SRE", 7, AbsoluteY},
	0x5C: {"NOP", 4, AbsoluteX}, 0x5D: {"EOR", 4, AbsoluteX}, 0x5E: {"LSR", 7, AbsoluteX}, 0x5F: {"SRE", 7, AbsoluteX},

	0x60: {"RTS", 6, Implied}, 0x61: {"ADC", 6, IndexedIndirect}, 0x62: {"JAM", 2, Implied}, 0x63: {"RRA", 8, IndexedIndirect},
	0x64: {"NOP", 3, ZeroPage}, 0x65: {"ADC", 3, ZeroPage}, 0x66: {"ROR", 5, ZeroPage}, 0x67: {"RRA", 5, ZeroPage},
	0x68: {"PLA", 4, Implied}, 0x69: {"ADC", 2, Immediate}, 0x6A: {"ROR", 2, Accumulator}, 0x6B: {"ARR", 2, Immediate},
	0x6C: {"JMP", 5, Indirect}, 0x6D: {"ADC", 4, Absolute}, 0x6E: {"ROR", 6, Absolute}, 0x6F: {"RRA", 6, Absolute},

	0x70: {"BVS", 2, Relative}, 0x71: {"ADC", 5, IndirectIndexed}, 0x72: {"JAM", 2, Implied}, 0x73: {"RRA", 8, IndirectIndexed},
	0x74: {"NOP", 4, ZeroPageX}, 0x75: {"ADC", 4, ZeroPageX}, 0x76: {"ROR", 6, ZeroPageX}, 0x77: {"RRA", 6, ZeroPageX},
	0x78: {"SEI", 2, Implied}, 0x79: {"ADC", 4, AbsoluteY}, 0x7A: {"NOP", 2, Implied}, 0x7B: {"RRA", 7, AbsoluteY},
	0x7C: {"NOP", 4, AbsoluteX}, 0x7D: {"ADC", 4, AbsoluteX}, 0x7E: {"ROR", 7, AbsoluteX}, 0x7F: {"RRA", 7, AbsoluteX},

	0x80: {"NOP", 2, Immediate}, 0x81: {"STA", 6, IndexedIndirect}, 0x82: {"NOP", 2, Immediate}, 0x83: {"SAX", 6, IndexedIndirect},
	0x84: {"STY", 3, ZeroPage}, 0x85: {"STA", 3, ZeroPage}, 0x86: {"STX", 3, ZeroPage}, 0x87: {"SAX", 3, ZeroPage},
	0x88: {"DEY", 2, Implied}, 0x89: {"NOP", 2, Immediate}, 0x8A: {"TXA", 2, Implied}, 0x8B: {"XAA", 2, Immediate},
	0x8C: {"STY", 4, Absolute}, 0x8D: {"STA", 4, Absolute}, 0x8E: {"STX", 4, Absolute}, 0x8F: {"SAX", 4, Absolute},

	0x90: {"BCC", 2, Relative}, 0x91: {"STA", 6, IndirectIndexed}, 0x92: {"JAM", 2, Implied}, 0x93: {"AHX", 6, IndirectIndexed},
	0x94: {"STY", 4, ZeroPageX}, 0x95: {"STA", 4, ZeroPageX}, 0x96: {"STX", 4, ZeroPageY}, 0x97: {"SAX", 4, ZeroPageY},
	0x98: {"TYA", 2, Implied}, 0x99: {"STA", 5, AbsoluteY}, 0x9A: {"TXS", 2, Implied}, 0x9B: {"TAS", 5, AbsoluteY},
	0x9C: {"SHY", 5, AbsoluteX}, 0x9D: {"STA", 5, AbsoluteX}, 0x9E: {"SHX", 5, AbsoluteY}, 0x9F: {"AHX", 5, AbsoluteY},

	0xA0: {"LDY", 2, Immediate}, 0xA1: {"LDA", 6, IndexedIndirect}, 0xA2: {"LDX", 2, Immediate}, 0xA3: {"LAX", 6, IndexedIndirect},
	0xA4: {"LDY", 3, ZeroPage}, 0xA5: {"LDA", 3, ZeroPage}, 0xA6: {"LDX", 3, ZeroPage}, 0xA7: {"LAX", 3, ZeroPage},
	0xA8: {"TAY", 2, Implied}, 0xA9: {"LDA", 2, Immediate}, 0xAA: {"TAX", 2, Implied}, 0xAB: {"LAX", 2, Immediate},
	0xAC: {"LDY", 4, Absolute}, 0xAD: {"LDA", 4, Absolute}, 0xAE: {"LDX", 4, Absolute}, 0xAF: {"LAX", 4, Absolute},

	0xB0: {"BCS", 2, Relative}, 0xB1: {"LDA", 5, IndirectIndexed}, 0xB2: {"JAM", 2, Implied}, 0xB3: {"LAX", 5, IndirectIndexed},
	0xB4: {"LDY", 4, ZeroPageX}, 0xB5: {"LDA", 4, ZeroPageX}, 0xB6: {"LDX", 4, ZeroPageY}, 0xB7: {"LAX", 4, ZeroPageY},
	0xB8: {"CLV", 2, Implied}, 0xB9: {"LDA", 4, AbsoluteY}, 0xBA: {"TSX", 2, Implied}, 0xBB: {"LAS", 4, AbsoluteY},
	0xBC: {"LDY", 4, AbsoluteX}, 0xBD: {"LDA", 4, AbsoluteX}, 0xBE: {"LDX", 4, AbsoluteY}, 0xBF: {"LAX", 4, AbsoluteY},

	0xC0: {"CPY", 2, Immediate}, 0xC1: {"CMP", 6, IndexedIndirect}, 0xC2: {"NOP", 2, Immediate}, 0xC3: {"DCP", 8, IndexedIndirect},
	0xC4: {"CPY", 3, ZeroPage}, 0xC5: {"CMP", 3, ZeroPage}, 0xC6: {"DEC", 5, ZeroPage}, 0xC7: {"DCP", 5, ZeroPage},
	0xC8: {"INY", 2, Implied}, 0xC9: {"CMP", 2, Immediate}, 0xCA: {"DEX", 2, Implied}, 0xCB: {"AXS", 2, Immediate},
	0xCC: {"CPY", 4, Absolute}, 0xCD: {"CMP", 4, Absolute}, 0xCE: {"DEC", 6, Absolute}, 0xCF: {"DCP", 6, Absolute},

	0xD0: {"BNE", 2, Relative}, 0xD1: {"CMP", 5, IndirectIndexed}, 0xD2: {"JAM", 2, Implied}, 0xD3: {"DCP", 8, IndirectIndexed},
	0xD4: {"NOP", 4, ZeroPageX}, 0xD5: {"CMP", 4, ZeroPageX}, 0xD6: {"DEC", 6, ZeroPageX}, 0xD7: {"DCP", 6, ZeroPageX},
	0xD8: {"CLD", 2, Implied}, 0xD9: {"CMP", 4, AbsoluteY}, 0xDA: {"NOP", 2, Implied}, 0xDB: {"DCP", 7, AbsoluteY},
	0xDC: {"NOP", 4, AbsoluteX}, 0xDD: {"CMP", 4, AbsoluteX}, 0xDE: {"DEC", 7, AbsoluteX}, 0xDF: {"DCP", 7, AbsoluteX},

	0xE0: {"CPX", 2, Immediate}, 0xE1: {"SBC", 6, IndexedIndirect}, 0xE2: {"NOP", 2, Immediate}, 0xE3: {"ISB", 8, IndexedIndirect},
	0xE4: {"CPX", 3, ZeroPage}, 0xE5: {"SBC", 3, ZeroPage}, 0xE6: {"INC", 5, ZeroPage}, 0xE7: {"ISB", 5, ZeroPage},
	0xE8: {"INX", 2, Implied}, 0xE9: {"SBC", 2, Immediate}, 0xEA: {"NOP", 2, Implied}, 0xEB: {"SBC", 2, Immediate},
	0xEC: {"CPX", 4, Absolute}, 0xED: {"SBC", 4, Absolute}, 0xEE: {"INC", 6, Absolute}, 0xEF: {"ISB", 6, Absolute},

	0xF0: {"BEQ", 2, Relative}, 0xF1: {"SBC", 5, IndirectIndexed}, 0xF2: {"JAM", 2, Implied}, 0xF3: {"ISB", 8, IndirectIndexed},
	0xF4: {"NOP", 4, ZeroPageX}, 0xF5: {"SBC", 4, ZeroPageX}, 0xF6: {"INC", 6, ZeroPageX}, 0xF7: {"ISB", 6, ZeroPageX},
	0xF8: {"SED", 2, Implied}, 0xF9: {"SBC", 4, AbsoluteY}, 0xFA: {"NOP", 2, Implied}, 0xFB: {"ISB", 7, AbsoluteY},
	0xFC: {"NOP", 4, AbsoluteX}, 0xFD: {"SBC", 4, AbsoluteX}, 0xFE: {"INC", 7, AbsoluteX}, 0xFF: {"ISB", 7, AbsoluteX},
}

// readPenalizingOpcodes marks opcodes whose addressing mode may add one
// cycle for a page cross; store instructions and read-modify-write
// instructions never get this bonus (they always compute the worst case),
// matching spec 4.1's read-vs-write distinction.
var readPenalizingOpcodes = map[uint8]bool{
	0x1D: true, 0x19: true, 0x3D: true, 0x39: true, 0x5D: true, 0x59: true,
	0x7D: true, 0x79: true, 0xBC: true, 0xB9: true, 0xBD: true, 0xBE: true,
	0xBF: true, 0xDD: true, 0xD9: true, 0xFD: true, 0xF9: true,
	0x11: true, 0xB1: true, 0xB3: true, 0x31: true, 0x51: true, 0x71: true, 0xD1: true, 0xF1: true,
	// unofficial NOPs with absolute,X/indexed addressing also take the
	// penalty when reading across a page
	0x1C: true, 0x3C: true, 0x5C: true, 0x7C: true, 0xDC: true, 0xFC: true,
}

// branchOpcodes maps branch mnemonics to the flag test used by execute.
var branchOpcodes = map[uint8]func(c *CPU) bool{
	0x10: func(c *CPU) bool { return !c.N },
	0x30: func(c *CPU) bool { return c.N },
	0x50: func(c *CPU) bool { return !c.V },
	0x70: func(c *CPU) bool { return c.V },
	0x90: func(c *CPU) bool { return !c.C },
	0xB0: func(c *CPU) bool { return c.C },
	0xD0: func(c *CPU) bool { return !c.Z },
	0xF0: func(c *CPU) bool { return c.Z },
}
