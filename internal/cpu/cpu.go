// Package cpu implements the MOS 6502 CPU used by the NES.
package cpu

// Bus is the memory interface the CPU executes against. The bus owns RAM,
// PPU/APU register routing, and cartridge address translation; the CPU only
// ever sees a flat 16-bit address space through this interface.
type Bus interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// AddressingMode enumerates the 6502's addressing modes, per spec 4.1.
type AddressingMode int

const (
	Implied AddressingMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Relative
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndexedIndirect // (zp,X)
	IndirectIndexed // (zp),Y
)

// Status register bit masks.
const (
	flagC uint8 = 1 << 0 // Carry
	flagZ uint8 = 1 << 1 // Zero
	flagI uint8 = 1 << 2 // Interrupt disable
	flagD uint8 = 1 << 3 // Decimal (ignored by this chip's ALU)
	flagB uint8 = 1 << 4 // Break
	flagU uint8 = 1 << 5 // Unused, always reads 1
	flagV uint8 = 1 << 6 // Overflow
	flagN uint8 = 1 << 7 // Negative
)

const (
	stackBase   uint16 = 0x0100
	resetVector uint16 = 0xFFFC
	nmiVector   uint16 = 0xFFFA
	irqVector   uint16 = 0xFFFE
)

// instruction describes one opcode's static shape: mnemonic, base cycle
// count, and addressing mode. The operation itself is dispatched by opcode
// in execute.
type instruction struct {
	name   string
	cycles uint8
	mode   AddressingMode
}

// CPU is the 6502 register file plus the cycle-pacing state machine
// described in spec 3/4.1. Callers drive it one master cycle at a time via
// Clock; Step is a convenience that runs Clock until an instruction
// boundary, used by tests and tools that want instruction-granularity
// tracing.
type CPU struct {
	A, X, Y uint8
	SP      uint8
	PC      uint16

	// Status flags, stored individually; GetStatusByte/SetStatusByte pack
	// and unpack them, always forcing U=1 on read.
	N, V, B, D, I, Z, C bool

	bus Bus

	cyclesRemaining uint8
	totalCycles     uint64

	nmiPrev    bool // previous level of the NMI line, for edge detection
	nmiPending bool // latched edge, serviced at the next instruction boundary
	irqLine    bool // level-triggered aggregate: APU frame IRQ | DMC IRQ | mapper IRQ

	opcode uint8
}

// New constructs a CPU wired to bus. Reset must be called before use.
func New(bus Bus) *CPU {
	return &CPU{bus: bus}
}

// State is an exported snapshot of every field save-state needs to
// reproduce CPU behavior exactly, used by internal/system's save/load.
type State struct {
	A, X, Y         uint8
	SP              uint8
	PC              uint16
	N, V, B, D, I, Z, C bool
	CyclesRemaining uint8
	TotalCycles     uint64
	NMIPrev         bool
	NMIPending      bool
	IRQLine         bool
	Opcode          uint8
}

// State captures the CPU's current register and timing state.
func (c *CPU) State() State {
	return State{
		A: c.A, X: c.X, Y: c.Y, SP: c.SP, PC: c.PC,
		N: c.N, V: c.V, B: c.B, D: c.D, I: c.I, Z: c.Z, C: c.C,
		CyclesRemaining: c.cyclesRemaining,
		TotalCycles:     c.totalCycles,
		NMIPrev:         c.nmiPrev,
		NMIPending:      c.nmiPending,
		IRQLine:         c.irqLine,
		Opcode:          c.opcode,
	}
}

// SetState restores a previously captured State.
func (c *CPU) SetState(s State) {
	c.A, c.X, c.Y, c.SP, c.PC = s.A, s.X, s.Y, s.SP, s.PC
	c.N, c.V, c.B, c.D, c.I, c.Z, c.C = s.N, s.V, s.B, s.D, s.I, s.Z, s.C
	c.cyclesRemaining = s.CyclesRemaining
	c.totalCycles = s.TotalCycles
	c.nmiPrev = s.NMIPrev
	c.nmiPending = s.NMIPending
	c.irqLine = s.IRQLine
	c.opcode = s.Opcode
}

// Reset loads PC from the reset vector, sets SP=0xFD, I=1, and starts the
// 8-cycle reset sequence, per spec 4.1.
func (c *CPU) Reset() {
	c.A, c.X, c.Y = 0, 0, 0
	c.SP = 0xFD
	c.N, c.V, c.D, c.Z, c.C = false, false, false, false, false
	c.I = true
	c.B = false

	lo := uint16(c.bus.Read(resetVector))
	hi := uint16(c.bus.Read(resetVector + 1))
	c.PC = (hi << 8) | lo

	c.cyclesRemaining = 8
	c.nmiPrev = false
	c.nmiPending = false
	c.irqLine = false
}

// SetNMILine updates the level of the PPU's NMI output. NMI is edge
// triggered: a transition from low to high latches a pending NMI serviced
// at the next instruction boundary.
func (c *CPU) SetNMILine(level bool) {
	if level && !c.nmiPrev {
		c.nmiPending = true
	}
	c.nmiPrev = level
}

// SetIRQLine sets the level of the maskable IRQ line, the aggregate of APU
// frame IRQ, DMC IRQ, and mapper IRQ sources (spec 4.4).
func (c *CPU) SetIRQLine(level bool) {
	c.irqLine = level
}

// TotalCycles returns the monotonic cycle counter (spec 8: "total_cycles is
// strictly increasing").
func (c *CPU) TotalCycles() uint64 { return c.totalCycles }

// Clock advances the CPU by exactly one master-rate CPU cycle. When the
// current instruction (or interrupt service) has finished paying for
// itself, it services a pending interrupt, if any, or fetches and fully
// executes the next instruction, charging its total cost to
// cyclesRemaining up front.
func (c *CPU) Clock() {
	if c.cyclesRemaining == 0 {
		if c.nmiPending {
			c.nmiPending = false
			c.serviceInterrupt(nmiVector, 8)
		} else if c.irqLine && !c.I {
			c.serviceInterrupt(irqVector, 7)
		} else {
			c.stepInstruction()
		}
	}
	c.cyclesRemaining--
	c.totalCycles++
}

// Step runs Clock until exactly one instruction (or interrupt service) has
// been fully executed, returning the number of CPU cycles it consumed. It
// is a convenience for tests and tools that want instruction-granular
// stepping; System's frame loop always drives Clock directly, one master
// cycle at a time, so it can interleave PPU/APU ticks correctly.
func (c *CPU) Step() uint64 {
	before := c.totalCycles
	c.Clock()
	for c.cyclesRemaining > 0 {
		c.Clock()
	}
	return c.totalCycles - before
}

// serviceInterrupt pushes PC and status (B=0, U=1) and vectors through addr.
func (c *CPU) serviceInterrupt(vector uint16, cycles uint8) {
	c.pushWord(c.PC)
	status := c.packStatus()
	status &^= flagB
	status |= flagU
	c.push(status)
	c.I = true
	lo := uint16(c.bus.Read(vector))
	hi := uint16(c.bus.Read(vector + 1))
	c.PC = (hi << 8) | lo
	c.cyclesRemaining = cycles
}

// stepInstruction fetches, decodes, and fully executes one opcode,
// recording its total cost (base + penalties) into cyclesRemaining.
func (c *CPU) stepInstruction() {
	c.opcode = c.bus.Read(c.PC)
	inst := opcodeTable[c.opcode]

	addr, pageCrossed := c.operandAddress(inst.mode)
	extra := c.execute(c.opcode, addr, pageCrossed)

	c.cyclesRemaining = inst.cycles + extra
}

// operandAddress computes the effective address for mode, advancing PC past
// the instruction's operand bytes, and reports whether a page boundary was
// crossed (used for read-instruction cycle penalties).
func (c *CPU) operandAddress(mode AddressingMode) (uint16, bool) {
	switch mode {
	case Implied, Accumulator:
		c.PC++
		return 0, false

	case Immediate:
		addr := c.PC + 1
		c.PC += 2
		return addr, false

	case ZeroPage:
		addr := uint16(c.bus.Read(c.PC + 1))
		c.PC += 2
		return addr, false

	case ZeroPageX:
		base := c.bus.Read(c.PC + 1)
		c.PC += 2
		return uint16(base + c.X), false

	case ZeroPageY:
		base := c.bus.Read(c.PC + 1)
		c.PC += 2
		return uint16(base + c.Y), false

	case Relative:
		offset := int8(c.bus.Read(c.PC + 1))
		next := c.PC + 2
		target := uint16(int32(next) + int32(offset))
		c.PC = next
		return target, (next & 0xFF00) != (target & 0xFF00)

	case Absolute:
		lo := uint16(c.bus.Read(c.PC + 1))
		hi := uint16(c.bus.Read(c.PC + 2))
		c.PC += 3
		return (hi << 8) | lo, false

	case AbsoluteX:
		lo := uint16(c.bus.Read(c.PC + 1))
		hi := uint16(c.bus.Read(c.PC + 2))
		base := (hi << 8) | lo
		addr := base + uint16(c.X)
		c.PC += 3
		return addr, (base & 0xFF00) != (addr & 0xFF00)

	case AbsoluteY:
		lo := uint16(c.bus.Read(c.PC + 1))
		hi := uint16(c.bus.Read(c.PC + 2))
		base := (hi << 8) | lo
		addr := base + uint16(c.Y)
		c.PC += 3
		return addr, (base & 0xFF00) != (addr & 0xFF00)

	case Indirect: // JMP only
		lo := uint16(c.bus.Read(c.PC + 1))
		hi := uint16(c.bus.Read(c.PC + 2))
		ptr := (hi << 8) | lo
		c.PC += 3
		var addr uint16
		if ptr&0x00FF == 0x00FF {
			// Indirect-JMP page-wrap bug: the high byte is fetched from
			// the start of the same page, not the next page.
			lo2 := uint16(c.bus.Read(ptr))
			hi2 := uint16(c.bus.Read(ptr & 0xFF00))
			addr = (hi2 << 8) | lo2
		} else {
			lo2 := uint16(c.bus.Read(ptr))
			hi2 := uint16(c.bus.Read(ptr + 1))
			addr = (hi2 << 8) | lo2
		}
		return addr, false

	case IndexedIndirect: // (zp,X)
		base := c.bus.Read(c.PC + 1)
		c.PC += 2
		ptr := base + c.X
		lo := uint16(c.bus.Read(uint16(ptr)))
		hi := uint16(c.bus.Read(uint16(ptr + 1)))
		return (hi << 8) | lo, false

	case IndirectIndexed: // (zp),Y
		ptr := uint16(c.bus.Read(c.PC + 1))
		c.PC += 2
		lo := uint16(c.bus.Read(ptr))
		hi := uint16(c.bus.Read((ptr + 1) & 0x00FF))
		base := (hi << 8) | lo
		addr := base + uint16(c.Y)
		return addr, (base & 0xFF00) != (addr & 0xFF00)

	default:
		return 0, false
	}
}

func (c *CPU) push(v uint8) {
	c.bus.Write(stackBase+uint16(c.SP), v)
	c.SP--
}

func (c *CPU) pop() uint8 {
	c.SP++
	return c.bus.Read(stackBase + uint16(c.SP))
}

func (c *CPU) pushWord(v uint16) {
	c.push(uint8(v >> 8))
	c.push(uint8(v))
}

func (c *CPU) popWord() uint16 {
	lo := uint16(c.pop())
	hi := uint16(c.pop())
	return (hi << 8) | lo
}

func (c *CPU) setZN(v uint8) {
	c.Z = v == 0
	c.N = v&0x80 != 0
}

// packStatus returns P with U always set to 1: the unused bit reads 1
// whenever pushed or observed, matching hardware.
func (c *CPU) packStatus() uint8 {
	var s uint8
	if c.N {
		s |= flagN
	}
	if c.V {
		s |= flagV
	}
	s |= flagU
	if c.B {
		s |= flagB
	}
	if c.D {
		s |= flagD
	}
	if c.I {
		s |= flagI
	}
	if c.Z {
		s |= flagZ
	}
	if c.C {
		s |= flagC
	}
	return s
}

// GetStatusByte returns the processor status byte, with U forced to 1.
func (c *CPU) GetStatusByte() uint8 { return c.packStatus() }

// SetStatusByte loads all flags, including B, directly from v.
func (c *CPU) SetStatusByte(v uint8) {
	c.N = v&flagN != 0
	c.V = v&flagV != 0
	c.B = v&flagB != 0
	c.D = v&flagD != 0
	c.I = v&flagI != 0
	c.Z = v&flagZ != 0
	c.C = v&flagC != 0
}

// restoreStatus implements the PLP/RTI rule: the pulled B bit is discarded,
// since B is not a real stored register, only a value synthesized on push.
func (c *CPU) restoreStatus(v uint8) {
	c.SetStatusByte(v)
	c.B = false
}
