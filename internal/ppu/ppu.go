// Package ppu implements the NES Picture Processing Unit (2C02): the
// 262-scanline x 341-dot rendering pipeline, sprite evaluation, and the
// register interface the CPU sees at $2000-$2007.
package ppu

// CartridgeBus is the subset of cartridge behavior the PPU needs: CHR
// access and mirroring. The PPU never imports the cartridge package
// directly so mappers and PPU stay decoupled, matching the polymorphic
// dispatch boundary described in the mapper subsystem design.
type CartridgeBus interface {
	PPUMapRead(address uint16) uint8
	PPUMapWrite(address uint16, value uint8)
	Mirroring() MirrorMode
	// NotifyA12Rise is called whenever the PPU address bus's A12 line
	// transitions low-to-high, the hook MMC3-style mappers use to clock
	// their scanline IRQ counter.
	NotifyA12Rise()
}

// MirrorMode mirrors the cartridge package's enum; duplicated here (rather
// than imported) so ppu has no cartridge dependency, only this narrow
// interface's shape.
type MirrorMode int

const (
	MirrorHorizontal MirrorMode = iota
	MirrorVertical
	MirrorSingleScreen0
	MirrorSingleScreen1
	MirrorFourScreen
)

const (
	screenWidth  = 256
	screenHeight = 240
)

// PPU is the 2C02 state machine. It owns nametable RAM, palette RAM, and
// OAM directly (spec 3: "the PPU owns its nametable/palette/OAM state").
type PPU struct {
	// CPU-visible registers.
	ctrl   uint8 // $2000
	mask   uint8 // $2001
	status uint8 // $2002
	oamAddr uint8 // $2003

	// Loopy scroll/address state.
	v, t uint16
	x    uint8
	w    bool

	readBuffer uint8 // buffered $2007 read value

	nametables [0x800]uint8 // 2x 1KB physical nametables
	palette    [32]uint8
	oam        [256]uint8
	secondaryOAM [32]uint8

	cart CartridgeBus

	scanline int // -1..260, -1 is the pre-render line
	cycle    int // 0..340
	oddFrame bool
	frameCount uint64

	frameBuffer [screenWidth * screenHeight]uint32

	// Background pipeline: two tile's worth of shift registers, filled one
	// tile ahead of the pixel being drawn.
	bgShiftLo, bgShiftHi     uint16
	bgAttrShiftLo, bgAttrShiftHi uint16
	nextTileID, nextTileAttr, nextTileLo, nextTileHi uint8

	// Sprite pipeline for the current scanline.
	spriteCount     int
	spritePatternLo [8]uint8
	spritePatternHi [8]uint8
	spriteAttr      [8]uint8
	spriteX         [8]uint8
	spriteIsZero    [8]bool
	sprite0OnLine   bool

	suppressVBL bool

	nmiCallback           func()
	frameCompleteCallback func()
}

// New constructs a PPU wired to the cartridge's CHR/mirroring surface.
func New(cart CartridgeBus) *PPU {
	return &PPU{cart: cart}
}

// State is an exported snapshot of every mutable PPU field save-state
// needs, used by internal/system's save/load. frameBuffer is intentionally
// excluded: it is fully determined by the next run_frame and not part of
// the logical machine state the spec's round-trip property cares about.
type State struct {
	Ctrl, Mask, Status, OAMAddr uint8
	V, T                        uint16
	X                           uint8
	W                           bool
	ReadBuffer                  uint8
	Nametables                  [0x800]uint8
	Palette                     [32]uint8
	OAM                         [256]uint8
	SecondaryOAM                [32]uint8
	Scanline                    int
	Cycle                       int
	OddFrame                    bool
	FrameCount                  uint64
	BGShiftLo, BGShiftHi        uint16
	BGAttrShiftLo, BGAttrShiftHi uint16
	NextTileID, NextTileAttr, NextTileLo, NextTileHi uint8
	SpriteCount                 int
	SpritePatternLo             [8]uint8
	SpritePatternHi             [8]uint8
	SpriteAttr                  [8]uint8
	SpriteX                     [8]uint8
	SpriteIsZero                [8]bool
	Sprite0OnLine               bool
	SuppressVBL                 bool
}

// State captures the PPU's current rendering and register state.
func (p *PPU) State() State {
	return State{
		Ctrl: p.ctrl, Mask: p.mask, Status: p.status, OAMAddr: p.oamAddr,
		V: p.v, T: p.t, X: p.x, W: p.w,
		ReadBuffer:    p.readBuffer,
		Nametables:    p.nametables,
		Palette:       p.palette,
		OAM:           p.oam,
		SecondaryOAM:  p.secondaryOAM,
		Scanline:      p.scanline,
		Cycle:         p.cycle,
		OddFrame:      p.oddFrame,
		FrameCount:    p.frameCount,
		BGShiftLo:     p.bgShiftLo,
		BGShiftHi:     p.bgShiftHi,
		BGAttrShiftLo: p.bgAttrShiftLo,
		BGAttrShiftHi: p.bgAttrShiftHi,
		NextTileID:    p.nextTileID,
		NextTileAttr:  p.nextTileAttr,
		NextTileLo:    p.nextTileLo,
		NextTileHi:    p.nextTileHi,
		SpriteCount:   p.spriteCount,
		SpritePatternLo: p.spritePatternLo,
		SpritePatternHi: p.spritePatternHi,
		SpriteAttr:      p.spriteAttr,
		SpriteX:         p.spriteX,
		SpriteIsZero:    p.spriteIsZero,
		Sprite0OnLine:   p.sprite0OnLine,
		SuppressVBL:     p.suppressVBL,
	}
}

// SetState restores a previously captured State.
func (p *PPU) SetState(s State) {
	p.ctrl, p.mask, p.status, p.oamAddr = s.Ctrl, s.Mask, s.Status, s.OAMAddr
	p.v, p.t, p.x, p.w = s.V, s.T, s.X, s.W
	p.readBuffer = s.ReadBuffer
	p.nametables = s.Nametables
	p.palette = s.Palette
	p.oam = s.OAM
	p.secondaryOAM = s.SecondaryOAM
	p.scanline = s.Scanline
	p.cycle = s.Cycle
	p.oddFrame = s.OddFrame
	p.frameCount = s.FrameCount
	p.bgShiftLo, p.bgShiftHi = s.BGShiftLo, s.BGShiftHi
	p.bgAttrShiftLo, p.bgAttrShiftHi = s.BGAttrShiftLo, s.BGAttrShiftHi
	p.nextTileID, p.nextTileAttr = s.NextTileID, s.NextTileAttr
	p.nextTileLo, p.nextTileHi = s.NextTileLo, s.NextTileHi
	p.spriteCount = s.SpriteCount
	p.spritePatternLo = s.SpritePatternLo
	p.spritePatternHi = s.SpritePatternHi
	p.spriteAttr = s.SpriteAttr
	p.spriteX = s.SpriteX
	p.spriteIsZero = s.SpriteIsZero
	p.sprite0OnLine = s.Sprite0OnLine
	p.suppressVBL = s.SuppressVBL
}

// SetNMICallback installs the function invoked when PPU asserts NMI.
func (p *PPU) SetNMICallback(fn func()) { p.nmiCallback = fn }

// SetFrameCompleteCallback installs the function invoked once per
// completed frame, after dot 340 of scanline 260.
func (p *PPU) SetFrameCompleteCallback(fn func()) { p.frameCompleteCallback = fn }

// Reset returns the PPU to its post-power-on state.
func (p *PPU) Reset() {
	p.ctrl, p.mask, p.status = 0, 0, 0
	p.oamAddr = 0
	p.v, p.t, p.x = 0, 0, 0
	p.w = false
	p.readBuffer = 0
	p.scanline = -1
	p.cycle = 0
	p.oddFrame = false
	p.frameCount = 0
}

// FrameBuffer returns the most recently completed frame, 256x240 packed
// 0xRRGGBB pixels, matching the Host API's frame buffer layout (spec 6).
func (p *PPU) FrameBuffer() []uint32 { return p.frameBuffer[:] }

func (p *PPU) backgroundEnabled() bool { return p.mask&0x08 != 0 }
func (p *PPU) spritesEnabled() bool    { return p.mask&0x10 != 0 }
func (p *PPU) renderingEnabled() bool  { return p.backgroundEnabled() || p.spritesEnabled() }

// ReadRegister services a CPU read of $2000-$2007 (mirrored every 8 bytes
// by the bus before reaching here).
func (p *PPU) ReadRegister(reg uint16) uint8 {
	switch reg & 7 {
	case 2: // PPUSTATUS
		result := (p.status & 0xE0) | (p.readBuffer & 0x1F)
		p.status &^= 0x80 // clear VBlank
		p.w = false
		return result
	case 4: // OAMDATA
		return p.oam[p.oamAddr]
	case 7: // PPUDATA
		return p.readData()
	default:
		return p.readBuffer
	}
}

// WriteRegister services a CPU write of $2000-$2007.
func (p *PPU) WriteRegister(reg uint16, value uint8) {
	switch reg & 7 {
	case 0: // PPUCTRL
		nmiWasDisabled := p.ctrl&0x80 == 0
		p.ctrl = value
		p.t = (p.t &^ 0x0C00) | (uint16(value&0x03) << 10)
		// Enabling NMI while VBlank is already latched fires immediately,
		// rather than waiting for the next VBlank edge (spec 5's ordering
		// guarantees).
		if nmiWasDisabled && value&0x80 != 0 && p.status&0x80 != 0 && p.nmiCallback != nil {
			p.nmiCallback()
		}
	case 1: // PPUMASK
		p.mask = value
	case 3: // OAMADDR
		p.oamAddr = value
	case 4: // OAMDATA
		p.oam[p.oamAddr] = value
		p.oamAddr++
	case 5: // PPUSCROLL
		if !p.w {
			p.t = (p.t &^ 0x001F) | uint16(value>>3)
			p.x = value & 0x07
		} else {
			p.t = (p.t &^ 0x73E0) | (uint16(value&0x07) << 12) | (uint16(value&0xF8) << 2)
		}
		p.w = !p.w
	case 6: // PPUADDR
		if !p.w {
			p.t = (p.t &^ 0xFF00) | (uint16(value&0x3F) << 8)
		} else {
			p.t = (p.t &^ 0x00FF) | uint16(value)
			p.v = p.t
		}
		p.w = !p.w
	case 7: // PPUDATA
		p.writeData(value)
	}
}

// WriteOAM handles a DMA-sourced OAM write (used by the bus's OAMDMA path).
func (p *PPU) WriteOAM(index uint8, value uint8) { p.oam[index] = value }

// OAMAddress exposes the current OAMADDR for the bus's DMA transfer.
func (p *PPU) OAMAddress() uint8 { return p.oamAddr }

func (p *PPU) vramIncrement() uint16 {
	if p.ctrl&0x04 != 0 {
		return 32
	}
	return 1
}

func (p *PPU) readData() uint8 {
	addr := p.v & 0x3FFF
	var result uint8
	if addr >= 0x3F00 {
		result = p.readPalette(addr)
		p.readBuffer = p.busRead(addr - 0x1000)
	} else {
		result = p.readBuffer
		p.readBuffer = p.busRead(addr)
	}
	p.v += p.vramIncrement()
	return result
}

func (p *PPU) writeData(value uint8) {
	addr := p.v & 0x3FFF
	if addr >= 0x3F00 {
		p.writePalette(addr, value)
	} else {
		p.busWrite(addr, value)
	}
	p.v += p.vramIncrement()
}

// busRead/busWrite route the PPU's internal 14-bit address space: pattern
// tables to the cartridge, nametables through mirroring, palette RAM
// locally.
func (p *PPU) busRead(addr uint16) uint8 {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		return p.cart.PPUMapRead(addr)
	case addr < 0x3F00:
		return p.nametables[p.mirrorNametable(addr)]
	default:
		return p.readPalette(addr)
	}
}

func (p *PPU) busWrite(addr uint16, value uint8) {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		p.cart.PPUMapWrite(addr, value)
	case addr < 0x3F00:
		p.nametables[p.mirrorNametable(addr)] = value
	default:
		p.writePalette(addr, value)
	}
}

func (p *PPU) mirrorNametable(addr uint16) uint16 {
	addr = (addr - 0x2000) & 0x0FFF
	table := addr / 0x400
	offset := addr % 0x400
	switch p.cart.Mirroring() {
	case MirrorVertical:
		return (table%2)*0x400 + offset
	case MirrorSingleScreen0:
		return offset
	case MirrorSingleScreen1:
		return 0x400 + offset
	case MirrorFourScreen:
		return addr % 0x800
	default: // Horizontal
		return (table/2)*0x400 + offset
	}
}

func (p *PPU) readPalette(addr uint16) uint8 {
	return p.palette[paletteIndex(addr)]
}

func (p *PPU) writePalette(addr uint16, value uint8) {
	p.palette[paletteIndex(addr)] = value & 0x3F
}

// paletteIndex applies the background-color mirroring quirk: $10/$14/$18/$1C
// mirror $00/$04/$08/$0C.
func paletteIndex(addr uint16) uint16 {
	idx := addr & 0x1F
	if idx >= 0x10 && idx%4 == 0 {
		idx -= 0x10
	}
	return idx
}
