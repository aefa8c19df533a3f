package ppu

// Step advances the PPU by exactly one dot (pixel clock), the unit the
// System's master-clock loop drives it at (3 PPU dots per CPU cycle on
// NTSC). It implements the 262-scanline x 341-dot timing: visible
// scanlines 0-239, post-render 240, VBlank 241-260, pre-render -1 (261).
func (p *PPU) Step() {
	if p.scanline >= -1 && p.scanline < 240 {
		p.renderScanlineDot()
	}

	if p.scanline == 241 && p.cycle == 1 {
		p.status |= 0x80 // set VBlank
		if p.ctrl&0x80 != 0 && p.nmiCallback != nil {
			p.nmiCallback()
		}
	}

	if p.scanline == -1 && p.cycle == 1 {
		p.status &^= 0x80 // clear VBlank
		p.status &^= 0x40 // clear sprite 0 hit
		p.status &^= 0x20 // clear sprite overflow
	}

	p.advanceDot()
}

func (p *PPU) advanceDot() {
	p.cycle++
	if p.cycle > 340 {
		p.cycle = 0
		p.scanline++
		if p.scanline > 260 {
			p.scanline = -1
			p.oddFrame = !p.oddFrame
			p.frameCount++
			if p.frameCompleteCallback != nil {
				p.frameCompleteCallback()
			}
		}
	}

	// Odd-frame skip: when rendering is enabled, the pre-render line's
	// last idle dot is skipped on odd frames, shortening the frame by one
	// PPU cycle.
	if p.scanline == -1 && p.cycle == 339 && p.oddFrame && p.renderingEnabled() {
		p.cycle = 340
	}
}

// renderScanlineDot implements the fetch/shift/sprite-evaluation state
// machine for one dot of a visible or pre-render scanline.
func (p *PPU) renderScanlineDot() {
	if p.cycle == 0 {
		return
	}

	if p.renderingEnabled() {
		if p.cycle >= 1 && p.cycle <= 256 {
			p.fetchCycle()
			p.shiftRegisters()
		} else if p.cycle == 257 {
			p.shiftRegisters()
			p.copyHorizontalScroll()
		} else if p.cycle >= 321 && p.cycle <= 336 {
			p.fetchCycle()
			p.shiftRegisters()
		}

		if p.scanline == -1 && p.cycle >= 280 && p.cycle <= 304 {
			p.copyVerticalScroll()
		}

		if p.cycle == 256 {
			p.incrementY()
		}
		if (p.cycle-1)%8 == 0 && p.cycle >= 9 && p.cycle <= 257 {
			p.incrementCoarseX()
		}
		if p.cycle == 328 || p.cycle == 336 {
			p.incrementCoarseX()
		}
	}

	if p.scanline >= 0 && p.cycle == 1 {
		p.evaluateSprites()
	}

	if p.scanline >= 0 && p.cycle >= 1 && p.cycle <= 256 {
		p.composePixel(p.cycle-1, p.scanline)
	}

	// A12 toggles during the background/sprite pattern fetches; mappers
	// that clock an IRQ counter off A12's rising edge (MMC3) observe it
	// here via the cartridge hook, approximated at the dot the sprite
	// pattern fetch for 8x16 mode would access the $1000 pattern table.
	if p.cycle == 260 && (p.backgroundEnabled() || p.spritesEnabled()) {
		p.cart.NotifyA12Rise()
	}
}

// fetchCycle performs the 8-dot background tile fetch sequence: nametable
// byte, attribute byte, pattern low, pattern high, reloading the shift
// registers every 8th dot.
func (p *PPU) fetchCycle() {
	switch (p.cycle - 1) % 8 {
	case 0:
		p.reloadShiftRegisters()
		addr := 0x2000 | (p.v & 0x0FFF)
		p.nextTileID = p.busRead(addr)
	case 2:
		addr := 0x23C0 | (p.v & 0x0C00) | ((p.v >> 4) & 0x38) | ((p.v >> 2) & 0x07)
		attr := p.busRead(addr)
		shift := ((p.v >> 4) & 4) | (p.v & 2)
		p.nextTileAttr = (attr >> shift) & 0x03
	case 4:
		fineY := (p.v >> 12) & 0x07
		base := uint16(0)
		if p.ctrl&0x10 != 0 {
			base = 0x1000
		}
		addr := base + uint16(p.nextTileID)*16 + fineY
		p.nextTileLo = p.busRead(addr)
	case 6:
		fineY := (p.v >> 12) & 0x07
		base := uint16(0)
		if p.ctrl&0x10 != 0 {
			base = 0x1000
		}
		addr := base + uint16(p.nextTileID)*16 + fineY + 8
		p.nextTileHi = p.busRead(addr)
	}
}

func (p *PPU) reloadShiftRegisters() {
	p.bgShiftLo = (p.bgShiftLo &^ 0x00FF) | uint16(p.nextTileLo)
	p.bgShiftHi = (p.bgShiftHi &^ 0x00FF) | uint16(p.nextTileHi)
	lo, hi := uint16(0), uint16(0)
	if p.nextTileAttr&0x01 != 0 {
		lo = 0x00FF
	}
	if p.nextTileAttr&0x02 != 0 {
		hi = 0x00FF
	}
	p.bgAttrShiftLo = (p.bgAttrShiftLo &^ 0x00FF) | lo
	p.bgAttrShiftHi = (p.bgAttrShiftHi &^ 0x00FF) | hi
}

func (p *PPU) shiftRegisters() {
	if p.backgroundEnabled() {
		p.bgShiftLo <<= 1
		p.bgShiftHi <<= 1
		p.bgAttrShiftLo <<= 1
		p.bgAttrShiftHi <<= 1
	}
}

// incrementCoarseX implements the loopy "increment hori(v)" operation,
// wrapping into the adjacent horizontal nametable.
func (p *PPU) incrementCoarseX() {
	if p.v&0x001F == 31 {
		p.v &^= 0x001F
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

// incrementY implements loopy's "increment vert(v)", the fine-Y/coarse-Y
// rollover with the 30-row nametable height quirk.
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

func (p *PPU) copyHorizontalScroll() {
	p.v = (p.v &^ 0x041F) | (p.t & 0x041F)
}

func (p *PPU) copyVerticalScroll() {
	p.v = (p.v &^ 0x7BE0) | (p.t & 0x7BE0)
}

// evaluateSprites runs the full per-scanline OAM scan: up to 8 in-range
// sprites are copied to secondary OAM, and a 9th match sets the overflow
// flag (replicating hardware's buggy diagonal read behavior only in
// effect, not byte-for-byte).
func (p *PPU) evaluateSprites() {
	spriteHeight := 8
	if p.ctrl&0x20 != 0 {
		spriteHeight = 16
	}

	p.spriteCount = 0
	p.sprite0OnLine = false
	matches := 0

	for i := 0; i < 64; i++ {
		y := int(p.oam[i*4])
		row := p.scanline - y
		if row < 0 || row >= spriteHeight {
			continue
		}
		matches++
		if p.spriteCount == 8 {
			break
		}
		idx := p.spriteCount
		p.spriteAttr[idx] = p.oam[i*4+2]
		p.spriteX[idx] = p.oam[i*4+3]
		p.spriteIsZero[idx] = i == 0
		if i == 0 {
			p.sprite0OnLine = true
		}

		flipV := p.spriteAttr[idx]&0x80 != 0
		tileRow := row
		if flipV {
			tileRow = spriteHeight - 1 - row
		}

		var patternAddr uint16
		tileIndex := p.oam[i*4+1]
		if spriteHeight == 16 {
			base := uint16(tileIndex&1) * 0x1000
			tile := uint16(tileIndex &^ 1)
			if tileRow >= 8 {
				tile++
				tileRow -= 8
			}
			patternAddr = base + tile*16 + uint16(tileRow)
		} else {
			base := uint16(0)
			if p.ctrl&0x08 != 0 {
				base = 0x1000
			}
			patternAddr = base + uint16(tileIndex)*16 + uint16(tileRow)
		}

		lo := p.busRead(patternAddr)
		hi := p.busRead(patternAddr + 8)
		if p.spriteAttr[idx]&0x40 != 0 { // horizontal flip
			lo = reverseBits(lo)
			hi = reverseBits(hi)
		}
		p.spritePatternLo[idx] = lo
		p.spritePatternHi[idx] = hi
		p.spriteCount++
	}

	if matches > 8 {
		p.status |= 0x20
	}
}

func reverseBits(b uint8) uint8 {
	var r uint8
	for i := 0; i < 8; i++ {
		r <<= 1
		r |= b & 1
		b >>= 1
	}
	return r
}

// composePixel resolves the final color for (x, y) from the background
// shifters and the current scanline's sprites, including sprite-zero hit
// and priority.
func (p *PPU) composePixel(x, y int) {
	if x < 0 || x >= screenWidth || y < 0 || y >= screenHeight {
		return
	}

	bgPixel, bgPalette := uint8(0), uint8(0)
	if p.backgroundEnabled() && !(x < 8 && p.mask&0x02 == 0) {
		bit := uint16(0x8000) >> p.x
		lo := uint8(0)
		hi := uint8(0)
		if p.bgShiftLo&bit != 0 {
			lo = 1
		}
		if p.bgShiftHi&bit != 0 {
			hi = 1
		}
		bgPixel = (hi << 1) | lo

		alo := uint8(0)
		ahi := uint8(0)
		if p.bgAttrShiftLo&bit != 0 {
			alo = 1
		}
		if p.bgAttrShiftHi&bit != 0 {
			ahi = 1
		}
		bgPalette = (ahi << 1) | alo
	}

	spritePixel, spritePalette, spritePriority, isZero := uint8(0), uint8(0), false, false
	if p.spritesEnabled() && !(x < 8 && p.mask&0x04 == 0) {
		for i := 0; i < p.spriteCount; i++ {
			offset := x - int(p.spriteX[i])
			if offset < 0 || offset >= 8 {
				continue
			}
			bit := uint8(0x80) >> uint(offset)
			lo := uint8(0)
			hi := uint8(0)
			if p.spritePatternLo[i]&bit != 0 {
				lo = 1
			}
			if p.spritePatternHi[i]&bit != 0 {
				hi = 1
			}
			px := (hi << 1) | lo
			if px == 0 {
				continue
			}
			spritePixel = px
			spritePalette = p.spriteAttr[i] & 0x03
			spritePriority = p.spriteAttr[i]&0x20 == 0
			isZero = p.spriteIsZero[i]
			break
		}
	}

	if isZero && bgPixel != 0 && spritePixel != 0 && x != 255 && p.status&0x40 == 0 {
		p.status |= 0x40 // sprite 0 hit
	}

	var colorIndex uint16
	switch {
	case spritePixel != 0 && (bgPixel == 0 || spritePriority):
		colorIndex = 0x10 + uint16(spritePalette)*4 + uint16(spritePixel)
	case bgPixel != 0:
		colorIndex = uint16(bgPalette)*4 + uint16(bgPixel)
	default:
		colorIndex = 0
	}

	p.frameBuffer[y*screenWidth+x] = nesPalette[p.palette[paletteIndex(colorIndex)]&0x3F]
}
