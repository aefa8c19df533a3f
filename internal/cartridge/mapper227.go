package cartridge

// mapper227 implements the 1200-in-1 multicart board. Reference emulators
// disagree on the exact address-bit decoding for this board; this
// implementation follows the FCEUX convention (chosen and documented here
// per the open question this board carries): bit 0 of the write address
// selects the PRG size mode (32KB direct vs. 16KB-mirrored), bits 3-6 hold
// the bank number split across a low/high pair, bit 7 selects which half
// of the ROM the bank number indexes into, and bit 9 forces the last
// 16KB bank into the $C000 window in 16KB mode.
type mapper227 struct {
	baseMapper
	cart    *Cartridge
	address uint16
}

func newMapper227(cart *Cartridge) *mapper227 { return &mapper227{cart: cart} }

func (m *mapper227) Reset() { m.address = 0 }

func (m *mapper227) CPUMapWrite(address uint16, value uint8) {
	if address < 0x8000 {
		return
	}
	m.address = address
	if address&0x0004 != 0 {
		m.cart.setMirror(MirrorHorizontal)
	} else {
		m.cart.setMirror(MirrorVertical)
	}
}

func (m *mapper227) decode() (bank16k int, mode32k bool, fixLast bool) {
	a := m.address
	low := int((a >> 3) & 0x0F)
	high := int((a >> 7) & 0x01)
	bank := (high << 4) | low
	mode32k = a&0x0001 != 0
	fixLast = a&0x0200 != 0
	if mode32k {
		bank >>= 1
		return bank << 1, true, fixLast
	}
	return bank, false, fixLast
}

func (m *mapper227) CPUMapRead(address uint16) uint8 {
	if address < 0x8000 {
		return 0
	}
	bank16k := len(m.cart.prgROM) / 0x4000
	if bank16k == 0 {
		return 0
	}
	base, mode32k, fixLast := m.decode()
	var window int
	switch {
	case mode32k:
		if address < 0xC000 {
			window = base
		} else {
			window = base + 1
		}
	case fixLast && address >= 0xC000:
		window = bank16k - 1
	default:
		window = base
	}
	window %= bank16k
	offset := window*0x4000 + int(address&0x3FFF)
	if offset < len(m.cart.prgROM) {
		return m.cart.prgROM[offset]
	}
	return 0
}

func (m *mapper227) PPUMapRead(address uint16) uint8 {
	if address < 0x2000 && int(address) < len(m.cart.chrROM) {
		return m.cart.chrROM[address]
	}
	return 0
}

func (m *mapper227) PPUMapWrite(address uint16, value uint8) {
	if address < 0x2000 && m.cart.hasCHRRAM && int(address) < len(m.cart.chrROM) {
		m.cart.chrROM[address] = value
	}
}
