package cartridge

// mapper071 implements Camerica/Codemasters boards: switchable 16KB PRG
// bank at $8000, last bank fixed at $C000 (same shape as UxROM), CHR is
// always RAM. Some Camerica boards use $9000-$9FFF for single-screen
// mirroring control; both write windows are honored here.
type mapper071 struct {
	baseMapper
	cart    *Cartridge
	prgBank uint8
}

func newMapper071(cart *Cartridge) *mapper071 { return &mapper071{cart: cart} }

func (m *mapper071) Reset() { m.prgBank = 0 }

func (m *mapper071) CPUMapRead(address uint16) uint8 {
	if address < 0x8000 {
		return 0
	}
	banks := len(m.cart.prgROM) / 0x4000
	if address < 0xC000 {
		offset := int(m.prgBank%uint8(banks))*0x4000 + int(address-0x8000)
		return m.cart.prgROM[offset]
	}
	offset := (banks-1)*0x4000 + int(address-0xC000)
	return m.cart.prgROM[offset]
}

func (m *mapper071) CPUMapWrite(address uint16, value uint8) {
	switch {
	case address >= 0x9000 && address < 0xA000:
		if value&0x10 != 0 {
			m.cart.setMirror(MirrorSingleScreen1)
		} else {
			m.cart.setMirror(MirrorSingleScreen0)
		}
	case address >= 0xC000:
		m.prgBank = value
	}
}

func (m *mapper071) PPUMapRead(address uint16) uint8 {
	if address < 0x2000 && int(address) < len(m.cart.chrROM) {
		return m.cart.chrROM[address]
	}
	return 0
}

func (m *mapper071) PPUMapWrite(address uint16, value uint8) {
	if address < 0x2000 && m.cart.hasCHRRAM && int(address) < len(m.cart.chrROM) {
		m.cart.chrROM[address] = value
	}
}
