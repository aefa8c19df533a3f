package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubPPU struct {
	regs    [8]uint8
	oam     [256]uint8
}

func (p *stubPPU) ReadRegister(reg uint16) uint8         { return p.regs[reg&7] }
func (p *stubPPU) WriteRegister(reg uint16, v uint8)      { p.regs[reg&7] = v }
func (p *stubPPU) WriteOAM(index uint8, v uint8)          { p.oam[index] = v }

type stubAPU struct {
	writes map[uint16]uint8
	status uint8
}

func (a *stubAPU) WriteRegister(addr uint16, v uint8) {
	if a.writes == nil {
		a.writes = map[uint16]uint8{}
	}
	a.writes[addr] = v
}
func (a *stubAPU) ReadStatus() uint8 { return a.status }

type stubCart struct {
	prg [0x10000]uint8
}

func (c *stubCart) CPUMapRead(addr uint16) uint8     { return c.prg[addr] }
func (c *stubCart) CPUMapWrite(addr uint16, v uint8) { c.prg[addr] = v }

type stubInput struct {
	lastWrite uint8
	readValue uint8
}

func (i *stubInput) Read(addr uint16) uint8     { return i.readValue }
func (i *stubInput) Write(addr uint16, v uint8) { i.lastWrite = v }

func newTestBus() (*Bus, *stubPPU, *stubAPU, *stubCart, *stubInput) {
	ppu := &stubPPU{}
	apu := &stubAPU{}
	cart := &stubCart{}
	input := &stubInput{}
	return New(ppu, apu, cart, input), ppu, apu, cart, input
}

func TestRAMMirroredAcrossFourBanks(t *testing.T) {
	b, _, _, _, _ := newTestBus()
	b.Write(0x0000, 0x42)
	assert.Equal(t, uint8(0x42), b.Read(0x0800))
	assert.Equal(t, uint8(0x42), b.Read(0x1000))
	assert.Equal(t, uint8(0x42), b.Read(0x1800))
}

func TestPPURegistersMirroredEveryEightBytes(t *testing.T) {
	b, ppu, _, _, _ := newTestBus()
	b.Write(0x2000, 0x80)
	assert.Equal(t, uint8(0x80), ppu.regs[0])
	b.Write(0x2008, 0x11)
	assert.Equal(t, uint8(0x11), ppu.regs[0])
}

func TestControllerStrobeRoutedToInput(t *testing.T) {
	b, _, _, _, input := newTestBus()
	b.Write(0x4016, 0x01)
	assert.Equal(t, uint8(0x01), input.lastWrite)
}

func TestCartridgeRangeRoutesToMapper(t *testing.T) {
	b, _, _, cart, _ := newTestBus()
	b.Write(0x8000, 0x99)
	assert.Equal(t, uint8(0x99), cart.prg[0x8000])
	assert.Equal(t, uint8(0x99), b.Read(0x8000))
}

func TestOAMDMATransferCopies256Bytes(t *testing.T) {
	b, ppu, _, _, _ := newTestBus()
	for i := 0; i < 256; i++ {
		b.ram[i] = uint8(i)
	}
	b.Write(0x4014, 0x00) // page 0, which is RAM $0000-$00FF
	b.SetCPUCycleParity(false)

	cycles := 0
	for b.DMAInProgress() {
		b.TickDMA()
		cycles++
	}
	assert.Equal(t, 513, cycles)
	assert.Equal(t, uint8(42), ppu.oam[42])
}

func TestStallCyclesAccumulateAndDrainToZero(t *testing.T) {
	b, _, _, _, _ := newTestBus()
	b.StallCycles(4)
	b.StallCycles(2)
	assert.Equal(t, 6, b.TakeStallCycles())
	assert.Equal(t, 0, b.TakeStallCycles())
}

func TestReadByteMatchesRead(t *testing.T) {
	b, _, _, cart, _ := newTestBus()
	cart.prg[0x9000] = 0x55
	assert.Equal(t, b.Read(0x9000), b.ReadByte(0x9000))
}

func TestOAMDMAOnOddCycleTakesOneExtraCycle(t *testing.T) {
	b, _, _, _, _ := newTestBus()
	b.SetCPUCycleParity(true)
	b.Write(0x4014, 0x00)

	cycles := 0
	for b.DMAInProgress() {
		b.TickDMA()
		cycles++
	}
	assert.Equal(t, 514, cycles)
}
