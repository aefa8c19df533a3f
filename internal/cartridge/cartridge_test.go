package cartridge

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildINES(mapperID uint8, prgBanks, chrBanks uint8, flags6Extra uint8) []byte {
	header := make([]byte, 16)
	copy(header, []byte("NES\x1A"))
	header[4] = prgBanks
	header[5] = chrBanks
	header[6] = (mapperID << 4) | flags6Extra
	header[7] = mapperID & 0xF0

	buf := bytes.NewBuffer(header)
	buf.Write(make([]byte, int(prgBanks)*16384))
	buf.Write(make([]byte, int(chrBanks)*8192))
	return buf.Bytes()
}

func TestLoadFromReaderRejectsBadMagic(t *testing.T) {
	data := buildINES(0, 1, 1, 0)
	data[0] = 'X'
	_, err := LoadFromReader(bytes.NewReader(data))
	require.Error(t, err)
	var romErr *UnsupportedRomError
	assert.ErrorAs(t, err, &romErr)
}

func TestLoadFromReaderRejectsZeroPRG(t *testing.T) {
	data := buildINES(0, 0, 1, 0)
	_, err := LoadFromReader(bytes.NewReader(data))
	require.Error(t, err)
}

func TestLoadFromReaderRejectsUnsupportedMapper(t *testing.T) {
	data := buildINES(99, 1, 1, 0)
	_, err := LoadFromReader(bytes.NewReader(data))
	require.Error(t, err)
	var mapErr *UnsupportedMapperError
	require.ErrorAs(t, err, &mapErr)
	assert.Equal(t, uint8(99), mapErr.MapperID)
}

func TestLoadFromReaderAllocatesCHRRAMWhenCHRSizeZero(t *testing.T) {
	data := buildINES(0, 1, 0, 0)
	cart, err := LoadFromReader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.True(t, cart.hasCHRRAM)
	assert.Len(t, cart.chrROM, 8192)
}

func TestLoadFromReaderDecodesVerticalMirroring(t *testing.T) {
	data := buildINES(0, 1, 1, 0x01)
	cart, err := LoadFromReader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, MirrorVertical, cart.Mirroring())
}

func TestLoadFromReaderFourScreenOverridesMirroring(t *testing.T) {
	data := buildINES(0, 1, 1, 0x09)
	cart, err := LoadFromReader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, MirrorFourScreen, cart.Mirroring())
}

func TestMapper000FixedPRGWithTwoBanks(t *testing.T) {
	data := buildINES(0, 2, 1, 0)
	cart, err := LoadFromReader(bytes.NewReader(data))
	require.NoError(t, err)
	cart.prgROM[0] = 0xAA
	cart.prgROM[0x4000-1] = 0xBB
	assert.Equal(t, uint8(0xAA), cart.CPUMapRead(0x8000))
	assert.Equal(t, uint8(0xBB), cart.CPUMapRead(0xBFFF))
}

func TestMapper002UxROMSwitchableBankAndFixedLast(t *testing.T) {
	data := buildINES(2, 4, 0, 0)
	cart, err := LoadFromReader(bytes.NewReader(data))
	require.NoError(t, err)

	lastBankOffset := 3 * 0x4000
	cart.prgROM[lastBankOffset] = 0xEE
	cart.CPUMapWrite(0x8000, 2)
	cart.prgROM[2*0x4000] = 0x42

	assert.Equal(t, uint8(0x42), cart.CPUMapRead(0x8000))
	assert.Equal(t, uint8(0xEE), cart.CPUMapRead(0xC000))
}

func TestMapper001MMC1SerialShiftLoadsControlRegister(t *testing.T) {
	data := buildINES(1, 4, 2, 0)
	cart, err := LoadFromReader(bytes.NewReader(data))
	require.NoError(t, err)

	// MMC1 loads bits LSB-first across 5 writes; writing bit0=1 then four
	// zero bits commits a control value of 0b00001, selecting
	// single-screen (bank 1) per the mirroring-bit encoding.
	cart.CPUMapWrite(0x8000, 1)
	cart.CPUMapWrite(0x8000, 0)
	cart.CPUMapWrite(0x8000, 0)
	cart.CPUMapWrite(0x8000, 0)
	cart.CPUMapWrite(0x8000, 0)
	assert.Equal(t, MirrorSingleScreen1, cart.Mirroring())
}

func TestMapper004MMC3IRQReloadsAndFires(t *testing.T) {
	data := buildINES(4, 4, 2, 0)
	cart, err := LoadFromReader(bytes.NewReader(data))
	require.NoError(t, err)

	cart.CPUMapWrite(0xC000, 2) // IRQ latch = 2
	cart.CPUMapWrite(0xC001, 0) // force reload
	cart.CPUMapWrite(0xE001, 0) // enable IRQ

	cart.NotifyA12Rise() // reload to 2
	assert.False(t, cart.IRQPending())
	cart.NotifyA12Rise() // 2 -> 1
	assert.False(t, cart.IRQPending())
	cart.NotifyA12Rise() // 1 -> 0, fires
	assert.True(t, cart.IRQPending())

	cart.ClearIRQ()
	assert.False(t, cart.IRQPending())
}

func TestMapper016BandaiFCGCycleCountedIRQFiresAtZero(t *testing.T) {
	data := buildINES(16, 2, 2, 0)
	cart, err := LoadFromReader(bytes.NewReader(data))
	require.NoError(t, err)

	cart.CPUMapWrite(0x800B, 0x02) // counter low
	cart.CPUMapWrite(0x800C, 0x00) // counter high
	cart.CPUMapWrite(0x800A, 0x01) // enable

	assert.False(t, cart.IRQPending())
	cart.CPUTick()
	cart.CPUTick()
	assert.False(t, cart.IRQPending())
	cart.CPUTick()
	assert.True(t, cart.IRQPending())
}

func TestMapper225MirroringBitThirteenConvention(t *testing.T) {
	data := buildINES(225, 4, 2, 0)
	cart, err := LoadFromReader(bytes.NewReader(data))
	require.NoError(t, err)

	cart.CPUMapWrite(0x8000, 0) // bit13 clear -> Horizontal
	assert.Equal(t, MirrorHorizontal, cart.Mirroring())

	cart.CPUMapWrite(0xA000, 0) // bit13 set -> Vertical
	assert.Equal(t, MirrorVertical, cart.Mirroring())
}

func TestMapper253AppendsCHRRAMRegion(t *testing.T) {
	data := buildINES(253, 2, 2, 0)
	cart, err := LoadFromReader(bytes.NewReader(data))
	require.NoError(t, err)

	assert.True(t, cart.hasExtraCHRRAM)
	assert.Len(t, cart.chrROM, 2*8192+8192)
}

func TestMapper253ChrLatchSelectsRAMWhenUnlockedAndLowIsFour(t *testing.T) {
	data := buildINES(253, 2, 2, 0)
	cart, err := LoadFromReader(bytes.NewReader(data))
	require.NoError(t, err)

	m := cart.mapper.(*mapper253)
	// The sentinel 0xC8 written to slot 0's low register unlocks its vlock
	// latch; a chr_low of 4 then selects the appended CHR RAM page.
	cart.CPUMapWrite(0xB000, 0xC8) // low register, unlock slot 0
	cart.CPUMapWrite(0xB000, 0x04) // low register, chr_low=4

	assert.True(t, m.vlock[0])
	_, isRAM := m.chrTarget(0x0000)
	assert.True(t, isRAM)
}

func TestSupportedMappersCoversAllEighteenBoards(t *testing.T) {
	expected := []uint8{0, 1, 2, 3, 4, 7, 11, 15, 16, 23, 66, 71, 113, 202, 225, 227, 245, 253}
	for _, id := range expected {
		assert.True(t, supportedMappers[id], "mapper %d should be supported", id)
	}
	assert.Len(t, supportedMappers, len(expected))
}
