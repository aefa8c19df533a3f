package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gones/internal/input"
)

// buildNROM assembles a minimal mapper-0 (NROM) iNES image with a 16KB PRG
// bank containing the given code at $8000 and NMI/reset/IRQ vectors
// pointing into it, plus an 8KB zeroed CHR ROM bank.
func buildNROM(code []byte, resetOffset, nmiOffset uint16) []byte {
	const prgSize = 0x4000
	prg := make([]byte, prgSize)
	copy(prg, code)

	reset := uint16(0x8000) + resetOffset
	nmi := uint16(0x8000) + nmiOffset
	prg[0x3FFA] = byte(nmi)
	prg[0x3FFB] = byte(nmi >> 8)
	prg[0x3FFC] = byte(reset)
	prg[0x3FFD] = byte(reset >> 8)
	prg[0x3FFE] = byte(nmi)
	prg[0x3FFF] = byte(nmi >> 8)

	header := []byte{'N', 'E', 'S', 0x1A, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	chr := make([]byte, 0x2000)

	data := append([]byte{}, header...)
	data = append(data, prg...)
	data = append(data, chr...)
	return data
}

func TestLoadROMProducesRunnableSystem(t *testing.T) {
	s := New()
	rom := buildNROM([]byte{0x4C, 0x00, 0x80}, 0, 0x0010) // JMP $8000, infinite loop
	require.NoError(t, s.LoadROM(rom))
	assert.True(t, s.Loaded())

	s.RunFrame()
	assert.NotNil(t, s.FrameBuffer())
	assert.Len(t, s.FrameBuffer(), 256*240)
}

func TestNMICadenceExactlyOncePerFrameWhenEnabled(t *testing.T) {
	s := New()
	// $8000: LDA #$80; STA $2000; loop: JMP loop
	code := []byte{0xA9, 0x80, 0x8D, 0x00, 0x20, 0x4C, 0x05, 0x80}
	rom := buildNROM(code, 0, 0x0020) // NMI handler at $8020: RTI
	rom[16+0x0020] = 0x40             // RTI
	require.NoError(t, s.LoadROM(rom))

	s.RunFrame() // first frame: executes init code partway through, enables NMI
	afterFirst := s.NMICount()

	s.RunFrame() // second frame: NMI enabled for the whole frame
	afterSecond := s.NMICount()

	assert.Equal(t, 1, afterSecond-afterFirst)
}

func TestTotalCyclesStrictlyIncreasingAcrossFrames(t *testing.T) {
	s := New()
	rom := buildNROM([]byte{0x4C, 0x00, 0x80}, 0, 0x0010)
	require.NoError(t, s.LoadROM(rom))

	before := s.cpu.State().TotalCycles
	s.RunFrame()
	after := s.cpu.State().TotalCycles
	assert.Greater(t, after, before)
}

func TestSaveStateLoadStateSaveStateByteIdentical(t *testing.T) {
	s := New()
	rom := buildNROM([]byte{0xA9, 0x80, 0x8D, 0x00, 0x20, 0x4C, 0x05, 0x80}, 0, 0x0010)
	require.NoError(t, s.LoadROM(rom))
	s.RunFrame()

	first, err := s.SaveState()
	require.NoError(t, err)

	require.NoError(t, s.LoadState(first))

	second, err := s.SaveState()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestLoadStateRejectsVersionMismatch(t *testing.T) {
	s := New()
	rom := buildNROM([]byte{0x4C, 0x00, 0x80}, 0, 0x0010)
	require.NoError(t, s.LoadROM(rom))

	_, err := s.SaveState()
	require.NoError(t, err)

	// Valid JSON shape, wrong version number.
	corrupted := []byte(`{"version":99,"mapper_id":0}`)

	err = s.LoadState(corrupted)
	require.Error(t, err)
	var mismatch *SaveStateVersionMismatchError
	assert.ErrorAs(t, err, &mismatch)
}

func TestLoadStateRejectsCorruptJSON(t *testing.T) {
	s := New()
	rom := buildNROM([]byte{0x4C, 0x00, 0x80}, 0, 0x0010)
	require.NoError(t, s.LoadROM(rom))

	err := s.LoadState([]byte("not json"))
	require.Error(t, err)
	var corrupt *SaveStateCorruptError
	assert.ErrorAs(t, err, &corrupt)
}

func TestSetButtonRoutesToCorrectController(t *testing.T) {
	s := New()
	rom := buildNROM([]byte{0x4C, 0x00, 0x80}, 0, 0x0010)
	require.NoError(t, s.LoadROM(rom))

	s.SetButton(1, input.ButtonA, true)
	assert.True(t, s.input.Controller1.IsPressed(input.ButtonA))
	assert.False(t, s.input.Controller2.IsPressed(input.ButtonA))
}

func TestOAMDMATriggeredByRunningProgramPopulatesPPUOAM(t *testing.T) {
	s := New()
	// Fill RAM $0200-$02FF with $AA, then write $02 to
	// $4014 to trigger OAM DMA from that page, per spec section 5's DMA
	// handling (the CPU stalls while the bus drains the page into OAM).
	prog := []byte{
		0xA2, 0x00, // LDX #$00
		// fill: LDA #$AA; STA $0200,X; INX; BNE fill
		0xA9, 0xAA, // LDA #$AA
		0x9D, 0x00, 0x02, // STA $0200,X
		0xE8,       // INX
		0xD0, 0xF8, // BNE fill (back to LDA #$AA)
		0xA9, 0x02,       // LDA #$02
		0x8D, 0x14, 0x40, // STA $4014 (trigger OAM DMA from page $02)
		0x4C, 0x00, 0x00, // placeholder, patched below to loop forever
	}
	loopAddr := uint16(0x8000) + uint16(len(prog)-3)
	prog[len(prog)-2] = byte(loopAddr)
	prog[len(prog)-1] = byte(loopAddr >> 8)

	rom := buildNROM(prog, 0, 0x0030)
	rom[16+0x0030] = 0x40 // NMI handler: RTI
	require.NoError(t, s.LoadROM(rom))

	s.RunFrame()
	s.RunFrame()

	oam := s.PPUState().OAM
	assert.Equal(t, uint8(0xAA), oam[0])
	assert.Equal(t, uint8(0xAA), oam[255])
}

func TestResetClearsNMICount(t *testing.T) {
	s := New()
	code := []byte{0xA9, 0x80, 0x8D, 0x00, 0x20, 0x4C, 0x05, 0x80}
	rom := buildNROM(code, 0, 0x0010)
	rom[16+0x0010] = 0x40 // RTI
	require.NoError(t, s.LoadROM(rom))

	s.RunFrame()
	s.RunFrame()
	assert.Positive(t, s.NMICount())

	s.Reset()
	assert.Equal(t, 0, s.NMICount())
}
