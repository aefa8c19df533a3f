package apu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBus struct {
	mem         [0x10000]uint8
	stalls      int
	readHistory []uint16
}

func (b *stubBus) ReadByte(address uint16) uint8 {
	b.readHistory = append(b.readHistory, address)
	return b.mem[address]
}

func (b *stubBus) StallCycles(cycles int) { b.stalls += cycles }

func TestWriteChannelEnableClearsLengthCountersWhenDisabled(t *testing.T) {
	a := New()
	a.pulse1.lengthCounter = 5
	a.writeChannelEnable(0x00)
	assert.Zero(t, a.pulse1.lengthCounter)
}

func TestWriteChannelEnableStartsDMCSample(t *testing.T) {
	a := New()
	a.writeDMCSampleAddress(0x10)
	a.writeDMCSampleLength(0x04)
	a.writeChannelEnable(0x10)
	assert.Equal(t, a.dmc.sampleAddress, a.dmc.currentAddress)
	assert.Equal(t, a.dmc.sampleLength, a.dmc.bytesRemaining)
}

func TestReadStatusClearsFrameIRQFlag(t *testing.T) {
	a := New()
	a.frameIRQFlag = true
	status := a.ReadStatus()
	assert.NotZero(t, status&0x40)
	assert.False(t, a.frameIRQFlag)
}

func TestFrameCounterFourStepModeFiresIRQAtEnd(t *testing.T) {
	a := New()
	a.writeFrameCounter(0x00) // 4-step, IRQ enabled
	for i := 0; i < 29830; i++ {
		a.stepFrameCounter()
	}
	assert.True(t, a.frameIRQFlag)
}

func TestFrameCounterFiveStepModeNeverSetsIRQFlag(t *testing.T) {
	a := New()
	a.writeFrameCounter(0x80) // 5-step mode
	for i := 0; i < 40000; i++ {
		a.stepFrameCounter()
	}
	assert.False(t, a.frameIRQFlag)
}

func TestDMCFetchesSampleBytesFromCPUBusAndStalls(t *testing.T) {
	a := New()
	bus := &stubBus{}
	bus.mem[0x8000] = 0xFF
	a.SetCPUBus(bus)

	a.writeDMCSampleAddress(0x00) // address = 0xC000
	a.writeDMCSampleLength(0x00)  // length = 1
	a.dmc.currentAddress = 0x8000
	a.dmc.bytesRemaining = 1
	a.dmc.sampleBufferEmpty = true
	a.dmc.timerCounter = 0

	a.stepDMCTimer(&a.dmc)

	require.NotEmpty(t, bus.readHistory)
	assert.Equal(t, uint16(0x8000), bus.readHistory[0])
	assert.Equal(t, 4, bus.stalls)
}

func TestMixChannelsSilenceProducesZero(t *testing.T) {
	// Both non-linear mixer terms are defined as 0 when their channel sums
	// are 0, and the mixer adds no DC bias, so silence mixes to exactly 0.
	a := New()
	sample := a.mixChannels(0, 0, 0, 0, 0)
	assert.Equal(t, float32(0), sample)
}

func TestSoftClipPassesThroughBelowThreshold(t *testing.T) {
	assert.InDelta(t, 0.5, softClip(0.5), 1e-9)
}

func TestSoftClipCompressesAboveThreshold(t *testing.T) {
	result := softClip(1.0)
	assert.Less(t, result, 1.0)
	assert.Greater(t, result, 0.95)
}

func TestSoftClipHardLimitsExtremeValues(t *testing.T) {
	assert.Equal(t, 1.0, softClip(10.0))
	assert.Equal(t, -1.0, softClip(-10.0))
}

func TestSampleRingDrainsInFIFOOrder(t *testing.T) {
	r := newSampleRing()
	for i := 0; i < 4; i++ {
		r.push(float32(i))
	}
	out := make([]float32, 4)
	n := r.drain(out)
	assert.Equal(t, 4, n)
	assert.Equal(t, []float32{0, 1, 2, 3}, out)
}

func TestSampleRingOverrunDropsOldest(t *testing.T) {
	r := newSampleRing()
	for i := 0; i < ringCapacity+10; i++ {
		r.push(float32(i))
	}
	assert.Equal(t, ringCapacity, r.available())
	out := make([]float32, 1)
	r.drain(out)
	assert.Equal(t, float32(10), out[0])
}

func TestSampleRingUnderrunStretchesAvailableSamples(t *testing.T) {
	r := newSampleRing()
	r.push(0)
	r.push(10)
	out := make([]float32, 4)
	n := r.drain(out)
	assert.Equal(t, 4, n)
	assert.Equal(t, float32(0), out[0])
	assert.Equal(t, float32(10), out[3])
}

func TestReadAudioReturnsRequestedLength(t *testing.T) {
	a := New()
	a.ring.push(0.5)
	out := make([]float32, 16)
	n := a.ReadAudio(out)
	assert.Equal(t, 16, n)
}
