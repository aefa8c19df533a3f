package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewControllerStartsWithZeroedState(t *testing.T) {
	c := New()
	assert.Zero(t, c.buttons)
	assert.Zero(t, c.shiftRegister)
	assert.False(t, c.strobe)
}

func TestSetButtonTogglesIndependently(t *testing.T) {
	c := New()
	c.SetButton(ButtonA, true)
	c.SetButton(ButtonStart, true)
	assert.True(t, c.IsPressed(ButtonA))
	assert.True(t, c.IsPressed(ButtonStart))
	assert.False(t, c.IsPressed(ButtonB))

	c.SetButton(ButtonA, false)
	assert.False(t, c.IsPressed(ButtonA))
	assert.True(t, c.IsPressed(ButtonStart))
}

func TestSetButtonsReplacesEntireState(t *testing.T) {
	c := New()
	c.SetButton(ButtonLeft, true)
	c.SetButtons([8]bool{true, false, false, false, false, false, false, false})
	assert.True(t, c.IsPressed(ButtonA))
	assert.False(t, c.IsPressed(ButtonLeft))
}

func TestReadSequenceReturnsButtonsMSBFirst(t *testing.T) {
	c := New()
	// Only Start pressed; read order must be A,B,Select,Start,Up,Down,Left,Right.
	c.SetButton(ButtonStart, true)

	c.Write(1) // strobe high
	c.Write(0) // strobe falls, latches shift register

	var bits [8]uint8
	for i := range bits {
		bits[i] = c.Read()
	}
	assert.Equal(t, [8]uint8{0, 0, 0, 1, 0, 0, 0, 0}, bits)
}

func TestStrobeHighAlwaysReturnsLiveAButtonState(t *testing.T) {
	c := New()
	c.Write(1)
	assert.Zero(t, c.Read())
	c.SetButton(ButtonA, true)
	assert.Equal(t, uint8(1), c.Read())
}

func TestResetClearsButtonsAndShiftState(t *testing.T) {
	c := New()
	c.SetButton(ButtonA, true)
	c.Write(1)
	c.Write(0)
	c.Reset()
	assert.Zero(t, c.buttons)
	assert.Zero(t, c.shiftRegister)
	assert.False(t, c.strobe)
}

func TestInputStateRoutesStrobeToBothControllers(t *testing.T) {
	is := NewInputState()
	is.Controller1.SetButton(ButtonA, true)
	is.Controller2.SetButton(ButtonB, true)

	is.Write(0x4016, 1)
	is.Write(0x4016, 0)

	assert.Equal(t, uint8(1), is.Read(0x4016))
	is.Read(0x4017) // controller 2's first bit out is A, which it does not hold
	second := is.Read(0x4017)
	assert.Equal(t, uint8(1), second&0x01)
	assert.NotZero(t, second&0x40)
}
