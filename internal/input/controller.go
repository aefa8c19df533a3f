// Package input implements standard NES controller handling: an 8-bit
// shift register loaded from the button state on strobe and shifted out
// one bit per $4016/$4017 read.
package input

// Button represents NES controller buttons
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// Controller represents a single NES controller's button and shift-register
// state.
type Controller struct {
	buttons       uint8
	shiftRegister uint8
	strobe        bool
}

// New creates a new Controller instance
func New() *Controller {
	return &Controller{}
}

// SetButton sets the state of a single button.
func (c *Controller) SetButton(button Button, pressed bool) {
	if pressed {
		c.buttons |= uint8(button)
	} else {
		c.buttons &^= uint8(button)
	}
}

// SetButtons sets all eight button states at once, in NES controller order
// (A, B, Select, Start, Up, Down, Left, Right).
func (c *Controller) SetButtons(buttons [8]bool) {
	c.buttons = 0
	order := [8]Button{ButtonA, ButtonB, ButtonSelect, ButtonStart, ButtonUp, ButtonDown, ButtonLeft, ButtonRight}
	for i, pressed := range buttons {
		if pressed {
			c.buttons |= uint8(order[i])
		}
	}
}

// IsPressed returns true if the button is currently pressed
func (c *Controller) IsPressed(button Button) bool {
	return (c.buttons & uint8(button)) != 0
}

// reverseBits maps our bit0=A..bit7=Right button byte into the MSB-first
// shift order real hardware reads out (A first, then B, Select, Start,
// Up, Down, Left, Right).
func reverseBits(b uint8) uint8 {
	var r uint8
	for i := 0; i < 8; i++ {
		r <<= 1
		r |= (b >> i) & 1
	}
	return r
}

// Write handles a write to the controller's strobe register. While strobe
// is held high, the shift register continuously reloads from the live
// button state; the falling edge latches it for the upcoming read sequence.
func (c *Controller) Write(value uint8) {
	c.strobe = (value & 1) != 0
	if c.strobe {
		c.shiftRegister = reverseBits(c.buttons)
	}
}

// Read returns the shift register's MSB (A first, then B, Select, Start,
// Up, Down, Left, Right) and shifts left. While strobe is held high, every
// read reloads from the live A button state.
func (c *Controller) Read() uint8 {
	if c.strobe {
		c.shiftRegister = reverseBits(c.buttons)
	}
	bit := (c.shiftRegister >> 7) & 1
	c.shiftRegister <<= 1
	return bit
}

// Reset restores the controller to its power-on state.
func (c *Controller) Reset() {
	c.buttons = 0
	c.shiftRegister = 0
	c.strobe = false
}

// State is an exported snapshot of a controller's button and shift-
// register state, used by internal/system's save/load.
type State struct {
	Buttons       uint8
	ShiftRegister uint8
	Strobe        bool
}

// State captures the controller's current state.
func (c *Controller) State() State {
	return State{Buttons: c.buttons, ShiftRegister: c.shiftRegister, Strobe: c.strobe}
}

// SetState restores a previously captured State.
func (c *Controller) SetState(s State) {
	c.buttons, c.shiftRegister, c.strobe = s.Buttons, s.ShiftRegister, s.Strobe
}

// InputState owns both controller ports and routes $4016/$4017 traffic.
type InputState struct {
	Controller1 *Controller
	Controller2 *Controller
}

// NewInputState creates a new input state with two controllers
func NewInputState() *InputState {
	return &InputState{Controller1: New(), Controller2: New()}
}

// Reset resets all input devices
func (is *InputState) Reset() {
	is.Controller1.Reset()
	is.Controller2.Reset()
}

// SetButtons1 sets all button states for controller 1 (array approach)
func (is *InputState) SetButtons1(buttons [8]bool) { is.Controller1.SetButtons(buttons) }

// SetButtons2 sets all button states for controller 2 (array approach)
func (is *InputState) SetButtons2(buttons [8]bool) { is.Controller2.SetButtons(buttons) }

// Read reads from controller ports
func (is *InputState) Read(address uint16) uint8 {
	switch address {
	case 0x4016:
		return is.Controller1.Read()
	case 0x4017:
		return is.Controller2.Read() | 0x40
	default:
		return 0
	}
}

// Write writes to controller ports. Both controllers share the single
// strobe line wired to $4016.
func (is *InputState) Write(address uint16, value uint8) {
	if address == 0x4016 {
		is.Controller1.Write(value)
		is.Controller2.Write(value)
	}
}
