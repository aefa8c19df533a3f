// Package system wires the CPU, PPU, APU, Bus, Cartridge and Controllers
// into the single-threaded cooperative master-clock loop described in
// spec section 5: one PPU tick every master cycle, one CPU tick and one
// APU tick every third master cycle, one mapper cpu_tick every CPU tick,
// interrupt polling after each CPU tick. It is the only supported way to
// drive the core; internal/app and internal/graphics consume it as the
// external collaborator the emulation core itself never depends on.
package system

import (
	"bytes"

	"gones/internal/apu"
	"gones/internal/bus"
	"gones/internal/cartridge"
	"gones/internal/cpu"
	"gones/internal/input"
	"gones/internal/ppu"
)

const cpuCyclesPerFrame = 29781 // NTSC: 341*262/3 dots, rounded to whole CPU cycles

// cartAdapter narrows *cartridge.Cartridge to ppu.CartridgeBus, converting
// cartridge.MirrorMode to ppu.MirrorMode at the boundary. Kept here rather
// than in either package so both stay decoupled from each other, per
// SPEC_FULL.md's package layout.
type cartAdapter struct {
	cart *cartridge.Cartridge
}

func (a *cartAdapter) PPUMapRead(address uint16) uint8      { return a.cart.PPUMapRead(address) }
func (a *cartAdapter) PPUMapWrite(address uint16, v uint8) { a.cart.PPUMapWrite(address, v) }
func (a *cartAdapter) NotifyA12Rise()                      { a.cart.NotifyA12Rise() }

func (a *cartAdapter) Mirroring() ppu.MirrorMode {
	switch a.cart.Mirroring() {
	case cartridge.MirrorVertical:
		return ppu.MirrorVertical
	case cartridge.MirrorSingleScreen0:
		return ppu.MirrorSingleScreen0
	case cartridge.MirrorSingleScreen1:
		return ppu.MirrorSingleScreen1
	case cartridge.MirrorFourScreen:
		return ppu.MirrorFourScreen
	default:
		return ppu.MirrorHorizontal
	}
}

// System owns every sub-component exclusively, per spec section 5's
// shared-resource policy, and is the sole scheduler driving them in
// lock-step.
type System struct {
	cpu   *cpu.CPU
	ppu   *ppu.PPU
	apu   *apu.APU
	bus   *bus.Bus
	cart  *cartridge.Cartridge
	input *input.InputState

	masterCycle  int
	frameDone    bool
	nmiCount     int
	pendingStall int // CPU-cycle slots the DMC has stolen, not yet consumed
}

// New constructs an uninitialized System. LoadROM must be called before
// RunFrame does anything useful; per spec section 4 ("Lifecycle"), only
// load_rom, controller mutations, and save/load-state are legal before
// that.
func New() *System {
	return &System{input: input.NewInputState()}
}

// LoadROM parses an iNES image, replaces the Cartridge, rewires the PPU,
// APU, Bus and CPU around it, and resets the System, per spec section 6's
// load_rom contract.
func (s *System) LoadROM(data []byte) error {
	cart, err := cartridge.LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return err
	}

	s.cart = cart
	adapter := &cartAdapter{cart: cart}

	s.ppu = ppu.New(adapter)
	s.apu = apu.New()
	s.bus = bus.New(s.ppu, s.apu, cart, s.input)
	s.cpu = cpu.New(s.bus)
	s.apu.SetCPUBus(s.bus)

	s.ppu.SetNMICallback(func() {
		// Force a falling edge first: the PPU calls this once per logical
		// NMI assertion (VBlank start, or an NMI-enable write while VBlank
		// is already set), not as a continuously-held line level, so the
		// CPU's rising-edge latch must see a fresh 0->1 transition every
		// time regardless of the line's previous state.
		s.cpu.SetNMILine(false)
		s.cpu.SetNMILine(true)
		s.nmiCount++
	})
	s.ppu.SetFrameCompleteCallback(func() { s.frameDone = true })

	s.Reset()
	return nil
}

// Reset zeroes RAM and re-seeds the CPU/PPU/APU from their reset state,
// per spec section 6's reset contract.
func (s *System) Reset() {
	if s.cart == nil {
		return
	}
	s.cart.Reset()
	s.ppu.Reset()
	s.apu.Reset()
	s.input.Reset()
	s.cpu.Reset()
	s.masterCycle = 0
	s.frameDone = false
	s.nmiCount = 0
	s.pendingStall = 0
}

// RunFrame advances the master clock until the PPU signals frame_complete,
// per spec section 5's scheduling loop: one PPU tick every master cycle;
// one CPU tick, one APU tick, and one mapper cpu_tick every third master
// cycle; interrupt polling after each CPU tick. run_frame never fails once
// the System is loaded (spec section 7's propagation policy).
func (s *System) RunFrame() {
	if s.cart == nil {
		return
	}

	s.frameDone = false
	for !s.frameDone {
		s.ppu.Step()
		s.masterCycle++
		if s.masterCycle%3 != 0 {
			continue
		}
		s.tickCPUCycle()
	}
}

// tickCPUCycle advances the CPU/APU/mapper by exactly one CPU-cycle slot.
// The PPU has already run its 3 dots for this slot in RunFrame; OAM DMA
// and DMC stall cycles only hold the CPU itself idle; APU, mapper, and
// interrupt polling keep running every slot regardless, per spec section
// 5's ordering guarantees.
func (s *System) tickCPUCycle() {
	switch {
	case s.bus.DMAInProgress():
		s.bus.TickDMA()
	case s.pendingStall > 0:
		s.pendingStall--
	default:
		s.bus.SetCPUCycleParity(s.cpu.TotalCycles()%2 != 0)
		s.cpu.Clock()
		s.pendingStall += s.bus.TakeStallCycles()
	}

	s.apu.Step()
	s.cart.CPUTick()
	s.pollInterrupts()
}

// pollInterrupts aggregates the APU frame/DMC IRQ lines and the mapper's
// own IRQ line into the CPU's level-triggered IRQ input, per spec section
// 4.1's interrupt model.
func (s *System) pollInterrupts() {
	irq := s.apu.GetFrameIRQ() || s.apu.GetDMCIRQ() || s.cart.IRQPending()
	s.cpu.SetIRQLine(irq)
}

// FrameBuffer returns an immutable view of the most recently completed
// 256x240 frame.
func (s *System) FrameBuffer() []uint32 {
	if s.ppu == nil {
		return nil
	}
	return s.ppu.FrameBuffer()
}

// ReadAudio drains up to len(out) samples from the APU's ring buffer,
// returning the count actually written.
func (s *System) ReadAudio(out []float32) int {
	if s.apu == nil {
		return 0
	}
	return s.apu.ReadAudio(out)
}

// SetAudioSampleRate recomputes the APU's cycles-per-sample accumulator
// for a new host output rate.
func (s *System) SetAudioSampleRate(rate int) {
	if s.apu != nil {
		s.apu.SetSampleRate(rate)
	}
}

// SetButton updates a single controller's pre-latch button state. port is
// 1 or 2; any other value is ignored.
func (s *System) SetButton(port int, button input.Button, down bool) {
	switch port {
	case 1:
		s.input.Controller1.SetButton(button, down)
	case 2:
		s.input.Controller2.SetButton(button, down)
	}
}

// SetButtons replaces a controller's entire button state at once.
func (s *System) SetButtons(port int, buttons [8]bool) {
	switch port {
	case 1:
		s.input.SetButtons1(buttons)
	case 2:
		s.input.SetButtons2(buttons)
	}
}

// NMICount reports how many NMIs the PPU has signaled since the last
// Reset, used by the NMI-cadence conformance test (spec section 8, item
// 2: exactly one per frame).
func (s *System) NMICount() int { return s.nmiCount }

// Loaded reports whether a cartridge has been loaded.
func (s *System) Loaded() bool { return s.cart != nil }

// CPUState exposes a read-only snapshot of the CPU for debug tooling and
// frontend status displays.
func (s *System) CPUState() cpu.State {
	if s.cpu == nil {
		return cpu.State{}
	}
	return s.cpu.State()
}

// PPUState exposes a read-only snapshot of the PPU for debug tooling and
// frontend status displays.
func (s *System) PPUState() ppu.State {
	if s.ppu == nil {
		return ppu.State{}
	}
	return s.ppu.State()
}

// TotalCycles reports the number of CPU cycles executed since the last
// Reset, used by frontends that want to pace real-time playback.
func (s *System) TotalCycles() uint64 {
	if s.cpu == nil {
		return 0
	}
	return s.cpu.State().TotalCycles
}

// APUState exposes a read-only snapshot of the APU for debug tooling.
func (s *System) APUState() apu.State {
	if s.apu == nil {
		return apu.State{}
	}
	return s.apu.State()
}

// BusState exposes a read-only snapshot of the Bus for debug tooling.
func (s *System) BusState() bus.State {
	if s.bus == nil {
		return bus.State{}
	}
	return s.bus.State()
}
