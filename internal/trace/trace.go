// Package trace implements a small execution/watchpoint log: a ring of
// recent CPU/PPU events plus on-demand full-state dumps, grounded on the
// teacher's BusExecutionEvent/memoryWatchpoints fields. It deliberately
// stops at "only the hooks a debugger would need" — no breakpoint engine,
// no disassembler, no UI.
package trace

import (
	"fmt"
	"sync"

	"github.com/davecgh/go-spew/spew"

	"gones/internal/apu"
	"gones/internal/bus"
	"gones/internal/cpu"
	"gones/internal/ppu"
)

// Event is a single logged occurrence: an executed CPU instruction, a
// memory watchpoint hit, or an asserted interrupt.
type Event struct {
	Kind    string
	Address uint16
	Value   uint8
	Detail  string
}

// Watchpoint makes ObserveAccess record an event when Address is read
// (OnRead) or written (OnWrite), per the
// teacher's memoryWatchpoints map of address to handler.
type Watchpoint struct {
	Address uint16
	OnRead  bool
	OnWrite bool
}

// Logger accumulates a bounded ring of Events and evaluates watchpoints on
// demand. A nil *Logger is valid and a no-op, so callers can wire it in
// unconditionally and gate only on Enabled.
type Logger struct {
	mu          sync.Mutex
	enabled     bool
	ring        []Event
	cap         int
	next        int
	watchpoints []Watchpoint
}

// NewLogger creates a Logger with the given ring capacity. capacity <= 0
// defaults to 256.
func NewLogger(capacity int) *Logger {
	if capacity <= 0 {
		capacity = 256
	}
	return &Logger{cap: capacity, ring: make([]Event, 0, capacity)}
}

// SetEnabled turns logging on or off without discarding the ring.
func (l *Logger) SetEnabled(enabled bool) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// Enabled reports whether logging is currently active.
func (l *Logger) Enabled() bool {
	if l == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

// AddWatchpoint registers an address to watch, per the teacher's
// SetupSMBWatchpoints style of pre-seeded known-interesting addresses.
func (l *Logger) AddWatchpoint(wp Watchpoint) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.watchpoints = append(l.watchpoints, wp)
}

// Record appends an Event to the ring if logging is enabled, overwriting
// the oldest entry once capacity is reached.
func (l *Logger) Record(e Event) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled {
		return
	}
	if len(l.ring) < l.cap {
		l.ring = append(l.ring, e)
	} else {
		l.ring[l.next] = e
		l.next = (l.next + 1) % l.cap
	}
}

// ObserveAccess records a watchpoint hit if address matches a registered
// watchpoint for the given access direction.
func (l *Logger) ObserveAccess(address uint16, value uint8, isWrite bool) {
	if l == nil || !l.Enabled() {
		return
	}
	l.mu.Lock()
	matched := false
	for _, wp := range l.watchpoints {
		if wp.Address != address {
			continue
		}
		if (isWrite && wp.OnWrite) || (!isWrite && wp.OnRead) {
			matched = true
			break
		}
	}
	l.mu.Unlock()
	if !matched {
		return
	}
	kind := "read"
	if isWrite {
		kind = "write"
	}
	l.Record(Event{Kind: "watchpoint-" + kind, Address: address, Value: value})
}

// Recent returns a snapshot of the logged events in chronological order.
func (l *Logger) Recent() []Event {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, 0, len(l.ring))
	out = append(out, l.ring[l.next:]...)
	out = append(out, l.ring[:l.next]...)
	return out
}

// DumpState renders a full register/latch snapshot of the CPU, PPU, APU
// and Bus via spew, the Go analogue of the teacher's ad hoc
// fmt.Sprintf-based state dumps.
func DumpState(cpuState cpu.State, ppuState ppu.State, apuState apu.State, busState bus.State) string {
	return fmt.Sprintf(
		"=== CPU ===\n%s=== PPU ===\n%s=== APU ===\n%s=== BUS ===\n%s",
		spew.Sdump(cpuState), spew.Sdump(ppuState), spew.Sdump(apuState), spew.Sdump(busState),
	)
}
