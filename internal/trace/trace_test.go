package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gones/internal/apu"
	"gones/internal/bus"
	"gones/internal/cpu"
	"gones/internal/ppu"
)

func TestDisabledLoggerDropsEvents(t *testing.T) {
	l := NewLogger(4)
	l.Record(Event{Kind: "instruction", Address: 0x8000})
	assert.Empty(t, l.Recent())
}

func TestEnabledLoggerRingWrapsAtCapacity(t *testing.T) {
	l := NewLogger(2)
	l.SetEnabled(true)
	l.Record(Event{Kind: "a"})
	l.Record(Event{Kind: "b"})
	l.Record(Event{Kind: "c"})

	recent := l.Recent()
	assert.Len(t, recent, 2)
}

func TestWatchpointOnlyFiresOnMatchingAddressAndDirection(t *testing.T) {
	l := NewLogger(8)
	l.SetEnabled(true)
	l.AddWatchpoint(Watchpoint{Address: 0x2000, OnWrite: true})

	l.ObserveAccess(0x2000, 0x80, false) // read: should not match
	assert.Empty(t, l.Recent())

	l.ObserveAccess(0x2000, 0x80, true) // write: should match
	recent := l.Recent()
	assert.Len(t, recent, 1)
	assert.Equal(t, "watchpoint-write", recent[0].Kind)
}

func TestNilLoggerIsANoOp(t *testing.T) {
	var l *Logger
	assert.False(t, l.Enabled())
	assert.NotPanics(t, func() {
		l.Record(Event{Kind: "x"})
		l.ObserveAccess(0x2000, 0, true)
		l.SetEnabled(true)
		l.AddWatchpoint(Watchpoint{Address: 0x2000})
	})
	assert.Nil(t, l.Recent())
}

func TestDumpStateIncludesAllFourSections(t *testing.T) {
	out := DumpState(cpu.State{}, ppu.State{}, apu.State{}, bus.State{})
	assert.Contains(t, out, "=== CPU ===")
	assert.Contains(t, out, "=== PPU ===")
	assert.Contains(t, out, "=== APU ===")
	assert.Contains(t, out, "=== BUS ===")
}
