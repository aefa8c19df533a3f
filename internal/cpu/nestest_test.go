package cpu

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// nestestState is one parsed line of the published nestest golden log: the
// (A, X, Y, P, SP, CYC) tuple the CPU must reproduce exactly after stepping
// one instruction, starting from PC=$C000 with the interrupt-disable flag
// set and the APU/PPU otherwise quiescent per nestest's "automation" mode.
type nestestState struct {
	pc            uint16
	a, x, y, p, s uint8
	cyc           uint64
}

// parseNestestLine reads one line of nestest.log, e.g.:
//
//	C000  4C F5 C5  JMP $C5F5    A:00 X:00 Y:00 P:24 SP:FD CYC:  0
//
// Only the leading address and the trailing register/cycle fields are used;
// the disassembly column in between is ignored.
func parseNestestLine(line string) (nestestState, bool) {
	if len(line) < 4 {
		return nestestState{}, false
	}
	pc, err := strconv.ParseUint(line[0:4], 16, 16)
	if err != nil {
		return nestestState{}, false
	}

	field := func(tag string) (uint64, bool) {
		i := strings.Index(line, tag)
		if i < 0 {
			return 0, false
		}
		i += len(tag)
		j := i
		for j < len(line) && line[j] != ' ' {
			j++
		}
		v, err := strconv.ParseUint(strings.TrimSpace(line[i:j]), 16, 16)
		return v, err == nil
	}

	a, ok1 := field("A:")
	x, ok2 := field("X:")
	y, ok3 := field("Y:")
	p, ok4 := field("P:")
	sp, ok5 := field("SP:")
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return nestestState{}, false
	}

	cycIdx := strings.Index(line, "CYC:")
	if cycIdx < 0 {
		return nestestState{}, false
	}
	cyc, err := strconv.ParseUint(strings.TrimSpace(line[cycIdx+4:]), 10, 64)
	if err != nil {
		return nestestState{}, false
	}

	return nestestState{
		pc:  uint16(pc),
		a:   uint8(a),
		x:   uint8(x),
		y:   uint8(y),
		p:   uint8(p),
		s:   uint8(sp),
		cyc: cyc,
	}, true
}

// loadINESPRG extracts the PRG ROM from an iNES file and mirrors it across
// $8000-$FFFF, which is all nestest needs (it never banks).
func loadINESPRG(t *testing.T, path string) *flatMemory {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, len(data) > 16 && string(data[0:4]) == "NES\x1a")

	prgBanks := int(data[4])
	prgSize := prgBanks * 16384
	headerEnd := 16
	if data[6]&0x04 != 0 {
		headerEnd += 512 // trainer
	}
	prg := data[headerEnd : headerEnd+prgSize]

	mem := &flatMemory{}
	for base := 0x8000; base < 0x10000; base += prgSize {
		copy(mem.data[base:base+prgSize], prg)
	}
	return mem
}

// CPU instruction-level conformance against the published nestest golden
// log: every (PC, A, X, Y, P, SP, CYC) tuple must match across all 8991 steps of automation mode. The test data
// isn't distributed with this source tree (it's the standard
// nestest.nes/nestest.log pair published alongside nestest); drop both into
// testdata/ to activate the check.
func TestNestestConformance(t *testing.T) {
	romPath := filepath.Join("testdata", "nestest.nes")
	logPath := filepath.Join("testdata", "nestest.log")
	if _, err := os.Stat(romPath); err != nil {
		t.Skip("testdata/nestest.nes not present, skipping golden-log conformance")
	}
	if _, err := os.Stat(logPath); err != nil {
		t.Skip("testdata/nestest.log not present, skipping golden-log conformance")
	}

	mem := loadINESPRG(t, romPath)
	c := New(mem)
	c.Reset()
	for c.cyclesRemaining > 0 {
		c.Clock()
	}
	// nestest's automation entry point, bypassing the reset-vector JMP that
	// would otherwise run its interactive test-selection menu.
	c.PC = 0xC000
	c.SP = 0xFD
	c.SetStatusByte(0x24)
	c.totalCycles = 7 // nestest.log's first line starts at CYC:7, post-reset

	logFile, err := os.Open(logPath)
	require.NoError(t, err)
	defer logFile.Close()

	scanner := bufio.NewScanner(logFile)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		want, ok := parseNestestLine(scanner.Text())
		if !ok {
			continue
		}

		require.Equalf(t, want.pc, c.PC, "line %d: PC mismatch", lineNum)
		require.Equalf(t, want.a, c.A, "line %d: A mismatch", lineNum)
		require.Equalf(t, want.x, c.X, "line %d: X mismatch", lineNum)
		require.Equalf(t, want.y, c.Y, "line %d: Y mismatch", lineNum)
		require.Equalf(t, want.p, c.GetStatusByte(), "line %d: P mismatch", lineNum)
		require.Equalf(t, want.s, c.SP, "line %d: SP mismatch", lineNum)
		require.Equalf(t, want.cyc, c.totalCycles, "line %d: CYC mismatch", lineNum)

		c.Step()
	}
	require.NoError(t, scanner.Err())
}
