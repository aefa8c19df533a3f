//go:build !headless
// +build !headless

package graphics

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestParseKeyName(t *testing.T) {
	cases := []struct {
		name string
		want ebiten.Key
	}{
		{"W", ebiten.KeyW},
		{"a", ebiten.KeyA},
		{"Return", ebiten.KeyEnter},
		{"Space", ebiten.KeySpace},
		{"RShift", ebiten.KeyShiftRight},
		{"RCtrl", ebiten.KeyControlRight},
		{"N", ebiten.KeyN},
		{"M", ebiten.KeyM},
		{"Up", ebiten.KeyArrowUp},
		{"F1", ebiten.KeyF1},
	}
	for _, c := range cases {
		got, ok := parseKeyName(c.name)
		if !ok {
			t.Errorf("parseKeyName(%q): expected a match", c.name)
			continue
		}
		if got != c.want {
			t.Errorf("parseKeyName(%q) = %v, want %v", c.name, got, c.want)
		}
	}

	if _, ok := parseKeyName("NotAKey"); ok {
		t.Error("parseKeyName(\"NotAKey\") should not resolve")
	}
}

func TestBuildControllerBindingsFromConfigDefaults(t *testing.T) {
	// Mirrors the shell's default Player1Keys/Player2Keys (WASD for P1,
	// arrows + N/M/RShift/RCtrl for P2) to make sure the two controllers'
	// bindings land on distinct, correct buttons.
	p1 := KeyMapping{Up: "W", Down: "S", Left: "A", Right: "D", A: "J", B: "K", Start: "Return", Select: "Space"}
	p2 := KeyMapping{Up: "Up", Down: "Down", Left: "Left", Right: "Right", A: "N", B: "M", Start: "RShift", Select: "RCtrl"}

	bindings := make(map[ebiten.Key]Button)
	buildControllerBindings(bindings, p1, ButtonUp, ButtonDown, ButtonLeft, ButtonRight, ButtonA, ButtonB, ButtonStart, ButtonSelect)
	buildControllerBindings(bindings, p2, Button2Up, Button2Down, Button2Left, Button2Right, Button2A, Button2B, Button2Start, Button2Select)

	if bindings[ebiten.KeyW] != ButtonUp {
		t.Errorf("expected W bound to player 1 Up, got %v", bindings[ebiten.KeyW])
	}
	if bindings[ebiten.KeyJ] != ButtonA {
		t.Errorf("expected J bound to player 1 A, got %v", bindings[ebiten.KeyJ])
	}
	if bindings[ebiten.KeyArrowUp] != Button2Up {
		t.Errorf("expected ArrowUp bound to player 2 Up, got %v", bindings[ebiten.KeyArrowUp])
	}
	if bindings[ebiten.KeyN] != Button2A {
		t.Errorf("expected N bound to player 2 A, got %v", bindings[ebiten.KeyN])
	}
	if bindings[ebiten.KeyShiftRight] != Button2Start {
		t.Errorf("expected RShift bound to player 2 Start, got %v", bindings[ebiten.KeyShiftRight])
	}

	// Unbound name leaves nothing registered for that button.
	empty := make(map[ebiten.Key]Button)
	buildControllerBindings(empty, KeyMapping{Up: "bogus"}, ButtonUp, ButtonDown, ButtonLeft, ButtonRight, ButtonA, ButtonB, ButtonStart, ButtonSelect)
	if len(empty) != 0 {
		t.Errorf("expected no bindings from an unrecognized key name, got %v", empty)
	}
}
