//go:build !headless
// +build !headless

package graphics

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// EbitengineBackend implements the Backend interface using Ebitengine
type EbitengineBackend struct {
	initialized bool
	config      Config
	game        *EbitengineGame
}

// EbitengineWindow implements the Window interface for Ebitengine
type EbitengineWindow struct {
	backend            *EbitengineBackend
	title              string
	width              int
	height             int
	game               *EbitengineGame
	running            bool
	events             []InputEvent
	emulatorUpdateFunc func() error
}

// EbitengineGame implements ebiten.Game for the NES emulator
type EbitengineGame struct {
	window       *EbitengineWindow
	frameBuffer  [256 * 240]uint32
	frameImage   *ebiten.Image
	nesWidth     int
	nesHeight    int
	windowWidth  int
	windowHeight int

	scale     int
	drawCount int // For limiting debug logs

	// Reusable image buffer to prevent memory leaks
	imageBuffer *image.RGBA

	// controllerBindings maps a physical key to the NES button it drives,
	// built from Config.Player1Keys/Player2Keys at window creation time so
	// remapped controls in config.json actually take effect.
	controllerBindings map[ebiten.Key]Button
}

// parseKeyName resolves one of the key names used in KeyMapping (e.g. "W",
// "Return", "RShift", "F1") to the ebiten key it names. Unrecognized names
// return ok=false so a config typo leaves that button unbound instead of
// silently binding the wrong key.
func parseKeyName(name string) (ebiten.Key, bool) {
	switch strings.ToLower(name) {
	case "up", "arrowup":
		return ebiten.KeyArrowUp, true
	case "down", "arrowdown":
		return ebiten.KeyArrowDown, true
	case "left", "arrowleft":
		return ebiten.KeyArrowLeft, true
	case "right", "arrowright":
		return ebiten.KeyArrowRight, true
	case "return", "enter":
		return ebiten.KeyEnter, true
	case "space":
		return ebiten.KeySpace, true
	case "escape", "esc":
		return ebiten.KeyEscape, true
	case "lshift", "shift":
		return ebiten.KeyShiftLeft, true
	case "rshift":
		return ebiten.KeyShiftRight, true
	case "lctrl", "ctrl", "control":
		return ebiten.KeyControlLeft, true
	case "rctrl":
		return ebiten.KeyControlRight, true
	case "w":
		return ebiten.KeyW, true
	case "a":
		return ebiten.KeyA, true
	case "s":
		return ebiten.KeyS, true
	case "d":
		return ebiten.KeyD, true
	case "j":
		return ebiten.KeyJ, true
	case "k":
		return ebiten.KeyK, true
	case "n":
		return ebiten.KeyN, true
	case "m":
		return ebiten.KeyM, true
	case "x":
		return ebiten.KeyX, true
	case "z":
		return ebiten.KeyZ, true
	case "1":
		return ebiten.Key1, true
	case "2":
		return ebiten.Key2, true
	case "3":
		return ebiten.Key3, true
	case "4":
		return ebiten.Key4, true
	case "5":
		return ebiten.Key5, true
	case "6":
		return ebiten.Key6, true
	case "7":
		return ebiten.Key7, true
	case "8":
		return ebiten.Key8, true
	case "f1":
		return ebiten.KeyF1, true
	case "f2":
		return ebiten.KeyF2, true
	case "f3":
		return ebiten.KeyF3, true
	case "f4":
		return ebiten.KeyF4, true
	case "f5":
		return ebiten.KeyF5, true
	case "f6":
		return ebiten.KeyF6, true
	case "f7":
		return ebiten.KeyF7, true
	case "f8":
		return ebiten.KeyF8, true
	case "f9":
		return ebiten.KeyF9, true
	case "f10":
		return ebiten.KeyF10, true
	case "f11":
		return ebiten.KeyF11, true
	case "f12":
		return ebiten.KeyF12, true
	default:
		return ebiten.Key(0), false
	}
}

// buildControllerBindings resolves a KeyMapping's named keys into an
// ebiten.Key -> Button table for one controller, merging into dst.
func buildControllerBindings(dst map[ebiten.Key]Button, keys KeyMapping, up, down, left, right, a, b, start, select_ Button) {
	bind := func(name string, button Button) {
		if name == "" {
			return
		}
		if key, ok := parseKeyName(name); ok {
			dst[key] = button
		}
	}
	bind(keys.Up, up)
	bind(keys.Down, down)
	bind(keys.Left, left)
	bind(keys.Right, right)
	bind(keys.A, a)
	bind(keys.B, b)
	bind(keys.Start, start)
	bind(keys.Select, select_)
}

// NewEbitengineBackend creates a new Ebitengine graphics backend
func NewEbitengineBackend() Backend {
	return &EbitengineBackend{}
}

// Initialize initializes the Ebitengine backend
func (b *EbitengineBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("Ebitengine backend already initialized")
	}

	b.config = config
	b.initialized = true

	return nil
}

// CreateWindow creates an Ebitengine window
func (b *EbitengineBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}

	if b.config.Headless {
		return nil, fmt.Errorf("cannot create window in headless mode")
	}

	// Calculate appropriate scale for NES resolution (256x240)
	scale := 1
	if width >= 512 && height >= 480 {
		scale = 2
	}
	if width >= 1024 && height >= 960 {
		scale = 4
	}

	bindings := make(map[ebiten.Key]Button)
	buildControllerBindings(bindings, b.config.Player1Keys,
		ButtonUp, ButtonDown, ButtonLeft, ButtonRight, ButtonA, ButtonB, ButtonStart, ButtonSelect)
	buildControllerBindings(bindings, b.config.Player2Keys,
		Button2Up, Button2Down, Button2Left, Button2Right, Button2A, Button2B, Button2Start, Button2Select)

	game := &EbitengineGame{
		nesWidth:           256,
		nesHeight:          240,
		windowWidth:        width,
		windowHeight:       height,
		scale:              scale,
		frameImage:         ebiten.NewImage(256, 240),
		imageBuffer:        image.NewRGBA(image.Rect(0, 0, 256, 240)), // Pre-allocate reusable buffer
		controllerBindings: bindings,
	}

	window := &EbitengineWindow{
		backend: b,
		title:   title,
		width:   width,
		height:  height,
		game:    game,
		running: true,
	}

	game.window = window
	b.game = game

	// Configure Ebitengine
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	// Configure VSync for optimal 60FPS performance
	if b.config.VSync {
		ebiten.SetVsyncEnabled(true)
	} else {
		// Even without VSync, we want to target 60FPS
		ebiten.SetVsyncEnabled(false)
	}

	// Note: Ebitengine automatically targets 60FPS when VSync is enabled
	// For non-VSync mode, the game loop handles frame limiting

	if b.config.Fullscreen {
		ebiten.SetFullscreen(true)
	}

	// Set the filter mode (disable for better performance if not needed)
	if b.config.Filter == "linear" {
		ebiten.SetScreenFilterEnabled(true)
	} else {
		ebiten.SetScreenFilterEnabled(false) // Better performance
	}

	return window, nil
}

// Cleanup releases all Ebitengine resources
func (b *EbitengineBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true if running in headless mode
func (b *EbitengineBackend) IsHeadless() bool {
	return b.config.Headless
}

// GetName returns the backend name
func (b *EbitengineBackend) GetName() string {
	return "Ebitengine"
}

// EbitengineWindow implementation

// SetTitle sets the window title
func (w *EbitengineWindow) SetTitle(title string) {
	w.title = title
	ebiten.SetWindowTitle(title)
}

// GetSize returns window dimensions
func (w *EbitengineWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *EbitengineWindow) ShouldClose() bool {
	return !w.running
}

// SwapBuffers is handled automatically by Ebitengine
func (w *EbitengineWindow) SwapBuffers() {
	// Ebitengine handles buffer swapping automatically
}

// PollEvents processes input events and returns them
func (w *EbitengineWindow) PollEvents() []InputEvent {
	events := w.events
	w.events = nil // Clear events after returning them

	// Debug log for polled events (disabled for performance - uncomment if needed for debugging)
	// if len(events) > 0 && len(events) <= 2 { // Only log when there are 1-2 events to avoid spam
	//	log.Printf("[INPUT_DEBUG] PollEvents returning %d events", len(events))
	//	for i, event := range events {
	//		if event.Type == InputEventTypeButton {
	//			log.Printf("[INPUT_DEBUG] Event %d: Button %v = %v", i, event.Button, event.Pressed)
	//		}
	//	}
	// }

	return events
}

// RenderFrame renders a NES frame buffer to the window
func (w *EbitengineWindow) RenderFrame(frameBuffer [256 * 240]uint32) error {
	if w.game == nil {
		return fmt.Errorf("game not initialized")
	}

	// Copy frame buffer to game
	w.game.frameBuffer = frameBuffer

	// Convert frame buffer to Ebitengine image using reusable buffer
	img := w.game.imageBuffer // Reuse pre-allocated buffer
	nonBlackCount := 0
	for y := 0; y < 240; y++ {
		for x := 0; x < 256; x++ {
			pixel := frameBuffer[y*256+x]
			r := uint8((pixel >> 16) & 0xFF)
			g := uint8((pixel >> 8) & 0xFF)
			b := uint8(pixel & 0xFF)
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
			if pixel != 0x000000 {
				nonBlackCount++
			}
		}
	}

	// Debug log frame content very rarely to avoid performance impact
	// Only log every 1800 frames (30 seconds at 60fps) and only if substantial content
	frameNum := w.game.drawCount
	if nonBlackCount > 1000 && frameNum%1800 == 0 {
		log.Printf("[Ebitengine] RenderFrame: %d non-black pixels (frame %d)", nonBlackCount, frameNum)
	}

	w.game.frameImage.ReplacePixels(img.Pix)
	return nil
}

// Cleanup releases window resources
func (w *EbitengineWindow) Cleanup() error {
	w.running = false
	return nil
}

// Run starts the Ebitengine game loop
func (w *EbitengineWindow) Run() error {
	if w.game == nil {
		return fmt.Errorf("game not initialized")
	}

	// Start the Ebitengine game loop
	return ebiten.RunGame(w.game)
}

// SetEmulatorUpdateFunc sets the emulator update function
func (w *EbitengineWindow) SetEmulatorUpdateFunc(updateFunc func() error) {
	w.emulatorUpdateFunc = updateFunc
}

// EbitengineGame implementation

// Update implements ebiten.Game.Update
func (g *EbitengineGame) Update() error {
	if g.window == nil {
		return nil
	}

	// Process keyboard input
	g.processInput()

	// Update the emulator if function is provided
	if g.window.emulatorUpdateFunc != nil {
		if err := g.window.emulatorUpdateFunc(); err != nil {
			// Log error but don't stop the game
			log.Printf("[Ebitengine] Emulator update error: %v", err)
		}
	}

	return nil
}

// Draw implements ebiten.Game.Draw
func (g *EbitengineGame) Draw(screen *ebiten.Image) {
	if g.frameImage == nil {
		// Clear screen to black if no frame available
		screen.Fill(color.RGBA{R: 0, G: 0, B: 0, A: 255})
		return
	}

	// Clear the screen first
	screen.Fill(color.RGBA{R: 0, G: 0, B: 0, A: 255})

	// Calculate drawing options for proper scaling and centering
	op := &ebiten.DrawImageOptions{}

	// Calculate scale to fit the window while maintaining aspect ratio
	scaleX := float64(g.windowWidth) / float64(g.nesWidth)
	scaleY := float64(g.windowHeight) / float64(g.nesHeight)

	// Use the smaller scale to maintain aspect ratio
	scale := scaleX
	if scaleY < scaleX {
		scale = scaleY
	}

	// Center the image
	offsetX := (float64(g.windowWidth) - float64(g.nesWidth)*scale) / 2
	offsetY := (float64(g.windowHeight) - float64(g.nesHeight)*scale) / 2

	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(offsetX, offsetY)

	// Draw the NES frame
	screen.DrawImage(g.frameImage, op)

	// Debug: Log very rarely to avoid performance impact
	g.drawCount++
	if g.drawCount%1800 == 0 { // Log every 1800 frames (about once per 30 seconds)
		log.Printf("[Ebitengine] Drawing frame %d - %dx%d scaled %.2fx at offset (%.1f,%.1f)",
			g.drawCount, g.nesWidth, g.nesHeight, scale, offsetX, offsetY)
	}
}

// Layout implements ebiten.Game.Layout
func (g *EbitengineGame) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	// Update window dimensions
	g.windowWidth = outsideWidth
	g.windowHeight = outsideHeight

	// Return the screen size - we'll handle scaling in Draw()
	return outsideWidth, outsideHeight
}

// processInput processes keyboard and controller input
func (g *EbitengineGame) processInput() {
	if g.window == nil {
		return
	}

	var events []InputEvent

	// Check for quit events
	if ebiten.IsKeyPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		events = append(events, InputEvent{
			Type:    InputEventTypeQuit,
			Pressed: true,
		})
	}

	// Keys that pass through as raw key events rather than controller
	// buttons: Escape (quit, handled above too) and the function-key
	// save-state hotkeys the app layer reads directly.
	passthroughKeys := map[ebiten.Key]Key{
		ebiten.KeyEscape: KeyEscape,
		ebiten.KeyF1:     KeyF1,
		ebiten.KeyF2:     KeyF2,
		ebiten.KeyF3:     KeyF3,
		ebiten.KeyF4:     KeyF4,
		ebiten.KeyF5:     KeyF5,
		ebiten.KeyF6:     KeyF6,
		ebiten.KeyF7:     KeyF7,
		ebiten.KeyF8:     KeyF8,
		ebiten.KeyF9:     KeyF9,
		ebiten.KeyF10:    KeyF10,
		ebiten.KeyF11:    KeyF11,
		ebiten.KeyF12:    KeyF12,
	}

	var finalEvents []InputEvent
	for ebitenKey, key := range passthroughKeys {
		if inpututil.IsKeyJustPressed(ebitenKey) {
			finalEvents = append(finalEvents, InputEvent{Type: InputEventTypeKey, Key: key, Pressed: true})
		} else if inpututil.IsKeyJustReleased(ebitenKey) {
			finalEvents = append(finalEvents, InputEvent{Type: InputEventTypeKey, Key: key, Pressed: false})
		}
	}

	// Controller buttons are driven directly by the bindings resolved from
	// Config.Player1Keys/Player2Keys, so a remapped control actually changes
	// which physical key fires which button.
	for ebitenKey, button := range g.controllerBindings {
		if inpututil.IsKeyJustPressed(ebitenKey) {
			finalEvents = append(finalEvents, InputEvent{Type: InputEventTypeButton, Button: button, Pressed: true})
		} else if inpututil.IsKeyJustReleased(ebitenKey) {
			finalEvents = append(finalEvents, InputEvent{Type: InputEventTypeButton, Button: button, Pressed: false})
		}
	}

	// Store events for retrieval by PollEvents
	g.window.events = append(g.window.events, finalEvents...)
}

// Debug logging for development
func (g *EbitengineGame) logDebug(msg string) {
	log.Printf("[Ebitengine] %s", msg)
}
