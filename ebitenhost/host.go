package ebitenhost

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/phanxgames/arbor"
)

const (
	defaultWheelSpeed = 40 // pixels per wheel notch
	keyRepeatDelay    = 24 // ticks before a held key repeats
	keyRepeatInterval = 4  // ticks between repeats
)

// navKeys maps ebiten keys to viewer navigation keys.
var navKeys = []struct {
	key ebiten.Key
	nav arbor.Key
}{
	{ebiten.KeyArrowUp, arbor.KeyUp},
	{ebiten.KeyArrowDown, arbor.KeyDown},
	{ebiten.KeyArrowLeft, arbor.KeyLeft},
	{ebiten.KeyArrowRight, arbor.KeyRight},
	{ebiten.KeyHome, arbor.KeyHome},
	{ebiten.KeyEnd, arbor.KeyEnd},
	{ebiten.KeyPageUp, arbor.KeyPageUp},
	{ebiten.KeyPageDown, arbor.KeyPageDown},
	{ebiten.KeyEnter, arbor.KeyEnter},
	{ebiten.KeyNumpadEnter, arbor.KeyEnter},
}

// Host runs a viewer inside an Ebitengine game loop. It implements
// ebiten.Game: Update forwards mouse, wheel and keyboard input and advances
// the viewer; Draw blits the viewer's canvas.
//
// Host can be embedded in a larger game; call Update and Draw from your own
// ebiten.Game and position the canvas with DrawAt.
type Host struct {
	Viewer *arbor.Viewer

	// WheelSpeed is the scroll distance per wheel notch. 0 = 40.
	WheelSpeed float64
	// ShowFPS draws ebiten's TPS/FPS counter in the top-left corner.
	ShowFPS bool
	// OnUpdate runs at the end of every Update, after the viewer.
	OnUpdate func() error
	// Script, when set, replays recorded input. Real mouse and keyboard
	// input is ignored until it is done.
	Script *arbor.Script

	surface       *Surface
	width, height int
}

// NewHost creates a host for v. The canvas is allocated on the first Layout.
func NewHost(v *arbor.Viewer) *Host {
	return &Host{Viewer: v}
}

// Surface returns the viewer's canvas, or nil before the first Layout.
func (h *Host) Surface() *Surface { return h.surface }

// Layout implements ebiten.Game. The canvas follows the window size.
func (h *Host) Layout(outsideWidth, outsideHeight int) (int, int) {
	h.width, h.height = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}

// Update implements ebiten.Game.
func (h *Host) Update() error {
	if err := h.ensureSurface(); err != nil {
		return err
	}
	dt := float32(1.0 / float64(ebiten.TPS()))
	mods := readModifiers()

	if h.Script != nil && !h.Script.Done() {
		if err := h.Script.Step(h.Viewer); err != nil {
			return err
		}
		return h.finishUpdate(dt)
	}
	if err := h.processPointer(mods); err != nil {
		return err
	}
	if _, wy := ebiten.Wheel(); wy != 0 {
		if err := h.Viewer.Scroll(-wy * h.wheelSpeed()); err != nil {
			return err
		}
	}
	for _, k := range navKeys {
		if !repeating(k.key) {
			continue
		}
		if err := h.Viewer.HandleKey(k.nav, mods); err != nil {
			return err
		}
	}
	return h.finishUpdate(dt)
}

func (h *Host) finishUpdate(dt float32) error {
	if err := h.Viewer.Update(dt); err != nil {
		return err
	}
	if h.OnUpdate != nil {
		return h.OnUpdate()
	}
	return nil
}

// Draw implements ebiten.Game.
func (h *Host) Draw(screen *ebiten.Image) {
	h.DrawAt(screen, 0, 0)
	if h.ShowFPS {
		ebitenutil.DebugPrint(screen, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
	}
}

// DrawAt blits the canvas to screen with its top-left corner at (x, y).
func (h *Host) DrawAt(screen *ebiten.Image, x, y float64) {
	if h.surface == nil {
		return
	}
	var op ebiten.DrawImageOptions
	op.GeoM.Translate(x, y)
	screen.DrawImage(h.surface.Image(), &op)
}

// ensureSurface allocates or resizes the canvas to the layout size and
// repaints after a change.
func (h *Host) ensureSurface() error {
	if h.width <= 0 || h.height <= 0 {
		return nil
	}
	switch {
	case h.surface == nil:
		h.surface = NewSurface(h.width, h.height)
	case !h.surface.Resize(h.width, h.height):
		return nil
	}
	h.Viewer.SetSurface(h.surface)
	return h.Viewer.Repaint()
}

// processPointer feeds the mouse into the viewer's pointer state machine.
func (h *Host) processPointer(mods arbor.KeyModifiers) error {
	mx, my := ebiten.CursorPosition()

	var pressed bool
	var button arbor.MouseButton
	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	right := ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	middle := ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle)
	if left || right || middle {
		pressed = true
		switch {
		case left:
			button = arbor.MouseButtonLeft
		case right:
			button = arbor.MouseButtonRight
		default:
			button = arbor.MouseButtonMiddle
		}
	}
	return h.Viewer.ProcessPointer(float64(mx), float64(my), pressed, button, mods)
}

func (h *Host) wheelSpeed() float64 {
	if h.WheelSpeed > 0 {
		return h.WheelSpeed
	}
	return defaultWheelSpeed
}

// repeating reports a key press on the first tick and then at the repeat
// interval while the key is held.
func repeating(k ebiten.Key) bool {
	d := inpututil.KeyPressDuration(k)
	if d == 1 {
		return true
	}
	return d >= keyRepeatDelay && (d-keyRepeatDelay)%keyRepeatInterval == 0
}

// readModifiers reads the current keyboard modifier state.
func readModifiers() arbor.KeyModifiers {
	var mods arbor.KeyModifiers
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		mods |= arbor.ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		mods |= arbor.ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) {
		mods |= arbor.ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) {
		mods |= arbor.ModMeta
	}
	return mods
}

// --- Run ---

// RunConfig configures the window opened by Run.
type RunConfig struct {
	Title         string
	Width, Height int  // 0 = 480 x 640
	ShowFPS       bool // draw the FPS/TPS counter
	// Resizable lets the user resize the window; the canvas follows.
	Resizable bool
	// OnUpdate is copied to Host.OnUpdate.
	OnUpdate func() error
	// Script is copied to Host.Script.
	Script *arbor.Script
}

// Run opens a window and runs v until it is closed or a viewer call fails.
func Run(v *arbor.Viewer, cfg RunConfig) error {
	w, hgt := cfg.Width, cfg.Height
	if w <= 0 {
		w = 480
	}
	if hgt <= 0 {
		hgt = 640
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(w, hgt)
	if cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	h := NewHost(v)
	h.ShowFPS = cfg.ShowFPS
	h.OnUpdate = cfg.OnUpdate
	h.Script = cfg.Script
	return ebiten.RunGame(h)
}
