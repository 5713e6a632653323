package arbor

import "image/color"

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication occurs when a surface converts it for drawing.
type Color struct {
	R, G, B, A float64
}

// ColorWhite and ColorTransparent are convenience values.
var (
	ColorWhite       = Color{1, 1, 1, 1}
	ColorTransparent = Color{}
)

// RGBA converts c to a premultiplied color.RGBA for image-based surfaces.
func (c Color) RGBA() color.RGBA {
	return color.RGBA{
		R: uint8(clamp01(c.R*c.A) * 255),
		G: uint8(clamp01(c.G*c.A) * 255),
		B: uint8(clamp01(c.B*c.A) * 255),
		A: uint8(clamp01(c.A) * 255),
	}
}

// NRGBA converts c to a straight-alpha color.NRGBA.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{
		R: uint8(clamp01(c.R) * 255),
		G: uint8(clamp01(c.G) * 255),
		B: uint8(clamp01(c.B) * 255),
		A: uint8(clamp01(c.A) * 255),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// The rectangle is half-open: the left and top edges are inside, the right
// and bottom edges belong to the neighbour.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.Width &&
		y >= r.Y && y < r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// PaintItem records where one row was laid out during the most recent paint.
// Paint items are produced for every included row, including rows scrolled
// out of view, and are stale after the next structural change.
type PaintItem struct {
	Rect
	Index int
	Depth int
	Item  any
}

// HotZone is the clickable expander box of a painted node with children.
type HotZone struct {
	Rect
	Item any
}

// LoadResult reports whether a preload fetched anything new.
type LoadResult uint8

const (
	NothingLoaded   LoadResult = iota // nothing new; no repaint needed
	ResourcesLoaded                   // new resources are available; repaint
)

// String returns the constant name.
func (r LoadResult) String() string {
	if r == ResourcesLoaded {
		return "RESOURCES_LOADED"
	}
	return "NOTHING_LOADED"
}

// EventType identifies a kind of viewer event.
type EventType uint8

const (
	EventSelectionChanged EventType = iota // selection set changed
	EventItemOpened                        // a row was activated (double click / Enter)
	EventLayoutChanged                     // content height changed
)

// MouseButton identifies a mouse button.
type MouseButton uint8

const (
	MouseButtonLeft   MouseButton = iota // primary (left) mouse button
	MouseButtonRight                     // secondary (right) mouse button
	MouseButtonMiddle                    // middle mouse button (scroll wheel click)
)

// KeyModifiers is a bitmask of keyboard modifier keys.
// Values can be combined with bitwise OR (e.g. ModShift | ModCtrl).
type KeyModifiers uint8

const (
	ModShift KeyModifiers = 1 << iota // Shift key
	ModCtrl                           // Control key
	ModAlt                            // Alt / Option key
	ModMeta                           // Meta / Command / Windows key
)

// Key identifies a navigation key understood by Viewer.HandleKey.
type Key uint8

const (
	KeyUp Key = iota
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyEnter
)
