package arbor

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// scrollState holds the vertical scroll offset and an optional scroll-to
// tween.
type scrollState struct {
	y     float64
	tween *gween.Tween
}

func (s *scrollState) reset() {
	s.y = 0
	s.tween = nil
}

// set jumps to y and cancels any running tween.
func (s *scrollState) set(y float64) {
	s.y = y
	s.tween = nil
}

// ScrollY returns the current scroll offset in pixels.
func (v *Viewer) ScrollY() float64 { return v.scroll.y }

// viewportHeight returns the surface height, or 0 without a surface.
func (v *Viewer) viewportHeight() float64 {
	if v.surface == nil {
		return 0
	}
	_, h := v.surface.Size()
	return h
}

// MaxScrollY returns the largest scroll offset that still shows content.
func (v *Viewer) MaxScrollY() float64 {
	m := v.contentHeight - v.viewportHeight()
	if m < 0 {
		return 0
	}
	return m
}

func (v *Viewer) clampScroll(y float64) float64 {
	if y < 0 {
		return 0
	}
	if m := v.MaxScrollY(); y > m {
		return m
	}
	return y
}

// SetScrollY jumps to y, clamped to the scroll range of the last paint.
// Call Repaint to see the effect.
func (v *Viewer) SetScrollY(y float64) {
	v.scroll.set(v.clampScroll(y))
}

// Scroll moves the view by dy pixels (positive scrolls down) and repaints.
// Hosts feed mouse wheel deltas here.
func (v *Viewer) Scroll(dy float64) error {
	y := v.clampScroll(v.scroll.y + dy)
	if y == v.scroll.y && v.scroll.tween == nil {
		return nil
	}
	v.scroll.set(y)
	return v.Repaint()
}

// ScrollTo animates the scroll offset to y over duration seconds. The tween
// advances in Update. A non-positive duration jumps immediately.
func (v *Viewer) ScrollTo(y float64, duration float32, easeFn ease.TweenFunc) error {
	y = v.clampScroll(y)
	if duration <= 0 {
		v.scroll.set(y)
		return v.Repaint()
	}
	if easeFn == nil {
		easeFn = v.opts.ScrollEase
	}
	v.scroll.tween = gween.New(float32(v.scroll.y), float32(y), duration, easeFn)
	return nil
}

// ScrollIntoView scrolls the minimum distance that makes the paint item at
// index fully visible, using the configured ScrollDuration.
func (v *Viewer) ScrollIntoView(index int) error {
	if index < 0 || index >= len(v.items) {
		return nil
	}
	r := v.items[index].Rect
	top := r.Y + v.scroll.y
	bottom := top + r.Height
	vh := v.viewportHeight()

	target := v.scroll.y
	switch {
	case top < v.scroll.y:
		target = top
	case bottom > v.scroll.y+vh:
		target = bottom - vh
	default:
		return nil
	}
	return v.ScrollTo(target, v.opts.ScrollDuration, nil)
}

// updateScroll advances a running tween. Returns true when the offset moved.
func (v *Viewer) updateScroll(dt float32) bool {
	if v.scroll.tween == nil {
		return false
	}
	cur, done := v.scroll.tween.Update(dt)
	v.scroll.y = v.clampScroll(float64(cur))
	if done {
		v.scroll.tween = nil
	}
	return true
}

// Scrolling reports whether a scroll tween is running.
func (v *Viewer) Scrolling() bool { return v.scroll.tween != nil }

// Update advances scroll animation and applies finished preloads, repainting
// when either changed what is on screen. Hosts call it once per frame with
// the frame time in seconds.
func (v *Viewer) Update(dt float32) error {
	dirty := v.updateScroll(dt)
	if v.drainPreloads() {
		dirty = true
	}
	if !dirty {
		return nil
	}
	return v.Repaint()
}
