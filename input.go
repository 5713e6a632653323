package arbor

import "time"

// pointerState tracks one press/release interaction and the last completed
// click, for double-click detection.
type pointerState struct {
	down      bool
	button    MouseButton
	downIndex int // paint index under the press, -1 for empty space
	downZone  bool

	lastItem any
	lastAt   time.Time
}

func (ps *pointerState) reset() {
	*ps = pointerState{downIndex: -1}
}

// hotZoneAt returns the expander under (x, y) from the last paint.
func (v *Viewer) hotZoneAt(x, y float64) (HotZone, bool) {
	for _, z := range v.zones {
		if z.Contains(x, y) {
			return z, true
		}
	}
	return HotZone{}, false
}

// setExpandedAndRepaint changes one expansion flag and repaints. The flag is
// put back when the repaint fails.
func (v *Viewer) setExpandedAndRepaint(item any, expanded bool) error {
	was := v.IsExpanded(item)
	v.SetExpanded(item, expanded)
	if err := v.Repaint(); err != nil {
		v.SetExpanded(item, was)
		return err
	}
	return nil
}

// --- Pointer ---

// Click dispatches a click at viewport coordinates (x, y). An expander under
// the pointer toggles its item and the click goes no further. Otherwise the
// row under the pointer is selected: ModCtrl or ModMeta toggles it, ModShift
// selects the range from the anchor, and no modifier replaces the selection.
// A click on empty space without modifiers clears the selection.
func (v *Viewer) Click(x, y float64, mods KeyModifiers) error {
	if zone, ok := v.hotZoneAt(x, y); ok {
		return v.setExpandedAndRepaint(zone.Item, !v.IsExpanded(zone.Item))
	}
	i := v.layout.HitTest(v.items, x, y)
	if i < 0 {
		if mods&(ModShift|ModCtrl|ModMeta) != 0 || len(v.selOrder) == 0 {
			return nil
		}
		v.SetSelection()
		return v.Repaint()
	}
	v.selectIndex(i, mods)
	return v.Repaint()
}

// DoubleClick fires OnItemOpened for the row under (x, y). Expanders and
// empty space are ignored.
func (v *Viewer) DoubleClick(x, y float64) error {
	if _, ok := v.hotZoneAt(x, y); ok {
		return nil
	}
	i := v.layout.HitTest(v.items, x, y)
	if i < 0 {
		return nil
	}
	v.fireItemOpened(v.items[i].Item, i)
	return nil
}

// ProcessPointer runs the pointer state machine. Hosts call it every frame
// with the cursor position and whether the button is held. A press and
// release over the same row is a click; a second click on the same row
// within DoubleClickInterval is a double click. A right press on an
// unselected row selects it first, as context menus expect.
func (v *Viewer) ProcessPointer(x, y float64, pressed bool, button MouseButton, mods KeyModifiers) error {
	ps := &v.pointer

	if pressed && !ps.down {
		_, inZone := v.hotZoneAt(x, y)
		ps.down = true
		ps.button = button
		ps.downIndex = v.layout.HitTest(v.items, x, y)
		ps.downZone = inZone

		if button == MouseButtonRight && !inZone && ps.downIndex >= 0 {
			item := v.items[ps.downIndex].Item
			if !v.IsSelected(item) {
				v.selectIndex(ps.downIndex, 0)
				return v.Repaint()
			}
		}
		return nil
	}
	if pressed || !ps.down {
		return nil
	}

	// Released.
	ps.down = false
	if ps.button != MouseButtonLeft {
		return nil
	}
	target := v.layout.HitTest(v.items, x, y)
	_, inZone := v.hotZoneAt(x, y)
	if target != ps.downIndex || inZone != ps.downZone {
		return nil
	}

	now := v.now()
	if target >= 0 && !inZone {
		item := v.items[target].Item
		if ps.lastItem != nil && item == ps.lastItem && now.Sub(ps.lastAt) <= v.opts.DoubleClickInterval {
			ps.lastItem = nil
			return v.DoubleClick(x, y)
		}
		ps.lastItem, ps.lastAt = item, now
	} else {
		ps.lastItem = nil
	}
	return v.Click(x, y, mods)
}

// selectIndex applies a row click with modifiers to the paint item at i.
// It fires OnSelectionChanged when the selection changed and does not
// repaint.
func (v *Viewer) selectIndex(i int, mods KeyModifiers) {
	item := v.items[i].Item
	switch {
	case mods&ModShift != 0 && v.IndexOf(v.anchor) >= 0:
		a := v.IndexOf(v.anchor)
		lo, hi := min(a, i), max(a, i)
		sel := make([]any, 0, hi-lo+1)
		for j := lo; j <= hi; j++ {
			sel = append(sel, v.items[j].Item)
		}
		v.focus = item
		if !v.sameSelection(sel) {
			v.replaceSelection(sel)
			v.fireSelectionChanged()
		}
	case mods&(ModCtrl|ModMeta) != 0:
		v.toggleSelected(item)
		v.anchor, v.focus = item, item
		v.fireSelectionChanged()
	default:
		v.anchor, v.focus = item, item
		if !v.sameSelection([]any{item}) {
			v.replaceSelection([]any{item})
			v.fireSelectionChanged()
		}
	}
}

// --- Keyboard ---

// HandleKey applies a navigation key. Up and Down move the selection one
// row, PageUp and PageDown one viewport, Home and End to the first and last
// row. ModShift extends the selection from the anchor instead of replacing
// it. Left collapses an expanded row or moves to its parent; Right expands a
// collapsed row or moves to its first child. Enter fires OnItemOpened for the
// focused row. The newly focused row is scrolled into view.
func (v *Viewer) HandleKey(key Key, mods KeyModifiers) error {
	n := len(v.items)
	if n == 0 {
		return nil
	}
	cur := v.lead()

	switch key {
	case KeyEnter:
		if cur >= 0 {
			v.fireItemOpened(v.items[cur].Item, cur)
		}
		return nil
	case KeyLeft, KeyRight:
		if cur < 0 {
			return v.moveTo(0, 0)
		}
		return v.stepHorizontal(cur, key == KeyRight)
	case KeyUp:
		if cur < 0 {
			return v.moveTo(n-1, mods)
		}
		return v.moveTo(cur-1, mods)
	case KeyDown:
		return v.moveTo(cur+1, mods)
	case KeyHome:
		return v.moveTo(0, mods)
	case KeyEnd:
		return v.moveTo(n-1, mods)
	case KeyPageUp, KeyPageDown:
		if cur < 0 {
			cur = 0
		}
		rows := 1
		if h := v.items[cur].Height; h > 0 {
			rows = max(1, int(v.viewportHeight()/h)-1)
		}
		if key == KeyPageUp {
			rows = -rows
		}
		return v.moveTo(cur+rows, mods)
	}
	return nil
}

// stepHorizontal implements Left (expand == false) and Right.
func (v *Viewer) stepHorizontal(cur int, expand bool) error {
	item := v.items[cur].Item
	children, err := v.content.Children(item)
	if err != nil {
		return err
	}
	hasChildren := len(children) > 0

	if expand {
		if !hasChildren {
			return nil
		}
		if !v.IsExpanded(item) {
			return v.setExpandedAndRepaint(item, true)
		}
		if next := cur + 1; next < len(v.items) {
			if p, ok := v.parents[v.items[next].Item]; ok && p == item {
				return v.moveTo(next, 0)
			}
		}
		return nil
	}

	if hasChildren && v.IsExpanded(item) {
		return v.setExpandedAndRepaint(item, false)
	}
	if p, ok := v.parents[item]; ok {
		if i := v.IndexOf(p); i >= 0 {
			return v.moveTo(i, 0)
		}
	}
	return nil
}

// moveTo focuses the paint item at i (clamped), updates the selection,
// repaints and scrolls the row into view.
func (v *Viewer) moveTo(i int, mods KeyModifiers) error {
	i = max(0, min(i, len(v.items)-1))
	v.selectIndex(i, mods&ModShift)
	item := v.items[i].Item
	if err := v.Repaint(); err != nil {
		return err
	}
	return v.ScrollIntoView(v.IndexOf(item))
}
