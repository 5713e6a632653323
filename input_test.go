package arbor

import (
	"testing"
	"time"
)

// openFixture returns the example tree fully expanded: A, B, D, C.
func openFixture(t *testing.T, opts ViewerOptions) *fixture {
	t.Helper()
	f := newFixture(t, opts)
	f.v.SetExpanded("A", true)
	f.v.SetExpanded("B", true)
	f.repaint(t)
	return f
}

func selection(v *Viewer) []string {
	var out []string
	for _, item := range v.Selection() {
		out = append(out, item.(string))
	}
	return out
}

// y of the middle of row i for 20px rows.
func rowY(i int) float64 { return float64(i)*20 + 10 }

// --- Click ---

func TestClickSelectsRow(t *testing.T) {
	f := openFixture(t, ViewerOptions{})
	var events [][]any
	f.v.OnSelectionChanged(func(ctx SelectionContext) {
		events = append(events, ctx.Selection)
	})

	if err := f.v.Click(100, rowY(1), 0); err != nil {
		t.Fatal(err)
	}
	if got := selection(f.v); !sameStrings(got, []string{"B"}) {
		t.Errorf("selection = %v, want [B]", got)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}

	// Clicking the selected row again changes nothing.
	if err := f.v.Click(100, rowY(1), 0); err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Errorf("re-selecting fired %d events, want 1", len(events))
	}
}

func TestClickModifiers(t *testing.T) {
	tests := []struct {
		name   string
		clicks []struct {
			row  int
			mods KeyModifiers
		}
		want []string
	}{
		{
			name: "ctrl adds",
			clicks: []struct {
				row  int
				mods KeyModifiers
			}{{1, 0}, {3, ModCtrl}},
			want: []string{"B", "C"},
		},
		{
			name: "ctrl toggles off",
			clicks: []struct {
				row  int
				mods KeyModifiers
			}{{1, 0}, {3, ModCtrl}, {1, ModCtrl}},
			want: []string{"C"},
		},
		{
			name: "meta acts like ctrl",
			clicks: []struct {
				row  int
				mods KeyModifiers
			}{{0, 0}, {2, ModMeta}},
			want: []string{"A", "D"},
		},
		{
			name: "shift selects range from anchor",
			clicks: []struct {
				row  int
				mods KeyModifiers
			}{{0, 0}, {2, ModShift}},
			want: []string{"A", "B", "D"},
		},
		{
			name: "shift range upwards",
			clicks: []struct {
				row  int
				mods KeyModifiers
			}{{3, 0}, {1, ModShift}},
			want: []string{"B", "D", "C"},
		},
		{
			name: "plain click replaces",
			clicks: []struct {
				row  int
				mods KeyModifiers
			}{{0, 0}, {2, ModShift}, {3, 0}},
			want: []string{"C"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := openFixture(t, ViewerOptions{})
			for _, c := range tt.clicks {
				if err := f.v.Click(100, rowY(c.row), c.mods); err != nil {
					t.Fatal(err)
				}
			}
			if got := selection(f.v); !sameStrings(got, tt.want) {
				t.Errorf("selection = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClickEmptySpace(t *testing.T) {
	f := openFixture(t, ViewerOptions{})
	f.v.SetSelection("A", "C")

	if err := f.v.Click(100, 150, ModCtrl); err != nil {
		t.Fatal(err)
	}
	if len(f.v.Selection()) != 2 {
		t.Error("a modified click on empty space keeps the selection")
	}
	if err := f.v.Click(100, 150, 0); err != nil {
		t.Fatal(err)
	}
	if len(f.v.Selection()) != 0 {
		t.Errorf("selection = %v, want cleared", f.v.Selection())
	}
}

func TestClickExpanderEdges(t *testing.T) {
	f := openFixture(t, ViewerOptions{})
	// B's expander is {16, 20, 16, 16}. The bottom-right corner belongs to
	// the row, like the HitTest of the rows themselves.
	if err := f.v.Click(32, 36, 0); err != nil {
		t.Fatal(err)
	}
	if !f.v.IsExpanded("B") || !sameStrings(selection(f.v), []string{"B"}) {
		t.Errorf("click past the expander: B expanded=%v, selection=%v", f.v.IsExpanded("B"), selection(f.v))
	}

	if err := f.v.Click(16, 20, 0); err != nil {
		t.Fatal(err)
	}
	if f.v.IsExpanded("B") {
		t.Error("click on the expander's top-left corner should toggle B")
	}
	if !sameStrings(selection(f.v), []string{"B"}) {
		t.Errorf("expander clicks never change the selection, got %v", selection(f.v))
	}
}

// --- Pointer state machine ---

func press(t *testing.T, f *fixture, x, y float64, button MouseButton) {
	t.Helper()
	if err := f.v.ProcessPointer(x, y, true, button, 0); err != nil {
		t.Fatal(err)
	}
	if err := f.v.ProcessPointer(x, y, false, button, 0); err != nil {
		t.Fatal(err)
	}
}

func TestProcessPointerDoubleClick(t *testing.T) {
	f := openFixture(t, ViewerOptions{DoubleClickInterval: 300 * time.Millisecond})
	var opened []OpenContext
	f.v.OnItemOpened(func(ctx OpenContext) { opened = append(opened, ctx) })

	press(t, f, 100, rowY(1), MouseButtonLeft)
	if got := selection(f.v); !sameStrings(got, []string{"B"}) {
		t.Fatalf("selection = %v, want [B]", got)
	}
	if len(opened) != 0 {
		t.Fatal("single click should not open")
	}

	f.clock.advance(200 * time.Millisecond)
	press(t, f, 100, rowY(1), MouseButtonLeft)
	if len(opened) != 1 || opened[0].Item != "B" || opened[0].Index != 1 {
		t.Fatalf("opened = %+v, want B at index 1", opened)
	}

	// A third click starts a new sequence.
	f.clock.advance(100 * time.Millisecond)
	press(t, f, 100, rowY(1), MouseButtonLeft)
	if len(opened) != 1 {
		t.Errorf("opened = %d, a third click is not a double click", len(opened))
	}
}

func TestProcessPointerSlowClicks(t *testing.T) {
	f := openFixture(t, ViewerOptions{DoubleClickInterval: 300 * time.Millisecond})
	opened := 0
	f.v.OnItemOpened(func(OpenContext) { opened++ })

	press(t, f, 100, rowY(0), MouseButtonLeft)
	f.clock.advance(400 * time.Millisecond)
	press(t, f, 100, rowY(0), MouseButtonLeft)
	if opened != 0 {
		t.Error("clicks further apart than the interval are not a double click")
	}

	// Two quick clicks on different rows are not a double click either.
	press(t, f, 100, rowY(3), MouseButtonLeft)
	if opened != 0 {
		t.Error("second click on another row opened")
	}
}

func TestProcessPointerDragCancels(t *testing.T) {
	f := openFixture(t, ViewerOptions{})
	if err := f.v.ProcessPointer(100, rowY(0), true, MouseButtonLeft, 0); err != nil {
		t.Fatal(err)
	}
	// Held button on later frames is ignored.
	if err := f.v.ProcessPointer(100, rowY(1), true, MouseButtonLeft, 0); err != nil {
		t.Fatal(err)
	}
	if err := f.v.ProcessPointer(100, rowY(3), false, MouseButtonLeft, 0); err != nil {
		t.Fatal(err)
	}
	if len(f.v.Selection()) != 0 {
		t.Errorf("release over another row selected %v", f.v.Selection())
	}
}

func TestProcessPointerExpander(t *testing.T) {
	f := openFixture(t, ViewerOptions{})
	press(t, f, 20, 24, MouseButtonLeft)
	if f.v.IsExpanded("B") {
		t.Error("press and release on an expander should toggle it")
	}
	if len(f.v.Selection()) != 0 {
		t.Error("expander clicks never select")
	}
}

func TestProcessPointerRightButton(t *testing.T) {
	f := openFixture(t, ViewerOptions{})
	f.v.SetSelection("A", "B")

	press(t, f, 100, rowY(1), MouseButtonRight)
	if got := selection(f.v); !sameStrings(got, []string{"A", "B"}) {
		t.Errorf("right click on a selected row changed the selection to %v", got)
	}
	press(t, f, 100, rowY(3), MouseButtonRight)
	if got := selection(f.v); !sameStrings(got, []string{"C"}) {
		t.Errorf("right click on an unselected row = %v, want [C]", got)
	}
}

func TestDoubleClickIgnoresExpanders(t *testing.T) {
	f := openFixture(t, ViewerOptions{})
	opened := 0
	f.v.OnItemOpened(func(OpenContext) { opened++ })
	if err := f.v.DoubleClick(20, 24); err != nil {
		t.Fatal(err)
	}
	if err := f.v.DoubleClick(100, 150); err != nil {
		t.Fatal(err)
	}
	if opened != 0 {
		t.Errorf("opened = %d, want 0", opened)
	}
	if err := f.v.DoubleClick(100, rowY(2)); err != nil {
		t.Fatal(err)
	}
	if opened != 1 {
		t.Errorf("opened = %d, want 1", opened)
	}
}

// --- Keyboard ---

func TestHandleKeyNavigation(t *testing.T) {
	f := openFixture(t, ViewerOptions{})
	steps := []struct {
		key  Key
		mods KeyModifiers
		want []string
	}{
		{KeyDown, 0, []string{"A"}},
		{KeyDown, 0, []string{"B"}},
		{KeyDown, 0, []string{"D"}},
		{KeyEnd, 0, []string{"C"}},
		{KeyDown, 0, []string{"C"}},
		{KeyHome, 0, []string{"A"}},
		{KeyUp, 0, []string{"A"}},
		{KeyDown, ModShift, []string{"A", "B"}},
		{KeyDown, ModShift, []string{"A", "B", "D"}},
		{KeyUp, ModShift, []string{"A", "B"}},
		{KeyPageDown, 0, []string{"C"}},
		{KeyPageUp, 0, []string{"A"}},
	}
	for i, s := range steps {
		if err := f.v.HandleKey(s.key, s.mods); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got := selection(f.v); !sameStrings(got, s.want) {
			t.Fatalf("step %d: selection = %v, want %v", i, got, s.want)
		}
	}
}

func TestHandleKeyUpWithoutSelection(t *testing.T) {
	f := openFixture(t, ViewerOptions{})
	if err := f.v.HandleKey(KeyUp, 0); err != nil {
		t.Fatal(err)
	}
	if got := selection(f.v); !sameStrings(got, []string{"C"}) {
		t.Errorf("selection = %v, want the last row", got)
	}
}

func TestHandleKeyLeftRight(t *testing.T) {
	f := openFixture(t, ViewerOptions{})
	f.v.SetSelection("D")

	step := func(key Key) {
		t.Helper()
		if err := f.v.HandleKey(key, 0); err != nil {
			t.Fatal(err)
		}
	}

	step(KeyLeft) // leaf: move to parent
	if got := selection(f.v); !sameStrings(got, []string{"B"}) {
		t.Fatalf("Left on D = %v, want [B]", got)
	}
	step(KeyLeft) // expanded: collapse
	if f.v.IsExpanded("B") || !f.v.IsSelected("B") {
		t.Fatal("Left on expanded B should collapse it and keep it selected")
	}
	step(KeyRight) // collapsed: expand
	if !f.v.IsExpanded("B") {
		t.Fatal("Right on collapsed B should expand it")
	}
	step(KeyRight) // expanded: first child
	if got := selection(f.v); !sameStrings(got, []string{"D"}) {
		t.Fatalf("Right on expanded B = %v, want [D]", got)
	}
	step(KeyRight) // leaf: nothing
	if got := selection(f.v); !sameStrings(got, []string{"D"}) {
		t.Errorf("Right on a leaf = %v", got)
	}
}

func TestHandleKeyEnterOpens(t *testing.T) {
	f := openFixture(t, ViewerOptions{})
	var opened []OpenContext
	f.v.OnItemOpened(func(ctx OpenContext) { opened = append(opened, ctx) })

	if err := f.v.HandleKey(KeyEnter, 0); err != nil {
		t.Fatal(err)
	}
	if len(opened) != 0 {
		t.Error("Enter without a focused row should do nothing")
	}
	f.v.SetSelection("D")
	if err := f.v.HandleKey(KeyEnter, 0); err != nil {
		t.Fatal(err)
	}
	if len(opened) != 1 || opened[0].Item != "D" || opened[0].Index != 2 {
		t.Errorf("opened = %+v, want D at 2", opened)
	}
}

func TestHandleKeyScrollsIntoView(t *testing.T) {
	f := newFixture(t, ViewerOptions{})
	f.surface.Height = 40
	f.v.SetExpanded("A", true)
	f.v.SetExpanded("B", true)
	f.repaint(t)

	if err := f.v.HandleKey(KeyEnd, 0); err != nil {
		t.Fatal(err)
	}
	if f.v.ScrollY() != 40 {
		t.Errorf("scroll = %v, want 40 to show C", f.v.ScrollY())
	}
	if err := f.v.HandleKey(KeyHome, 0); err != nil {
		t.Fatal(err)
	}
	if f.v.ScrollY() != 0 {
		t.Errorf("scroll = %v, want 0 to show A", f.v.ScrollY())
	}
}

func TestHandleKeyEmpty(t *testing.T) {
	f := newFixtureTree(t, newTestTree(), ViewerOptions{})
	f.repaint(t)
	if err := f.v.HandleKey(KeyDown, 0); err != nil {
		t.Errorf("HandleKey on an empty tree = %v", err)
	}
}

func TestExpanderClippedToShortRows(t *testing.T) {
	f := newFixtureTree(t, newTestTree("root: A B", "A: a1", "B: b1"), ViewerOptions{})
	f.v.SetCellRendererProvider(NewStaticCells(&LabelCellRenderer{RowHeight: 10}))
	f.repaint(t)

	zones := f.v.HotZones()
	if len(zones) != 2 || zones[0].Rect != (Rect{0, 0, 16, 10}) || zones[1].Rect != (Rect{0, 10, 16, 10}) {
		t.Fatalf("hot zones = %+v, want 16x10 boxes", zones)
	}

	if err := f.v.Click(5, 12, 0); err != nil {
		t.Fatal(err)
	}
	if f.v.IsExpanded("A") {
		t.Error("a click on row B toggled A's expander")
	}
	if !f.v.IsExpanded("B") {
		t.Error("a click inside B's expander should expand B")
	}
}
