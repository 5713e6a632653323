package arbor

import "testing"

func gridFixture(t *testing.T) *fixture {
	t.Helper()
	tree := newTestTree("root: a b c d e", "b: b1 b2")
	f := newFixtureTree(t, tree, ViewerOptions{Layout: &GridLayout{CellSize: 50}})
	f.repaint(t)
	return f
}

func TestGridLayoutWraps(t *testing.T) {
	f := gridFixture(t)
	want := []Rect{
		{0, 0, 50, 50}, {50, 0, 50, 50}, {100, 0, 50, 50}, {150, 0, 50, 50},
		{0, 50, 50, 50},
	}
	items := f.v.PaintItems()
	if len(items) != len(want) {
		t.Fatalf("cells = %v", f.rows())
	}
	for i, r := range want {
		if items[i].Rect != r {
			t.Errorf("cell %d (%v) = %v, want %v", i, items[i].Item, items[i].Rect, r)
		}
	}
	if f.v.ContentHeight() != 100 {
		t.Errorf("content height = %v, want 100", f.v.ContentHeight())
	}
	if zones := f.v.HotZones(); len(zones) != 1 || zones[0].Rect != (Rect{50, 0, 16, 16}) {
		t.Errorf("zones = %v, want one for b", zones)
	}
}

func TestGridExpandedChildrenFollowParent(t *testing.T) {
	f := gridFixture(t)
	f.v.SetExpanded("b", true)
	f.repaint(t)
	if got := f.rows(); !sameStrings(got, []string{"a", "b", "b1", "b2", "c", "d", "e"}) {
		t.Errorf("cells = %v", got)
	}
	if it := f.v.PaintItems()[4]; it.Rect != (Rect{0, 50, 50, 50}) || it.Depth != 0 {
		t.Errorf("c = %+v, want the second grid row", it)
	}
	if p, ok := f.v.Parent("b2"); !ok || p != "b" {
		t.Errorf("Parent(b2) = %v, %v", p, ok)
	}
}

func TestGridHitTestHalfOpen(t *testing.T) {
	f := gridFixture(t)
	tests := []struct {
		x, y float64
		want any
	}{
		{10, 10, "a"},
		{50, 10, "b"},
		{49.9, 49.9, "a"},
		{0, 50, "e"},
		{60, 60, nil},
		{250, 10, nil},
	}
	for _, tt := range tests {
		got, _ := f.v.ItemAt(tt.x, tt.y)
		if got != tt.want {
			t.Errorf("ItemAt(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestGridClick(t *testing.T) {
	f := gridFixture(t)
	if err := f.v.Click(55, 5, 0); err != nil {
		t.Fatal(err)
	}
	if !f.v.IsExpanded("b") || len(f.v.Selection()) != 0 {
		t.Error("clicking the grid expander should expand b without selecting")
	}
	if err := f.v.Click(90, 40, 0); err != nil {
		t.Fatal(err)
	}
	if got := selection(f.v); !sameStrings(got, []string{"b"}) {
		t.Errorf("selection = %v, want [b]", got)
	}
}

func TestGridScrollCulls(t *testing.T) {
	f := gridFixture(t)
	f.surface.Height = 50
	f.v.SetScrollY(50)
	f.surface.Reset()
	f.repaint(t)
	if got := f.surface.Texts(); !sameStrings(got, []string{"e"}) {
		t.Errorf("drawn = %v, want only e", got)
	}
	if len(f.v.PaintItems()) != 5 {
		t.Error("scrolled out cells are still laid out")
	}
}

func TestGridNarrowSurface(t *testing.T) {
	f := gridFixture(t)
	f.surface.Width = 30
	f.repaint(t)
	if f.v.ContentHeight() != 250 {
		t.Errorf("content height = %v, want one column of 5 cells", f.v.ContentHeight())
	}
}

func TestSwitchLayout(t *testing.T) {
	f := gridFixture(t)
	f.v.SetLayout(nil)
	if len(f.v.PaintItems()) != 0 {
		t.Error("SetLayout should drop the previous paint")
	}
	f.repaint(t)
	if _, ok := f.v.Layout().(*TreeLayout); !ok {
		t.Errorf("SetLayout(nil) = %T, want *TreeLayout", f.v.Layout())
	}
	if f.v.ContentHeight() != 100 {
		t.Errorf("tree content height = %v, want 5 rows of 20", f.v.ContentHeight())
	}
}
