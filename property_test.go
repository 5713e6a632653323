package arbor

import (
	"fmt"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

// drawTree generates a random forest over int items. Every node's parent has
// a smaller id, so the relation is acyclic.
func drawTree(t *rapid.T) (*testTree, int) {
	n := rapid.IntRange(1, 30).Draw(t, "n")
	tree := &testTree{kids: make(map[any][]any)}
	for i := range n {
		p := rapid.IntRange(-1, i-1).Draw(t, fmt.Sprintf("parent%d", i))
		if p < 0 {
			tree.kids["root"] = append(tree.kids["root"], i)
		} else {
			tree.kids[p] = append(tree.kids[p], i)
		}
	}
	return tree, n
}

func drawViewer(t *rapid.T, layout Layout, height float64) (*Viewer, *testTree, int) {
	tree, n := drawTree(t)
	v := NewViewer(ViewerOptions{Layout: layout, Logf: func(string, ...any) {}})
	v.SetContentProvider(tree)
	v.SetCellRendererProvider(NewStaticCells(&LabelCellRenderer{}))
	v.input = "root"
	v.SetSurface(NewRecordingSurface(300, height))
	for i := range n {
		if rapid.Bool().Draw(t, fmt.Sprintf("expanded%d", i)) {
			v.SetExpanded(i, true)
		}
	}
	return v, tree, n
}

func mustRepaint(t *rapid.T, v *Viewer) {
	if err := v.Repaint(); err != nil {
		t.Fatalf("Repaint: %v", err)
	}
}

func copyItems(items []PaintItem) []PaintItem {
	return append([]PaintItem(nil), items...)
}

func sameItems(a, b []PaintItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// visibleCount counts items plus every descendant reachable through the
// viewer's expansion set.
func visibleCount(v *Viewer, tree *testTree, items []any) int {
	n := 0
	for _, item := range items {
		n++
		if v.IsExpanded(item) {
			n += visibleCount(v, tree, tree.kids[item])
		}
	}
	return n
}

// subtreeMatches reports whether item or any descendant matches filter.
func subtreeMatches(tree *testTree, item any, filter string) bool {
	if strings.Contains(fmt.Sprint(item), filter) {
		return true
	}
	for _, child := range tree.kids[item] {
		if subtreeMatches(tree, child, filter) {
			return true
		}
	}
	return false
}

func TestPropertyDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v, _, _ := drawViewer(t, &TreeLayout{}, 10000)
		if rapid.Bool().Draw(t, "filtered") {
			v.filterText = rapid.SampledFrom([]string{"1", "2", "0", "x"}).Draw(t, "filter")
		}
		mustRepaint(t, v)
		first := copyItems(v.PaintItems())
		height := v.ContentHeight()
		mustRepaint(t, v)
		if !sameItems(first, v.PaintItems()) || height != v.ContentHeight() {
			t.Fatalf("repaint changed the layout:\n%v\n%v", first, v.PaintItems())
		}
	})
}

func TestPropertyHeightConservation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v, _, _ := drawViewer(t, &TreeLayout{}, 50)
		mustRepaint(t, v)
		items := copyItems(v.PaintItems())

		sum := 0.0
		for i, it := range items {
			if i > 0 && it.Y != items[i-1].Y+items[i-1].Height {
				t.Fatalf("row %d at y=%v does not follow row %d", i, it.Y, i-1)
			}
			sum += it.Height
		}
		if sum != v.ContentHeight() {
			t.Fatalf("rows sum to %v, content height is %v", sum, v.ContentHeight())
		}

		height := v.ContentHeight()
		v.SetScrollY(float64(rapid.IntRange(0, 1000).Draw(t, "scroll")))
		dy := v.ScrollY()
		mustRepaint(t, v)
		if v.ContentHeight() != height {
			t.Fatalf("scrolling changed the content height %v -> %v", height, v.ContentHeight())
		}
		for i, it := range v.PaintItems() {
			if it.Y != items[i].Y-dy || it.X != items[i].X {
				t.Fatalf("row %d moved to (%v, %v), want (%v, %v)", i, it.X, it.Y, items[i].X, items[i].Y-dy)
			}
		}
	})
}

func TestPropertyExpansionMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v, tree, n := drawViewer(t, &TreeLayout{}, 10000)
		mustRepaint(t, v)

		// Pick a painted, collapsed branch.
		var candidates []any
		for _, it := range v.PaintItems() {
			if len(tree.kids[it.Item]) > 0 && !v.IsExpanded(it.Item) {
				candidates = append(candidates, it.Item)
			}
		}
		if len(candidates) == 0 {
			return
		}
		item := rapid.SampledFrom(candidates).Draw(t, "item")
		before := copyItems(v.PaintItems())
		height := v.ContentHeight()

		v.SetExpanded(item, true)
		mustRepaint(t, v)
		added := visibleCount(v, tree, tree.kids[item])
		if got := len(v.PaintItems()); got != len(before)+added {
			t.Fatalf("expanding %v: %d rows, want %d + %d", item, got, len(before), added)
		}
		if got := v.ContentHeight(); got != height+float64(added)*20 {
			t.Fatalf("expanding %v: height %v, want %v", item, got, height+float64(added)*20)
		}

		v.SetExpanded(item, false)
		mustRepaint(t, v)
		if !sameItems(before, v.PaintItems()) {
			t.Fatalf("collapsing %v did not restore the layout (n=%d)", item, n)
		}
	})
}

func TestPropertyFilterSound(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v, tree, n := drawViewer(t, &TreeLayout{}, 10000)
		filter := rapid.SampledFrom([]string{"1", "2", "3", "0", "x"}).Draw(t, "filter")
		if err := v.SetFilterText(filter); err != nil {
			t.Fatalf("SetFilterText: %v", err)
		}

		painted := make(map[any]bool)
		for _, it := range v.PaintItems() {
			painted[it.Item] = true
			if !subtreeMatches(tree, it.Item, filter) {
				t.Fatalf("%v is shown but neither it nor a descendant matches %q", it.Item, filter)
			}
		}
		for i := range n {
			if strings.Contains(fmt.Sprint(i), filter) && !painted[i] {
				t.Fatalf("%d matches %q but is not shown", i, filter)
			}
		}
	})
}

func TestPropertyHitTestInverse(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var layout Layout = &TreeLayout{}
		if rapid.Bool().Draw(t, "grid") {
			layout = &GridLayout{CellSize: 40}
		}
		v, _, _ := drawViewer(t, layout, 10000)
		mustRepaint(t, v)
		for i, it := range v.PaintItems() {
			cx, cy := it.Center()
			if got := v.layout.HitTest(v.PaintItems(), cx, cy); got != i {
				t.Fatalf("HitTest(center of %d) = %d", i, got)
			}
		}
	})
}

func TestPropertyHotZonesExclusive(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v, tree, _ := drawViewer(t, &TreeLayout{}, 10000)
		mustRepaint(t, v)
		zones := v.HotZones()
		for _, z := range zones {
			if len(tree.kids[z.Item]) == 0 {
				t.Fatalf("leaf %v has a hot zone", z.Item)
			}
		}
		if len(zones) == 0 {
			return
		}

		z := zones[rapid.IntRange(0, len(zones)-1).Draw(t, "zone")]
		was := v.IsExpanded(z.Item)
		cx, cy := z.Center()
		mods := rapid.SampledFrom([]KeyModifiers{0, ModShift, ModCtrl}).Draw(t, "mods")
		if err := v.Click(cx, cy, mods); err != nil {
			t.Fatalf("Click: %v", err)
		}
		if v.IsExpanded(z.Item) == was {
			t.Fatalf("clicking the expander of %v did not toggle it", z.Item)
		}
		if len(v.Selection()) != 0 {
			t.Fatalf("clicking an expander selected %v", v.Selection())
		}
	})
}
