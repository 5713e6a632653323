package arbor

import (
	"context"
	"fmt"
)

// ContentProvider supplies the tree structure for an input object.
// Returned slices are read-only for the viewer and their order is the paint
// order. The parent/child relation must be acyclic and stable between two
// repaints unless the viewer is given a new input.
type ContentProvider interface {
	Roots(input any) ([]any, error)
	Children(item any) ([]any, error)
}

// LabelProvider returns the visible text of an item. It is used for filter
// matching and by the built-in cell renderers.
type LabelProvider interface {
	Label(item any) string
}

// LabelFunc adapts a function to LabelProvider.
type LabelFunc func(item any) string

// Label implements LabelProvider.
func (f LabelFunc) Label(item any) string { return f(item) }

// FmtLabels labels items with fmt's %v verb. It is the viewer's fallback when
// no LabelProvider is set.
var FmtLabels = LabelFunc(func(item any) string { return fmt.Sprint(item) })

// CellArgs carries everything a CellRenderer needs for one row.
type CellArgs struct {
	Surface  Surface
	Theme    *Theme
	Labels   LabelProvider
	Item     any
	Depth    int
	Selected bool

	// Cell bounds. H is zero when CellHeight is being asked.
	X, Y, W, H float64
}

// Label returns the label of the current item.
func (a *CellArgs) Label() string {
	if a.Labels == nil {
		return FmtLabels.Label(a.Item)
	}
	return a.Labels.Label(a.Item)
}

// TextColor returns the foreground to use for the cell, taking selection
// into account.
func (a *CellArgs) TextColor() Color {
	if a.Theme == nil {
		return ColorWhite
	}
	if a.Selected {
		return a.Theme.SelectionForeground
	}
	return a.Theme.Foreground
}

// CellRenderer draws one row. CellHeight must depend only on the item's
// current state; the layout calls it once per row per paint, before deciding
// whether the row is on screen. RenderCell only draws.
type CellRenderer interface {
	CellHeight(args *CellArgs) float64
	RenderCell(args *CellArgs) error
}

// CellRendererProvider resolves the renderer for an item and lets renderers
// fetch resources ahead of the first paint. Preload blocks until the fetch
// completes; the viewer runs it on worker goroutines. Failures must resolve
// to NothingLoaded.
type CellRendererProvider interface {
	CellRenderer(item any) CellRenderer
	Preload(ctx context.Context, item any) LoadResult
}
