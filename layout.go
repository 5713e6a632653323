package arbor

import (
	"fmt"
	"sort"
)

// DefaultIconSize is the expander box size and the per-level indent.
const DefaultIconSize = 16

// Layout positions rows and paints them. Implementations differ only in
// geometry; expansion, filtering and selection semantics are shared through
// the paintPass.
type Layout interface {
	// Paint walks the tree and fills p.items, p.zones and p.contentHeight.
	Paint(p *paintPass) error
	// HitTest returns the index into items of the row under (x, y), or -1.
	HitTest(items []PaintItem, x, y float64) int
}

// paintPass is the working state of one repaint. Nothing in it is visible to
// the viewer until the whole pass has succeeded.
type paintPass struct {
	surface Surface
	theme   *Theme
	content ContentProvider
	cells   CellRendererProvider
	labels  LabelProvider
	input   any

	expanded map[any]struct{}
	selected map[any]struct{}
	filter   *filterResult // nil when no filter is active

	scrollY       float64
	width, height float64
	maxDepth      int
	depthCutoff   bool

	items         []PaintItem
	zones         []HotZone
	parents       map[any]any
	contentHeight float64
}

func (p *paintPass) isExpanded(item any) bool {
	if _, ok := p.expanded[item]; ok {
		return true
	}
	if p.filter != nil {
		_, ok := p.filter.expand[item]
		return ok
	}
	return false
}

func (p *paintPass) included(item any) bool {
	return p.filter == nil || p.filter.included(item)
}

func (p *paintPass) isSelected(item any) bool {
	_, ok := p.selected[item]
	return ok
}

func (p *paintPass) roots() ([]any, error) {
	roots, err := p.content.Roots(p.input)
	if err != nil {
		return nil, fmt.Errorf("arbor: roots: %w", err)
	}
	return roots, nil
}

func (p *paintPass) children(item any) ([]any, error) {
	children, err := p.content.Children(item)
	if err != nil {
		return nil, fmt.Errorf("arbor: children of %v: %w", item, err)
	}
	return children, nil
}

func (p *paintPass) cellArgs(item any, depth int, x, y, w float64) *CellArgs {
	return &CellArgs{
		Surface:  p.surface,
		Theme:    p.theme,
		Labels:   p.labels,
		Item:     item,
		Depth:    depth,
		Selected: p.isSelected(item),
		X:        x,
		Y:        y,
		W:        w,
	}
}

// ExpanderPainter is implemented by surfaces that draw expanders their own
// way, such as terminals that use glyphs instead of boxes.
type ExpanderPainter interface {
	DrawExpander(zone Rect, expanded bool, c Color)
}

// drawExpander paints a boxed plus (collapsed) or minus (expanded) centered
// in zone.
func (p *paintPass) drawExpander(zone Rect, expanded bool) {
	box := min(9, zone.Width, zone.Height)
	c := p.theme.Expander
	if ep, ok := p.surface.(ExpanderPainter); ok {
		ep.DrawExpander(zone, expanded, c)
		return
	}
	cx, cy := zone.Center()
	r := Rect{cx - box/2, cy - box/2, box, box}
	p.surface.StrokeRect(r, c, 1)
	if box < 5 {
		return
	}
	p.surface.FillRect(Rect{r.X + 2, cy - 0.5, box - 4, 1}, c)
	if !expanded {
		p.surface.FillRect(Rect{cx - 0.5, r.Y + 2, 1, box - 4}, c)
	}
}

// --- Tree layout ---

// TreeLayout is the indented list layout. Each level shifts the expander and
// the cell right by IconSize.
type TreeLayout struct {
	IconSize float64 // 0 = DefaultIconSize
}

func (l *TreeLayout) iconSize() float64 {
	if l.IconSize > 0 {
		return l.IconSize
	}
	return DefaultIconSize
}

// Paint implements Layout.
func (l *TreeLayout) Paint(p *paintPass) error {
	roots, err := p.roots()
	if err != nil {
		return err
	}
	startY := -p.scrollY
	y, err := l.paintItems(p, roots, nil, 0, startY, 0)
	if err != nil {
		return err
	}
	p.contentHeight = y - startY
	return nil
}

// paintItems lays out siblings starting at cursor (x, y) and returns the
// cursor after the last descendant.
func (l *TreeLayout) paintItems(p *paintPass, items []any, parent any, x, y float64, depth int) (float64, error) {
	icon := l.iconSize()
	for _, item := range items {
		children, err := p.children(item)
		if err != nil {
			return y, err
		}

		if !p.included(item) {
			if depth+1 < p.maxDepth {
				if y, err = l.paintItems(p, children, parent, x, y, depth+1); err != nil {
					return y, err
				}
			}
			continue
		}

		expanded := p.isExpanded(item)
		renderer := p.cells.CellRenderer(item)
		args := p.cellArgs(item, depth, x+icon, y, p.width-x-icon)
		h := renderer.CellHeight(args)
		args.H = h

		if y > -h && y < p.height {
			if args.Selected {
				p.surface.FillRect(Rect{0, y, p.width, h}, p.theme.SelectionBackground)
			}
			if len(children) > 0 {
				zone := Rect{x, y, icon, min(icon, h)}
				p.drawExpander(zone, expanded)
				p.zones = append(p.zones, HotZone{Rect: zone, Item: item})
			}
			if err := renderer.RenderCell(args); err != nil {
				return y, fmt.Errorf("arbor: render %v: %w", item, err)
			}
		}

		p.items = append(p.items, PaintItem{
			Rect:  Rect{x, y, p.width - x, h},
			Index: len(p.items),
			Depth: depth,
			Item:  item,
		})
		if parent != nil {
			p.parents[item] = parent
		}
		y += h

		if expanded && len(children) > 0 {
			if depth+1 >= p.maxDepth {
				p.depthCutoff = true
				continue
			}
			if y, err = l.paintItems(p, children, item, x+icon, y, depth+1); err != nil {
				return y, err
			}
		}
	}
	return y, nil
}

// HitTest implements Layout. Rows span the full width, so only y matters.
func (l *TreeLayout) HitTest(items []PaintItem, x, y float64) int {
	i := sort.Search(len(items), func(i int) bool {
		return items[i].Y+items[i].Height > y
	})
	if i < len(items) && items[i].Y <= y {
		return i
	}
	return -1
}
