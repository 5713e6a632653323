package arbor

import "fmt"

// GridLayout wraps cells left to right into rows of CellSize squares instead
// of indenting. Children of an expanded node follow it in paint order, so the
// expansion and filter behavior is the same as TreeLayout. Cell renderers are
// given the whole square; CellHeight is not consulted.
type GridLayout struct {
	CellSize     float64 // 0 = 64
	ExpanderSize float64 // 0 = DefaultIconSize
}

func (g *GridLayout) cellSize() float64 {
	if g.CellSize > 0 {
		return g.CellSize
	}
	return 64
}

func (g *GridLayout) expanderSize() float64 {
	if g.ExpanderSize > 0 {
		return g.ExpanderSize
	}
	return DefaultIconSize
}

func (g *GridLayout) columns(width float64) int {
	cols := int(width / g.cellSize())
	if cols < 1 {
		return 1
	}
	return cols
}

// Paint implements Layout.
func (g *GridLayout) Paint(p *paintPass) error {
	roots, err := p.roots()
	if err != nil {
		return err
	}
	cols := g.columns(p.width)
	n, err := g.paintItems(p, roots, nil, 0, 0, cols)
	if err != nil {
		return err
	}
	rows := (n + cols - 1) / cols
	p.contentHeight = float64(rows) * g.cellSize()
	return nil
}

// paintItems places items starting at cell index n and returns the next free
// index.
func (g *GridLayout) paintItems(p *paintPass, items []any, parent any, n, depth, cols int) (int, error) {
	size := g.cellSize()
	for _, item := range items {
		children, err := p.children(item)
		if err != nil {
			return n, err
		}
		if !p.included(item) {
			if depth+1 < p.maxDepth {
				if n, err = g.paintItems(p, children, parent, n, depth+1, cols); err != nil {
					return n, err
				}
			}
			continue
		}

		x := float64(n%cols) * size
		y := float64(n/cols)*size - p.scrollY
		expanded := p.isExpanded(item)
		args := p.cellArgs(item, depth, x, y, size)
		args.H = size

		if y > -size && y < p.height {
			if args.Selected {
				p.surface.FillRect(Rect{x, y, size, size}, p.theme.SelectionBackground)
			}
			renderer := p.cells.CellRenderer(item)
			if err := renderer.RenderCell(args); err != nil {
				return n, fmt.Errorf("arbor: render %v: %w", item, err)
			}
			if len(children) > 0 {
				es := min(g.expanderSize(), size)
				zone := Rect{x, y, es, es}
				p.drawExpander(zone, expanded)
				p.zones = append(p.zones, HotZone{Rect: zone, Item: item})
			}
		}

		p.items = append(p.items, PaintItem{
			Rect:  Rect{x, y, size, size},
			Index: len(p.items),
			Depth: depth,
			Item:  item,
		})
		if parent != nil {
			p.parents[item] = parent
		}
		n++

		if expanded && len(children) > 0 {
			if depth+1 >= p.maxDepth {
				p.depthCutoff = true
				continue
			}
			if n, err = g.paintItems(p, children, item, n, depth+1, cols); err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

// HitTest implements Layout.
func (g *GridLayout) HitTest(items []PaintItem, x, y float64) int {
	for i := range items {
		r := items[i].Rect
		// Half-open so a point on a shared edge resolves to one cell.
		if x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height {
			return i
		}
	}
	return -1
}
