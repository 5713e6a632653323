package arbor

import "context"

const (
	defaultRowHeight   = 20
	defaultCellPadding = 4
)

// --- Label ---

// LabelCellRenderer draws the item label on a fixed-height row.
type LabelCellRenderer struct {
	RowHeight float64 // 0 = 20
	Padding   float64 // left text inset; 0 = 4
}

func (r *LabelCellRenderer) rowHeight() float64 {
	if r.RowHeight > 0 {
		return r.RowHeight
	}
	return defaultRowHeight
}

func (r *LabelCellRenderer) padding() float64 {
	if r.Padding > 0 {
		return r.Padding
	}
	return defaultCellPadding
}

// CellHeight implements CellRenderer.
func (r *LabelCellRenderer) CellHeight(*CellArgs) float64 { return r.rowHeight() }

// RenderCell implements CellRenderer.
func (r *LabelCellRenderer) RenderCell(args *CellArgs) error {
	drawLabel(args, args.X+r.padding(), args.Label())
	return nil
}

// drawLabel draws text vertically centered in the cell.
func drawLabel(args *CellArgs, x float64, text string) {
	_, th := args.Surface.MeasureText(text)
	y := args.Y + (args.H-th)/2
	args.Surface.DrawText(text, x, y, args.TextColor())
}

// --- Icon + label ---

// IconLabelCellRenderer draws a square icon followed by the label. Icons are
// looked up in Images by the key IconKey returns; missing icons draw a
// placeholder box.
type IconLabelCellRenderer struct {
	Images    *ImageCache
	IconKey   func(item any) string
	RowHeight float64 // 0 = 20
	IconSize  float64 // 0 = RowHeight - 4
}

func (r *IconLabelCellRenderer) rowHeight() float64 {
	if r.RowHeight > 0 {
		return r.RowHeight
	}
	return defaultRowHeight
}

func (r *IconLabelCellRenderer) iconSize() float64 {
	if r.IconSize > 0 {
		return r.IconSize
	}
	return r.rowHeight() - 4
}

// CellHeight implements CellRenderer.
func (r *IconLabelCellRenderer) CellHeight(*CellArgs) float64 { return r.rowHeight() }

// RenderCell implements CellRenderer.
func (r *IconLabelCellRenderer) RenderCell(args *CellArgs) error {
	size := r.iconSize()
	box := Rect{args.X + 2, args.Y + (args.H-size)/2, size, size}
	drawCachedImage(args, r.Images, r.key(args.Item), box)
	drawLabel(args, box.X+size+defaultCellPadding, args.Label())
	return nil
}

func (r *IconLabelCellRenderer) key(item any) string {
	if r.IconKey == nil {
		return ""
	}
	return r.IconKey(item)
}

// drawCachedImage draws the cached image for key into box, or a placeholder
// outline when it is not (yet) available.
func drawCachedImage(args *CellArgs, images *ImageCache, key string, box Rect) {
	if images != nil && key != "" {
		if img, ok := images.Get(key); ok {
			args.Surface.DrawImage(img, fitImage(img.Bounds().Dx(), img.Bounds().Dy(), box))
			return
		}
	}
	c := ColorWhite
	if args.Theme != nil {
		c = args.Theme.Placeholder
	}
	args.Surface.StrokeRect(box, c, 1)
}

// fitImage scales a w x h image into box preserving aspect ratio, centered.
func fitImage(w, h int, box Rect) Rect {
	if w <= 0 || h <= 0 {
		return box
	}
	sx := box.Width / float64(w)
	sy := box.Height / float64(h)
	s := sx
	if sy < s {
		s = sy
	}
	fw, fh := float64(w)*s, float64(h)*s
	return Rect{box.X + (box.Width-fw)/2, box.Y + (box.Height-fh)/2, fw, fh}
}

// --- Thumbnail ---

// ThumbnailCellRenderer draws a large image preview with the label
// underneath. Rows are ThumbSize plus one line of text tall.
type ThumbnailCellRenderer struct {
	Images    *ImageCache
	ImageKey  func(item any) string
	ThumbSize float64 // 0 = 48
}

func (r *ThumbnailCellRenderer) thumbSize() float64 {
	if r.ThumbSize > 0 {
		return r.ThumbSize
	}
	return 48
}

// CellHeight implements CellRenderer.
func (r *ThumbnailCellRenderer) CellHeight(args *CellArgs) float64 {
	_, th := args.Surface.MeasureText(args.Label())
	return r.thumbSize() + th + 2*defaultCellPadding
}

// RenderCell implements CellRenderer.
func (r *ThumbnailCellRenderer) RenderCell(args *CellArgs) error {
	size := r.thumbSize()
	box := Rect{args.X + defaultCellPadding, args.Y + defaultCellPadding, size, size}
	key := ""
	if r.ImageKey != nil {
		key = r.ImageKey(args.Item)
	}
	drawCachedImage(args, r.Images, key, box)
	args.Surface.DrawText(args.Label(), box.X, box.Y+size+2, args.TextColor())
	return nil
}

// --- Provider ---

// KindCellRendererProvider selects a renderer by a kind tag. Items whose kind
// has no entry use Default (a LabelCellRenderer when nil). When ImageKey is
// set, Preload fetches the item's image through Images.
type KindCellRendererProvider struct {
	Kind      func(item any) string
	Renderers map[string]CellRenderer
	Default   CellRenderer
	Images    *ImageCache
	ImageKey  func(item any) string
}

var fallbackRenderer = &LabelCellRenderer{}

// CellRenderer implements CellRendererProvider.
func (p *KindCellRendererProvider) CellRenderer(item any) CellRenderer {
	if p.Kind != nil {
		if r, ok := p.Renderers[p.Kind(item)]; ok && r != nil {
			return r
		}
	}
	if p.Default != nil {
		return p.Default
	}
	return fallbackRenderer
}

// Preload implements CellRendererProvider.
func (p *KindCellRendererProvider) Preload(ctx context.Context, item any) LoadResult {
	if p.Images == nil || p.ImageKey == nil {
		return NothingLoaded
	}
	key := p.ImageKey(item)
	if key == "" {
		return NothingLoaded
	}
	return p.Images.Preload(ctx, key)
}

// StaticCells uses one renderer for every item and preloads nothing.
type StaticCells struct {
	Renderer CellRenderer
}

// NewStaticCells returns a provider that always answers r.
func NewStaticCells(r CellRenderer) *StaticCells {
	return &StaticCells{Renderer: r}
}

// CellRenderer implements CellRendererProvider.
func (p *StaticCells) CellRenderer(any) CellRenderer {
	if p.Renderer == nil {
		return fallbackRenderer
	}
	return p.Renderer
}

// Preload implements CellRendererProvider.
func (p *StaticCells) Preload(context.Context, any) LoadResult { return NothingLoaded }
