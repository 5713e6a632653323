package arbor

import "image"

// Surface is the drawing target a viewer paints into. Backends map it onto a
// concrete raster API (ebiten image, gg context, SVG writer, terminal cells).
// All coordinates are in surface pixels with the origin at the top-left.
type Surface interface {
	// Size returns the drawable width and height.
	Size() (width, height float64)
	// Clear resets the region to transparent.
	Clear(r Rect)
	FillRect(r Rect, c Color)
	// StrokeRect outlines r with a line of the given width.
	StrokeRect(r Rect, c Color, lineWidth float64)
	// DrawText draws a single line of text whose line box top-left corner is
	// at (x, y).
	DrawText(text string, x, y float64, c Color)
	// DrawImage draws img scaled into r.
	DrawImage(img image.Image, r Rect)
	// MeasureText returns the width and line height text would occupy.
	MeasureText(text string) (width, height float64)
}

// --- Recording surface ---

// OpKind identifies the drawing call captured by a RecordingSurface.
type OpKind uint8

const (
	OpClear OpKind = iota
	OpFillRect
	OpStrokeRect
	OpDrawText
	OpDrawImage
)

// DrawOp is one captured drawing call.
type DrawOp struct {
	Kind  OpKind
	Rect  Rect
	Text  string
	Color Color
	Image image.Image
}

// RecordingSurface is a headless Surface that records every call. Text is
// measured as fixed-width glyphs (CharWidth x LineHeight), matching the 7x13
// bitmap face the software backends use.
type RecordingSurface struct {
	Width, Height float64
	CharWidth     float64
	LineHeight    float64
	Ops           []DrawOp
}

// NewRecordingSurface creates a recording surface of the given size.
func NewRecordingSurface(w, h float64) *RecordingSurface {
	return &RecordingSurface{Width: w, Height: h, CharWidth: 7, LineHeight: 13}
}

// Reset drops all recorded operations.
func (s *RecordingSurface) Reset() {
	s.Ops = s.Ops[:0]
}

// Texts returns the text of every OpDrawText call in order.
func (s *RecordingSurface) Texts() []string {
	var out []string
	for _, op := range s.Ops {
		if op.Kind == OpDrawText {
			out = append(out, op.Text)
		}
	}
	return out
}

// Count returns how many operations of the given kind were recorded.
func (s *RecordingSurface) Count(kind OpKind) int {
	n := 0
	for _, op := range s.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

func (s *RecordingSurface) Size() (float64, float64) { return s.Width, s.Height }

func (s *RecordingSurface) Clear(r Rect) {
	s.Ops = append(s.Ops, DrawOp{Kind: OpClear, Rect: r})
}

func (s *RecordingSurface) FillRect(r Rect, c Color) {
	s.Ops = append(s.Ops, DrawOp{Kind: OpFillRect, Rect: r, Color: c})
}

func (s *RecordingSurface) StrokeRect(r Rect, c Color, lineWidth float64) {
	s.Ops = append(s.Ops, DrawOp{Kind: OpStrokeRect, Rect: r, Color: c})
}

func (s *RecordingSurface) DrawText(text string, x, y float64, c Color) {
	w, h := s.MeasureText(text)
	s.Ops = append(s.Ops, DrawOp{Kind: OpDrawText, Rect: Rect{x, y, w, h}, Text: text, Color: c})
}

func (s *RecordingSurface) DrawImage(img image.Image, r Rect) {
	s.Ops = append(s.Ops, DrawOp{Kind: OpDrawImage, Rect: r, Image: img})
}

func (s *RecordingSurface) MeasureText(text string) (float64, float64) {
	n := 0
	for range text {
		n++
	}
	return float64(n) * s.CharWidth, s.LineHeight
}
