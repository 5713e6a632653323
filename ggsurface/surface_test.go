package ggsurface

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/phanxgames/arbor"
)

type treeContent map[any][]any

func (c treeContent) Roots(input any) ([]any, error) { return c[input], nil }
func (c treeContent) Children(item any) ([]any, error) {
	return c[item], nil
}

func pixel(s *Surface, x, y int) color.RGBA {
	return s.Image().RGBAAt(x, y)
}

// --- Primitives ---

func TestFillRect(t *testing.T) {
	s := New(20, 20)
	s.FillRect(arbor.Rect{X: 5, Y: 5, Width: 10, Height: 10}, arbor.Color{R: 1, A: 1})

	if got := pixel(s, 10, 10); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("inside = %v, want opaque red", got)
	}
	if got := pixel(s, 2, 2); got.A != 0 {
		t.Errorf("outside = %v, want transparent", got)
	}
}

func TestClearRegion(t *testing.T) {
	s := New(20, 20)
	s.FillRect(arbor.Rect{Width: 20, Height: 20}, arbor.ColorWhite)
	s.Clear(arbor.Rect{X: 0, Y: 0, Width: 10, Height: 20})

	if got := pixel(s, 5, 5); got.A != 0 {
		t.Errorf("cleared pixel = %v, want transparent", got)
	}
	if got := pixel(s, 15, 5); got.A != 255 {
		t.Errorf("kept pixel = %v, want opaque", got)
	}
}

func TestDrawImageScales(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	s := New(20, 20)
	s.DrawImage(src, arbor.Rect{X: 4, Y: 4, Width: 8, Height: 8})

	if got := pixel(s, 8, 8); got.A == 0 {
		t.Error("scaled image should cover the center of its rect")
	}
	if got := pixel(s, 16, 16); got.A != 0 {
		t.Errorf("pixel outside rect = %v, want transparent", got)
	}
}

func TestMeasureTextBitmapFace(t *testing.T) {
	s := New(10, 10)
	w, h := s.MeasureText("abcd")
	if w != 28 {
		t.Errorf("width = %v, want 28", w)
	}
	if h != 13 {
		t.Errorf("height = %v, want 13", h)
	}
}

// --- Viewer ---

func TestViewerPaintsSelection(t *testing.T) {
	theme := arbor.DefaultTheme()
	v := arbor.NewViewer(arbor.ViewerOptions{Theme: arbor.StaticTheme{T: theme}})
	v.SetContentProvider(treeContent{"in": {"a", "b"}})
	v.SetCellRendererProvider(arbor.NewStaticCells(&arbor.LabelCellRenderer{}))
	v.SetInput("in")
	s := New(100, 60)
	v.SetSurface(s)
	v.SetSelection("b")
	if err := v.Repaint(); err != nil {
		t.Fatalf("Repaint: %v", err)
	}

	// Row b spans y 20..40; its right edge has no text on it.
	want := theme.SelectionBackground.RGBA()
	if got := pixel(s, 98, 30); got != want {
		t.Errorf("selected row = %v, want %v", got, want)
	}
	bg := theme.Background.RGBA()
	if got := pixel(s, 98, 50); got != bg {
		t.Errorf("empty area = %v, want background %v", got, bg)
	}
}

func TestSavePNG(t *testing.T) {
	s := New(8, 8)
	s.FillRect(arbor.Rect{Width: 8, Height: 8}, arbor.ColorWhite)
	path := filepath.Join(t.TempDir(), "out", "snap.png")
	if err := s.SavePNG(path); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}

	var buf bytes.Buffer
	if err := s.EncodePNG(&buf); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 8 {
		t.Errorf("bounds = %v, want 8x8", b)
	}
}
