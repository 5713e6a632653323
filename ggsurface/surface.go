// Package ggsurface paints arbor viewers into software raster images with
// gg. It needs no GPU or window, so it backs headless snapshots and pixel
// tests.
package ggsurface

import (
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"
	"path/filepath"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/phanxgames/arbor"
)

// Surface implements arbor.Surface over a gg context backed by an RGBA
// image.
type Surface struct {
	dc     *gg.Context
	img    *image.RGBA
	ascent float64
}

// New creates a transparent w x h surface using the 7x13 bitmap face.
func New(w, h int) *Surface {
	return NewWithFace(w, h, basicfont.Face7x13)
}

// NewWithFace creates a surface that draws text with face.
func NewWithFace(w, h int, face font.Face) *Surface {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	dc := gg.NewContextForRGBA(img)
	dc.SetFontFace(face)
	return &Surface{
		dc:     dc,
		img:    img,
		ascent: float64(face.Metrics().Ascent.Ceil()),
	}
}

// Context exposes the gg context for drawing outside the viewer.
func (s *Surface) Context() *gg.Context { return s.dc }

// Image returns the backing image. It reflects every call made so far.
func (s *Surface) Image() *image.RGBA { return s.img }

// Size implements arbor.Surface.
func (s *Surface) Size() (float64, float64) {
	b := s.img.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}

// Clear implements arbor.Surface.
func (s *Surface) Clear(r arbor.Rect) {
	rect := image.Rect(int(r.X), int(r.Y), int(r.X+r.Width), int(r.Y+r.Height))
	draw.Draw(s.img, rect, image.Transparent, image.Point{}, draw.Src)
}

// FillRect implements arbor.Surface.
func (s *Surface) FillRect(r arbor.Rect, c arbor.Color) {
	s.dc.SetColor(c.NRGBA())
	s.dc.DrawRectangle(r.X, r.Y, r.Width, r.Height)
	s.dc.Fill()
}

// StrokeRect implements arbor.Surface.
func (s *Surface) StrokeRect(r arbor.Rect, c arbor.Color, lineWidth float64) {
	half := lineWidth / 2
	s.dc.SetColor(c.NRGBA())
	s.dc.SetLineWidth(lineWidth)
	s.dc.DrawRectangle(r.X+half, r.Y+half, r.Width-lineWidth, r.Height-lineWidth)
	s.dc.Stroke()
}

// DrawText implements arbor.Surface. (x, y) is the top of the line box; gg
// draws from the baseline.
func (s *Surface) DrawText(text string, x, y float64, c arbor.Color) {
	s.dc.SetColor(c.NRGBA())
	s.dc.DrawString(text, x, y+s.ascent)
}

// DrawImage implements arbor.Surface.
func (s *Surface) DrawImage(img image.Image, r arbor.Rect) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	s.dc.Push()
	s.dc.Translate(r.X, r.Y)
	s.dc.Scale(r.Width/float64(b.Dx()), r.Height/float64(b.Dy()))
	s.dc.DrawImage(img, -b.Min.X, -b.Min.Y)
	s.dc.Pop()
}

// MeasureText implements arbor.Surface.
func (s *Surface) MeasureText(text string) (float64, float64) {
	return s.dc.MeasureString(text)
}

// EncodePNG writes the current image as PNG.
func (s *Surface) EncodePNG(w io.Writer) error {
	if err := s.dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// SavePNG writes the current image to path, creating parent directories.
func (s *Surface) SavePNG(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	if err := s.dc.SavePNG(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
