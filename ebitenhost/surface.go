package ebitenhost

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/phanxgames/arbor"
)

// Surface is a persistent offscreen canvas the viewer paints into. Unlike
// the screen image it survives between frames, so the viewer only repaints
// when something changed.
type Surface struct {
	image *ebiten.Image
	face  text.Face
	lh    float64 // cached line height

	// Decoded images converted to GPU images, by source identity.
	images map[image.Image]*ebiten.Image
}

// NewSurface creates a canvas of the given size using the 7x13 bitmap face.
func NewSurface(w, h int) *Surface {
	return NewSurfaceWithFace(w, h, text.NewGoXFace(basicfont.Face7x13))
}

// NewSurfaceWithFace creates a canvas that draws text with face.
func NewSurfaceWithFace(w, h int, face text.Face) *Surface {
	m := face.Metrics()
	return &Surface{
		image:  ebiten.NewImage(w, h),
		face:   face,
		lh:     m.HAscent + m.HDescent + m.HLineGap,
		images: make(map[image.Image]*ebiten.Image),
	}
}

// Image returns the underlying *ebiten.Image for blitting to the screen.
func (s *Surface) Image() *ebiten.Image {
	return s.image
}

// Resize replaces the canvas when the size changed. Converted images are
// kept. Returns true when a new canvas was allocated.
func (s *Surface) Resize(w, h int) bool {
	b := s.image.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return false
	}
	s.image.Deallocate()
	s.image = ebiten.NewImage(w, h)
	return true
}

// Forget drops the GPU copy of img, for hosts that evict it from their
// ImageCache.
func (s *Surface) Forget(img image.Image) {
	if ei, ok := s.images[img]; ok {
		ei.Deallocate()
		delete(s.images, img)
	}
}

// Size implements arbor.Surface.
func (s *Surface) Size() (float64, float64) {
	b := s.image.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}

// Clear implements arbor.Surface.
func (s *Surface) Clear(r arbor.Rect) {
	s.sub(r).Clear()
}

// FillRect implements arbor.Surface.
func (s *Surface) FillRect(r arbor.Rect, c arbor.Color) {
	vector.DrawFilledRect(s.image, float32(r.X), float32(r.Y), float32(r.Width), float32(r.Height), c.RGBA(), false)
}

// StrokeRect implements arbor.Surface.
func (s *Surface) StrokeRect(r arbor.Rect, c arbor.Color, lineWidth float64) {
	// Inset by half the line so the stroke stays inside r.
	half := lineWidth / 2
	vector.StrokeRect(s.image,
		float32(r.X+half), float32(r.Y+half),
		float32(r.Width-lineWidth), float32(r.Height-lineWidth),
		float32(lineWidth), c.RGBA(), false)
}

// DrawText implements arbor.Surface.
func (s *Surface) DrawText(str string, x, y float64, c arbor.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(c.RGBA())
	op.LineSpacing = s.lh
	text.Draw(s.image, str, s.face, op)
}

// DrawImage implements arbor.Surface.
func (s *Surface) DrawImage(img image.Image, r arbor.Rect) {
	src := s.gpuImage(img)
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	var op ebiten.DrawImageOptions
	op.GeoM.Scale(r.Width/float64(b.Dx()), r.Height/float64(b.Dy()))
	op.GeoM.Translate(r.X, r.Y)
	op.Filter = ebiten.FilterLinear
	s.image.DrawImage(src, &op)
}

// MeasureText implements arbor.Surface.
func (s *Surface) MeasureText(str string) (float64, float64) {
	return text.Measure(str, s.face, s.lh)
}

func (s *Surface) gpuImage(img image.Image) *ebiten.Image {
	if ei, ok := img.(*ebiten.Image); ok {
		return ei
	}
	if ei, ok := s.images[img]; ok {
		return ei
	}
	ei := ebiten.NewImageFromImage(img)
	s.images[img] = ei
	return ei
}

func (s *Surface) sub(r arbor.Rect) *ebiten.Image {
	rect := image.Rect(int(r.X), int(r.Y), int(r.X+r.Width), int(r.Y+r.Height))
	return s.image.SubImage(rect).(*ebiten.Image)
}
