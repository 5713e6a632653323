// Package tcellsurface paints arbor viewers into a terminal through tcell.
//
// The viewer lays out in pixels; the surface maps them onto character cells
// of CellWidth x CellHeight pixels. With the defaults (8 x 20) every
// LabelCellRenderer row is one terminal line and every indent level is two
// columns.
package tcellsurface

import (
	"image"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/phanxgames/arbor"
)

const (
	defaultCellWidth  = 8
	defaultCellHeight = 20
)

// Surface implements arbor.Surface over a tcell.Screen. Call Show after a
// repaint to flush it to the terminal.
type Surface struct {
	Screen     tcell.Screen
	CellWidth  float64 // pixels per column; 0 = 8
	CellHeight float64 // pixels per line; 0 = 20
}

// New wraps an initialized screen.
func New(screen tcell.Screen) *Surface {
	return &Surface{Screen: screen}
}

// Show flushes pending changes to the terminal.
func (s *Surface) Show() { s.Screen.Show() }

func (s *Surface) cw() float64 {
	if s.CellWidth > 0 {
		return s.CellWidth
	}
	return defaultCellWidth
}

func (s *Surface) ch() float64 {
	if s.CellHeight > 0 {
		return s.CellHeight
	}
	return defaultCellHeight
}

// Cell converts a pixel coordinate to the column and line containing it.
func (s *Surface) Cell(x, y float64) (col, row int) {
	return int(math.Floor(x / s.cw())), int(math.Floor(y / s.ch()))
}

// Pixel returns the pixel coordinate of the center of a cell. Hosts use it
// to turn terminal mouse events into viewer coordinates.
func (s *Surface) Pixel(col, row int) (x, y float64) {
	return (float64(col) + 0.5) * s.cw(), (float64(row) + 0.5) * s.ch()
}

// cells returns the half-open cell range whose centers lie inside r.
func (s *Surface) cells(r arbor.Rect) (c0, r0, c1, r1 int) {
	cw, ch := s.cw(), s.ch()
	c0 = int(math.Round(r.X / cw))
	c1 = int(math.Round((r.X + r.Width) / cw))
	r0 = int(math.Round(r.Y / ch))
	r1 = int(math.Round((r.Y + r.Height) / ch))
	cols, rows := s.Screen.Size()
	return max(c0, 0), max(r0, 0), min(c1, cols), min(r1, rows)
}

// Size implements arbor.Surface.
func (s *Surface) Size() (float64, float64) {
	cols, rows := s.Screen.Size()
	return float64(cols) * s.cw(), float64(rows) * s.ch()
}

// Clear implements arbor.Surface.
func (s *Surface) Clear(r arbor.Rect) {
	c0, r0, c1, r1 := s.cells(r)
	for y := r0; y < r1; y++ {
		for x := c0; x < c1; x++ {
			s.Screen.SetContent(x, y, ' ', nil, tcell.StyleDefault)
		}
	}
}

// FillRect implements arbor.Surface. Rectangles thinner than half a cell
// cover no cell centers and draw nothing.
func (s *Surface) FillRect(r arbor.Rect, c arbor.Color) {
	if c.A <= 0 {
		return
	}
	bg := tcellColor(c)
	c0, r0, c1, r1 := s.cells(r)
	for y := r0; y < r1; y++ {
		for x := c0; x < c1; x++ {
			s.Screen.SetContent(x, y, ' ', nil, tcell.StyleDefault.Background(bg))
		}
	}
}

// StrokeRect implements arbor.Surface. Outlines of at least two cells each
// way use box drawing characters; smaller ones become a single square.
func (s *Surface) StrokeRect(r arbor.Rect, c arbor.Color, _ float64) {
	if c.A <= 0 {
		return
	}
	c0, r0, c1, r1 := s.cells(r)
	if c1-c0 < 2 || r1-r0 < 2 {
		col, row := s.Cell(r.Center())
		s.setRune(col, row, '□', c)
		return
	}
	for x := c0 + 1; x < c1-1; x++ {
		s.setRune(x, r0, '─', c)
		s.setRune(x, r1-1, '─', c)
	}
	for y := r0 + 1; y < r1-1; y++ {
		s.setRune(c0, y, '│', c)
		s.setRune(c1-1, y, '│', c)
	}
	s.setRune(c0, r0, '┌', c)
	s.setRune(c1-1, r0, '┐', c)
	s.setRune(c0, r1-1, '└', c)
	s.setRune(c1-1, r1-1, '┘', c)
}

// DrawExpander implements arbor.ExpanderPainter with a triangle glyph.
func (s *Surface) DrawExpander(zone arbor.Rect, expanded bool, c arbor.Color) {
	col, row := s.Cell(zone.X, zone.Y+zone.Height/2)
	glyph := '▸'
	if expanded {
		glyph = '▾'
	}
	s.setRune(col, row, glyph, c)
}

// DrawText implements arbor.Surface. Text keeps the background already in
// each cell, so labels sit on the selection highlight.
func (s *Surface) DrawText(text string, x, y float64, c arbor.Color) {
	col := int(math.Round(x / s.cw()))
	_, row := s.Cell(x, y+s.ch()/2)
	cols, rows := s.Screen.Size()
	if row < 0 || row >= rows {
		return
	}
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if col+w > cols {
			break
		}
		if col >= 0 && w > 0 {
			s.setRune(col, row, r, c)
		}
		col += w
	}
}

// DrawImage implements arbor.Surface by sampling img at every cell center
// and painting the cell background.
func (s *Surface) DrawImage(img image.Image, r arbor.Rect) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 || r.Width <= 0 || r.Height <= 0 {
		return
	}
	c0, r0, c1, r1 := s.cells(r)
	for y := r0; y < r1; y++ {
		for x := c0; x < c1; x++ {
			px, py := s.Pixel(x, y)
			ix := b.Min.X + int((px-r.X)/r.Width*float64(b.Dx()))
			iy := b.Min.Y + int((py-r.Y)/r.Height*float64(b.Dy()))
			cr, cg, cb, ca := img.At(min(ix, b.Max.X-1), min(iy, b.Max.Y-1)).RGBA()
			if ca == 0 {
				continue
			}
			bg := tcell.NewRGBColor(int32(cr>>8), int32(cg>>8), int32(cb>>8))
			s.Screen.SetContent(x, y, ' ', nil, tcell.StyleDefault.Background(bg))
		}
	}
}

// MeasureText implements arbor.Surface.
func (s *Surface) MeasureText(text string) (float64, float64) {
	return float64(runewidth.StringWidth(text)) * s.cw(), s.ch()
}

// setRune writes r with foreground c, keeping the cell's background.
func (s *Surface) setRune(col, row int, r rune, c arbor.Color) {
	_, _, style, _ := s.Screen.GetContent(col, row)
	_, bg, _ := style.Decompose()
	s.Screen.SetContent(col, row, r, nil, tcell.StyleDefault.Foreground(tcellColor(c)).Background(bg))
}

func tcellColor(c arbor.Color) tcell.Color {
	n := c.NRGBA()
	return tcell.NewRGBColor(int32(n.R), int32(n.G), int32(n.B))
}
