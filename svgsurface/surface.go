// Package svgsurface records arbor viewer paints as SVG documents.
package svgsurface

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"
	"github.com/mattn/go-runewidth"

	"github.com/phanxgames/arbor"
)

const (
	defaultCharWidth  = 7
	defaultLineHeight = 13
	defaultAscent     = 11
)

// Surface implements arbor.Surface by emitting SVG elements. Elements are
// buffered until WriteTo so a full-surface Clear can discard an earlier
// paint. Partial clears are ignored; SVG has no way to erase part of what is
// under a later element.
//
// Text is measured as fixed-width cells using East Asian widths, matching
// the monospace font the document asks for.
type Surface struct {
	Width, Height int
	CharWidth     float64 // 0 = 7
	LineHeight    float64 // 0 = 13
	FontFamily    string  // "" = monospace

	body   bytes.Buffer
	canvas *svg.SVG
}

// New creates an SVG surface of the given size.
func New(w, h int) *Surface {
	s := &Surface{Width: w, Height: h}
	s.canvas = svg.New(&s.body)
	return s
}

// WriteTo writes a complete SVG document with everything drawn since the
// last full Clear.
func (s *Surface) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	doc := svg.New(cw)
	doc.Start(s.Width, s.Height)
	if _, err := cw.Write(s.body.Bytes()); err != nil {
		return cw.n, fmt.Errorf("write svg: %w", err)
	}
	doc.End()
	if cw.err != nil {
		return cw.n, fmt.Errorf("write svg: %w", cw.err)
	}
	return cw.n, nil
}

// Bytes returns the complete document.
func (s *Surface) Bytes() []byte {
	var buf bytes.Buffer
	_, _ = s.WriteTo(&buf)
	return buf.Bytes()
}

// Size implements arbor.Surface.
func (s *Surface) Size() (float64, float64) {
	return float64(s.Width), float64(s.Height)
}

// Clear implements arbor.Surface.
func (s *Surface) Clear(r arbor.Rect) {
	if r.X <= 0 && r.Y <= 0 && r.X+r.Width >= float64(s.Width) && r.Y+r.Height >= float64(s.Height) {
		s.body.Reset()
	}
}

// FillRect implements arbor.Surface.
func (s *Surface) FillRect(r arbor.Rect, c arbor.Color) {
	x, y, w, h := ints(r)
	s.canvas.Rect(x, y, w, h, "fill:"+css(c)+opacity("fill", c))
}

// StrokeRect implements arbor.Surface.
func (s *Surface) StrokeRect(r arbor.Rect, c arbor.Color, lineWidth float64) {
	x, y, w, h := ints(r)
	s.canvas.Rect(x, y, w, h, fmt.Sprintf("fill:none;stroke:%s;stroke-width:%g%s", css(c), lineWidth, opacity("stroke", c)))
}

// DrawText implements arbor.Surface.
func (s *Surface) DrawText(text string, x, y float64, c arbor.Color) {
	baseline := y + s.lineHeight()*defaultAscent/defaultLineHeight
	s.canvas.Text(round(x), round(baseline), text,
		fmt.Sprintf("fill:%s;font-size:%gpx;font-family:%s%s", css(c), s.lineHeight(), s.fontFamily(), opacity("fill", c)))
}

// DrawImage implements arbor.Surface. Images are embedded as PNG data URIs.
func (s *Surface) DrawImage(img image.Image, r arbor.Rect) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return
	}
	x, y, w, h := ints(r)
	s.canvas.Image(x, y, w, h, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(buf.Bytes()))
}

// MeasureText implements arbor.Surface.
func (s *Surface) MeasureText(text string) (float64, float64) {
	return float64(runewidth.StringWidth(text)) * s.charWidth(), s.lineHeight()
}

func (s *Surface) charWidth() float64 {
	if s.CharWidth > 0 {
		return s.CharWidth
	}
	return defaultCharWidth
}

func (s *Surface) lineHeight() float64 {
	if s.LineHeight > 0 {
		return s.LineHeight
	}
	return defaultLineHeight
}

func (s *Surface) fontFamily() string {
	if s.FontFamily != "" {
		return s.FontFamily
	}
	return "monospace"
}

func css(c arbor.Color) string {
	n := c.NRGBA()
	return fmt.Sprintf("rgb(%d,%d,%d)", n.R, n.G, n.B)
}

func opacity(prop string, c arbor.Color) string {
	if c.A >= 1 {
		return ""
	}
	return fmt.Sprintf(";%s-opacity:%.3g", prop, c.A)
}

func round(v float64) int { return int(math.Round(v)) }

func ints(r arbor.Rect) (x, y, w, h int) {
	return round(r.X), round(r.Y), round(r.Width), round(r.Height)
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
