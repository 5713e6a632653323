package arbor

import (
	"context"
	"image"
	"testing"
)

func TestDebugModeLogsPaintStats(t *testing.T) {
	f := newFixture(t, ViewerOptions{})
	f.v.SetExpanded("A", true)
	f.repaint(t)
	if len(f.log.lines) != 0 {
		t.Fatalf("non-debug repaint logged %v", f.log.lines)
	}

	f.v.SetDebugMode(true)
	if !f.v.DebugMode() {
		t.Fatal("DebugMode should report true")
	}
	f.repaint(t)
	if !f.log.contains("[arbor] filter:") || !f.log.contains("rows: 3 | hot-zones: 2 | content height: 60") {
		t.Errorf("debug output = %v", f.log.lines)
	}

	f.v.SetDebugMode(false)
	f.log.lines = nil
	f.repaint(t)
	if len(f.log.lines) != 0 {
		t.Errorf("output after disabling debug = %v", f.log.lines)
	}
}

func TestDebugModeReportsImageFailures(t *testing.T) {
	logs := &logSink{}
	images := NewImageCache(func(context.Context, string) (image.Image, error) {
		return nil, errBoom
	})
	v := NewViewer(ViewerOptions{Images: images, Logf: logs.logf})
	if v.Images() != images {
		t.Fatal("Images should return the configured cache")
	}

	images.Preload(context.Background(), "quiet")
	if len(logs.lines) != 0 {
		t.Errorf("failures logged without debug mode: %v", logs.lines)
	}

	v.SetDebugMode(true)
	images.Preload(context.Background(), "loud")
	if !logs.contains(`image "loud": boom`) {
		t.Errorf("logs = %v", logs.lines)
	}
}

func TestWarningsIgnoreDebugMode(t *testing.T) {
	f := newFixture(t, ViewerOptions{})
	f.v.warnf("stopped at %v", "x")
	if !f.log.contains("[arbor] warning: stopped at x") {
		t.Errorf("logs = %v", f.log.lines)
	}
}

// --- Recording surface ---

func TestRecordingSurface(t *testing.T) {
	s := NewRecordingSurface(100, 50)
	if w, h := s.Size(); w != 100 || h != 50 {
		t.Errorf("Size = %v, %v", w, h)
	}
	if w, h := s.MeasureText("héllo"); w != 35 || h != 13 {
		t.Errorf("MeasureText = %v, %v; want runes x 7 by 13", w, h)
	}

	s.Clear(Rect{0, 0, 100, 50})
	s.FillRect(Rect{0, 0, 10, 10}, ColorWhite)
	s.DrawText("a", 1, 2, ColorWhite)
	s.DrawText("b", 1, 22, ColorWhite)
	s.StrokeRect(Rect{}, ColorWhite, 1)
	s.DrawImage(solidImage(1, 1), Rect{})

	if got := s.Texts(); !sameStrings(got, []string{"a", "b"}) {
		t.Errorf("Texts = %v", got)
	}
	if s.Count(OpDrawText) != 2 || s.Count(OpClear) != 1 || s.Count(OpDrawImage) != 1 {
		t.Errorf("ops = %+v", s.Ops)
	}
	if r := s.Ops[2].Rect; r != (Rect{1, 2, 7, 13}) {
		t.Errorf("text rect = %v", r)
	}
	s.Reset()
	if len(s.Ops) != 0 {
		t.Error("Reset should drop ops")
	}
}
