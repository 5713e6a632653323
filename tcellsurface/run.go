package tcellsurface

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"

	"github.com/phanxgames/arbor"
)

const (
	tickInterval = time.Second / 30
	wheelLines   = 3
)

var navKeys = map[tcell.Key]arbor.Key{
	tcell.KeyUp:    arbor.KeyUp,
	tcell.KeyDown:  arbor.KeyDown,
	tcell.KeyLeft:  arbor.KeyLeft,
	tcell.KeyRight: arbor.KeyRight,
	tcell.KeyHome:  arbor.KeyHome,
	tcell.KeyEnd:   arbor.KeyEnd,
	tcell.KeyPgUp:  arbor.KeyPageUp,
	tcell.KeyPgDn:  arbor.KeyPageDown,
	tcell.KeyEnter: arbor.KeyEnter,
}

// Run drives v from terminal events until ctx is done, the user presses
// Ctrl+C (or Esc with an empty filter), or a viewer call fails. Printable
// keys edit the filter text; Backspace deletes from it.
func Run(ctx context.Context, v *arbor.Viewer, s *Surface) error {
	s.Screen.EnableMouse()
	v.SetSurface(s)
	if err := v.Repaint(); err != nil {
		return err
	}
	s.Show()

	events := make(chan tcell.Event)
	quit := make(chan struct{})
	go s.Screen.ChannelEvents(events, quit)
	defer close(quit)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			done, err := HandleEvent(v, s, ev)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		case now := <-ticker.C:
			dt := float32(now.Sub(last).Seconds())
			last = now
			if err := v.Update(dt); err != nil {
				return err
			}
		}
		s.Show()
	}
}

// Post queues fn to run on the goroutine driving Run. Use it to touch the
// viewer from other goroutines, such as a file watcher.
func Post(s *Surface, fn func() error) error {
	return s.Screen.PostEvent(tcell.NewEventInterrupt(fn))
}

// HandleEvent applies one terminal event to v. It reports done when the
// event asks to quit.
func HandleEvent(v *arbor.Viewer, s *Surface, ev tcell.Event) (done bool, err error) {
	switch ev := ev.(type) {
	case *tcell.EventInterrupt:
		if fn, ok := ev.Data().(func() error); ok {
			return false, fn()
		}
	case *tcell.EventResize:
		s.Screen.Sync()
		return false, v.Repaint()
	case *tcell.EventKey:
		return handleKey(v, ev)
	case *tcell.EventMouse:
		return false, handleMouse(v, s, ev)
	}
	return false, nil
}

func handleKey(v *arbor.Viewer, ev *tcell.EventKey) (bool, error) {
	mods := modifiers(ev.Modifiers())
	if nav, ok := navKeys[ev.Key()]; ok {
		return false, v.HandleKey(nav, mods)
	}
	switch ev.Key() {
	case tcell.KeyCtrlC:
		return true, nil
	case tcell.KeyEscape:
		if v.FilterText() == "" {
			return true, nil
		}
		return false, v.SetFilterText("")
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		f := v.FilterText()
		if f == "" {
			return false, nil
		}
		_, size := utf8.DecodeLastRuneInString(f)
		return false, v.SetFilterText(f[:len(f)-size])
	case tcell.KeyRune:
		if mods&(arbor.ModCtrl|arbor.ModAlt|arbor.ModMeta) != 0 {
			return false, nil
		}
		return false, v.SetFilterText(v.FilterText() + string(ev.Rune()))
	}
	return false, nil
}

func handleMouse(v *arbor.Viewer, s *Surface, ev *tcell.EventMouse) error {
	col, row := ev.Position()
	x, y := s.Pixel(col, row)
	buttons := ev.Buttons()
	mods := modifiers(ev.Modifiers())

	switch {
	case buttons&tcell.WheelUp != 0:
		return v.Scroll(-wheelLines * s.ch())
	case buttons&tcell.WheelDown != 0:
		return v.Scroll(wheelLines * s.ch())
	}

	var pressed bool
	var button arbor.MouseButton
	switch {
	case buttons&tcell.Button1 != 0:
		pressed, button = true, arbor.MouseButtonLeft
	case buttons&tcell.Button2 != 0:
		pressed, button = true, arbor.MouseButtonRight
	case buttons&tcell.Button3 != 0:
		pressed, button = true, arbor.MouseButtonMiddle
	}
	return v.ProcessPointer(x, y, pressed, button, mods)
}

func modifiers(m tcell.ModMask) arbor.KeyModifiers {
	var mods arbor.KeyModifiers
	if m&tcell.ModShift != 0 {
		mods |= arbor.ModShift
	}
	if m&tcell.ModCtrl != 0 {
		mods |= arbor.ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		mods |= arbor.ModAlt
	}
	if m&tcell.ModMeta != 0 {
		mods |= arbor.ModMeta
	}
	return mods
}
