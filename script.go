package arbor

import (
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

// scriptStep is a single action in an input script.
type scriptStep struct {
	Action string   `json:"action"`
	Label  string   `json:"label,omitempty"`
	X      float64  `json:"x,omitempty"`
	Y      float64  `json:"y,omitempty"`
	FromY  float64  `json:"fromY,omitempty"`
	ToY    float64  `json:"toY,omitempty"`
	Key    string   `json:"key,omitempty"`
	Mods   []string `json:"mods,omitempty"`
	Text   string   `json:"text,omitempty"`
	DY     float64  `json:"dy,omitempty"`
	Frames int      `json:"frames,omitempty"`
}

type scriptFile struct {
	Steps []scriptStep `json:"steps"`
}

// pointerEvent is one queued synthetic pointer sample, fed to
// Viewer.ProcessPointer one per frame like real mouse input.
type pointerEvent struct {
	x, y    float64
	pressed bool
	button  MouseButton
	mods    KeyModifiers
}

// Script replays recorded input against a viewer, one step per frame.
// Hosts call Step from their update loop; headless tools use Run.
//
// Actions: click, rightclick, doubleclick, drag (fromY to toY at x), key,
// scroll, filter, expand, collapse, select, wait and snapshot. Expand,
// collapse and select address rows by their label.
type Script struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	queue     []pointerEvent
	done      bool

	// OnSnapshot is called for each snapshot step with the step's label.
	OnSnapshot func(label string) error
}

// LoadScript parses a JSON input script.
func LoadScript(data []byte) (*Script, error) {
	var f scriptFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(f.Steps) == 0 {
		return nil, errors.New("parse script: no steps")
	}
	for i, st := range f.Steps {
		if err := st.validate(); err != nil {
			return nil, fmt.Errorf("parse script: step %d: %w", i, err)
		}
	}
	return &Script{steps: f.Steps}, nil
}

func (st scriptStep) validate() error {
	if _, err := parseMods(st.Mods); err != nil {
		return err
	}
	switch st.Action {
	case "click", "rightclick", "doubleclick", "drag", "scroll", "filter", "wait", "snapshot":
		return nil
	case "key":
		_, err := parseKey(st.Key)
		return err
	case "expand", "collapse", "select":
		if st.Label == "" {
			return fmt.Errorf("%s needs a label", st.Action)
		}
		return nil
	}
	return fmt.Errorf("unknown action %q", st.Action)
}

// Done reports whether every step has run.
func (s *Script) Done() bool { return s.done }

// Step advances the script by one frame.
func (s *Script) Step(v *Viewer) error {
	if s.done {
		return nil
	}
	if len(s.queue) > 0 {
		evt := s.queue[0]
		s.queue = s.queue[1:]
		if err := v.ProcessPointer(evt.x, evt.y, evt.pressed, evt.button, evt.mods); err != nil {
			return err
		}
		s.checkDone()
		return nil
	}
	if s.waitCount > 0 {
		s.waitCount--
		s.checkDone()
		return nil
	}
	if s.cursor >= len(s.steps) {
		s.done = true
		return nil
	}

	st := s.steps[s.cursor]
	s.cursor++
	if err := s.run(v, st); err != nil {
		return fmt.Errorf("script step %d (%s): %w", s.cursor-1, st.Action, err)
	}
	s.checkDone()
	return nil
}

func (s *Script) checkDone() {
	if s.cursor >= len(s.steps) && s.waitCount == 0 && len(s.queue) == 0 {
		s.done = true
	}
}

// Run steps the script to the end, advancing the viewer by dt seconds
// after every frame.
func (s *Script) Run(v *Viewer, dt float32) error {
	for !s.done {
		if err := s.Step(v); err != nil {
			return err
		}
		if err := v.Update(dt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Script) run(v *Viewer, st scriptStep) error {
	mods, _ := parseMods(st.Mods)
	switch st.Action {
	case "click":
		s.press(st.X, st.Y, MouseButtonLeft, mods)
	case "rightclick":
		s.press(st.X, st.Y, MouseButtonRight, mods)
	case "doubleclick":
		s.press(st.X, st.Y, MouseButtonLeft, mods)
		s.press(st.X, st.Y, MouseButtonLeft, mods)
	case "drag":
		frames := max(st.Frames, 2)
		s.queue = append(s.queue, pointerEvent{x: st.X, y: st.FromY, pressed: true, mods: mods})
		steps := frames - 2
		for i := 1; i <= steps; i++ {
			t := float64(i) / float64(steps+1)
			s.queue = append(s.queue, pointerEvent{x: st.X, y: st.FromY + (st.ToY-st.FromY)*t, pressed: true, mods: mods})
		}
		s.queue = append(s.queue, pointerEvent{x: st.X, y: st.ToY, mods: mods})
	case "key":
		key, _ := parseKey(st.Key)
		return v.HandleKey(key, mods)
	case "scroll":
		return v.Scroll(st.DY)
	case "filter":
		return v.SetFilterText(st.Text)
	case "expand", "collapse":
		item, err := v.itemByLabel(st.Label)
		if err != nil {
			return err
		}
		return v.setExpandedAndRepaint(item, st.Action == "expand")
	case "select":
		item, err := v.itemByLabel(st.Label)
		if err != nil {
			return err
		}
		v.SetSelection(item)
		return v.Repaint()
	case "wait":
		if st.Frames > 0 {
			s.waitCount = st.Frames - 1 // this frame counts as one
		}
	case "snapshot":
		if s.OnSnapshot != nil {
			return s.OnSnapshot(st.Label)
		}
	}
	return nil
}

// press queues a press and a release at the same point.
func (s *Script) press(x, y float64, button MouseButton, mods KeyModifiers) {
	s.queue = append(s.queue,
		pointerEvent{x: x, y: y, pressed: true, button: button, mods: mods},
		pointerEvent{x: x, y: y, button: button, mods: mods},
	)
}

// itemByLabel returns the first painted item with the given label.
func (v *Viewer) itemByLabel(label string) (any, error) {
	labels := v.LabelProvider()
	for _, it := range v.items {
		if labels.Label(it.Item) == label {
			return it.Item, nil
		}
	}
	return nil, fmt.Errorf("no row labelled %q", label)
}

var keyNames = map[string]Key{
	"up": KeyUp, "down": KeyDown, "left": KeyLeft, "right": KeyRight,
	"home": KeyHome, "end": KeyEnd, "pageup": KeyPageUp, "pagedown": KeyPageDown,
	"enter": KeyEnter,
}

func parseKey(name string) (Key, error) {
	k, ok := keyNames[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown key %q", name)
	}
	return k, nil
}

func parseMods(names []string) (KeyModifiers, error) {
	var mods KeyModifiers
	for _, n := range names {
		switch strings.ToLower(n) {
		case "shift":
			mods |= ModShift
		case "ctrl":
			mods |= ModCtrl
		case "alt":
			mods |= ModAlt
		case "meta", "cmd":
			mods |= ModMeta
		default:
			return 0, fmt.Errorf("unknown modifier %q", n)
		}
	}
	return mods, nil
}
