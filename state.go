package arbor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	json "github.com/goccy/go-json"
)

// StateVersion is the current schema version of ViewerState.
const StateVersion = 1

// ErrStateVersion is returned when a persisted ViewerState has an unknown
// version.
var ErrStateVersion = errors.New("arbor: unsupported viewer state version")

// ViewerState is a serializable snapshot of what the user changed in a
// viewer. Items are stored by host-supplied keys so the snapshot survives
// restarts.
//
// File format (JSON):
//
//	{
//	  "version": 1,
//	  "expanded": ["assets", "assets/sprites"],
//	  "selected": ["assets/sprites/ship.png"],
//	  "scrollY": 120,
//	  "filter": "ship"
//	}
type ViewerState struct {
	Version  int      `json:"version"`
	Expanded []string `json:"expanded,omitempty"` // sorted
	Selected []string `json:"selected,omitempty"` // selection order
	ScrollY  float64  `json:"scrollY"`
	Filter   string   `json:"filter,omitempty"`
}

// KeyFunc maps an item to a stable string key. An empty key means the item
// is not persisted.
type KeyFunc func(item any) string

// Snapshot captures expansion, selection, scroll offset and filter text.
func (v *Viewer) Snapshot(key KeyFunc) ViewerState {
	st := ViewerState{
		Version: StateVersion,
		ScrollY: v.scroll.y,
		Filter:  v.filterText,
	}
	for item := range v.expanded {
		if k := key(item); k != "" {
			st.Expanded = append(st.Expanded, k)
		}
	}
	sort.Strings(st.Expanded)
	for _, item := range v.selOrder {
		if k := key(item); k != "" {
			st.Selected = append(st.Selected, k)
		}
	}
	return st
}

// Restore applies a snapshot. Keys are resolved by walking from the roots
// through restored expanded nodes only, so a selected item under a collapsed
// parent is dropped. Keys that no longer resolve are ignored. The expansion
// set is replaced, not merged. Call Repaint to see the effect.
//
// If the content provider fails, nothing is changed.
func (v *Viewer) Restore(st ViewerState, key KeyFunc) error {
	if st.Version != StateVersion {
		return fmt.Errorf("%w: %d", ErrStateVersion, st.Version)
	}
	if v.State() == StateEmpty {
		return nil
	}

	wantExp := make(map[string]struct{}, len(st.Expanded))
	for _, k := range st.Expanded {
		wantExp[k] = struct{}{}
	}
	wantSel := make(map[string]int, len(st.Selected))
	for i, k := range st.Selected {
		wantSel[k] = i
	}

	expanded := make(map[any]struct{})
	selected := make([]any, len(st.Selected))
	var walk func(items []any, depth int) error
	walk = func(items []any, depth int) error {
		for _, item := range items {
			k := key(item)
			if i, ok := wantSel[k]; ok {
				selected[i] = item
			}
			if _, ok := wantExp[k]; !ok {
				continue
			}
			expanded[item] = struct{}{}
			if depth+1 >= v.opts.MaxDepth {
				continue
			}
			children, err := v.content.Children(item)
			if err != nil {
				return fmt.Errorf("arbor: restore children of %v: %w", item, err)
			}
			if err := walk(children, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	roots, err := v.content.Roots(v.input)
	if err != nil {
		return fmt.Errorf("arbor: restore roots: %w", err)
	}
	if err := walk(roots, 0); err != nil {
		return err
	}

	v.expanded = expanded
	sel := selected[:0]
	for _, item := range selected {
		if item != nil {
			sel = append(sel, item)
		}
	}
	v.SetSelection(sel...)
	v.filterText = st.Filter
	v.scroll.set(max(0, st.ScrollY))
	return nil
}

// WriteState encodes st as indented JSON.
func WriteState(w io.Writer, st ViewerState) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(st); err != nil {
		return fmt.Errorf("arbor: encode state: %w", err)
	}
	return nil
}

// ReadState decodes a ViewerState written by WriteState.
func ReadState(r io.Reader) (ViewerState, error) {
	var st ViewerState
	if err := json.NewDecoder(r).Decode(&st); err != nil {
		return ViewerState{}, fmt.Errorf("arbor: decode state: %w", err)
	}
	if st.Version != StateVersion {
		return ViewerState{}, fmt.Errorf("%w: %d", ErrStateVersion, st.Version)
	}
	return st, nil
}

// SaveStateFile writes st to path, creating its directory if needed.
func SaveStateFile(path string, st ViewerState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("arbor: save state: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("arbor: save state: %w", err)
	}
	if err := WriteState(f, st); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// LoadStateFile reads a state file written by SaveStateFile.
func LoadStateFile(path string) (ViewerState, error) {
	f, err := os.Open(path)
	if err != nil {
		return ViewerState{}, fmt.Errorf("arbor: load state: %w", err)
	}
	defer f.Close()
	return ReadState(f)
}
