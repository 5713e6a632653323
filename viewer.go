package arbor

import (
	"errors"
	"fmt"
	"time"

	"github.com/tanema/gween/ease"
)

// ErrNoSurface is returned by Repaint when the viewer is ready to paint but
// has no surface to paint on.
var ErrNoSurface = errors.New("arbor: no surface")

// State is the viewer's configuration state.
type State uint8

const (
	StateEmpty State = iota // missing content provider, cell renderer provider or input
	StateReady              // can paint
)

const (
	defaultMaxDepth            = 256
	defaultPreloadWorkers      = 4
	defaultDoubleClickInterval = 400 * time.Millisecond
)

// ViewerOptions configures a Viewer. Zero values select the defaults noted on
// each field.
type ViewerOptions struct {
	Theme   ThemeProvider // nil = DefaultTheme
	Images  *ImageCache   // shared image cache handed to hosts via Viewer.Images
	Layout  Layout        // nil = &TreeLayout{}
	Matcher Matcher       // nil = SubstringMatcher{}

	// MaxDepth bounds recursion into the content tree. Deeper levels are not
	// walked and a warning is logged. 0 = 256.
	MaxDepth int
	// PreloadWorkers bounds concurrent CellRendererProvider.Preload calls.
	// 0 = 4.
	PreloadWorkers int
	// DoubleClickInterval is the maximum gap between two clicks on the same
	// row that counts as a double click. 0 = 400ms.
	DoubleClickInterval time.Duration
	// ScrollDuration animates scroll-to-reveal over this many seconds.
	// 0 scrolls instantly.
	ScrollDuration float32
	// ScrollEase is the easing used when ScrollDuration > 0. nil = ease.OutQuad.
	ScrollEase ease.TweenFunc

	// Logf receives warnings and debug output. nil = stderr.
	Logf func(format string, args ...any)
	// Clock returns the current time for double-click detection. nil = time.Now.
	Clock func() time.Time
}

// Viewer is a virtualized tree control that paints onto a Surface. It owns the
// expansion, selection, filter and scroll state and keeps the paint items of
// the most recent paint for hit-testing.
//
// A Viewer is not safe for concurrent use. All methods must be called from
// the UI goroutine; only preloads run elsewhere.
type Viewer struct {
	opts    ViewerOptions
	theme   ThemeProvider
	images  *ImageCache
	layout  Layout
	matcher Matcher
	logf    func(format string, args ...any)
	now     func() time.Time
	debug   bool

	// Collaborators
	content  ContentProvider
	cells    CellRendererProvider
	labels   LabelProvider
	input    any
	surface  Surface
	inputGen uint64

	// Persistent state
	expanded   map[any]struct{}
	selected   map[any]struct{}
	selOrder   []any
	anchor     any // fixed end of a Shift range
	focus      any // row keyboard navigation moves from
	filterText string

	// Results of the last successful paint
	items         []PaintItem
	zones         []HotZone
	parents       map[any]any
	contentHeight float64
	painted       bool

	scroll  scrollState
	pointer pointerState
	preload preloadState

	handlers handlerRegistry
	sink     EventSink
}

// NewViewer creates an empty viewer.
func NewViewer(opts ViewerOptions) *Viewer {
	v := &Viewer{
		opts:     opts,
		theme:    opts.Theme,
		images:   opts.Images,
		layout:   opts.Layout,
		matcher:  opts.Matcher,
		logf:     opts.Logf,
		now:      opts.Clock,
		expanded: make(map[any]struct{}),
		selected: make(map[any]struct{}),
		parents:  make(map[any]any),
	}
	if v.theme == nil {
		v.theme = StaticTheme{T: DefaultTheme()}
	}
	if v.layout == nil {
		v.layout = &TreeLayout{}
	}
	if v.matcher == nil {
		v.matcher = SubstringMatcher{}
	}
	if v.logf == nil {
		v.logf = stderrLogf
	}
	if v.now == nil {
		v.now = time.Now
	}
	if v.opts.MaxDepth <= 0 {
		v.opts.MaxDepth = defaultMaxDepth
	}
	if v.opts.PreloadWorkers <= 0 {
		v.opts.PreloadWorkers = defaultPreloadWorkers
	}
	if v.opts.DoubleClickInterval <= 0 {
		v.opts.DoubleClickInterval = defaultDoubleClickInterval
	}
	if v.opts.ScrollEase == nil {
		v.opts.ScrollEase = ease.OutQuad
	}
	v.pointer.reset()
	return v
}

// --- Configuration ---

// State reports whether the viewer has everything it needs to paint.
func (v *Viewer) State() State {
	if v.content == nil || v.cells == nil || v.input == nil {
		return StateEmpty
	}
	return StateReady
}

// SetContentProvider sets the tree structure source. It does not repaint.
func (v *Viewer) SetContentProvider(cp ContentProvider) {
	v.content = cp
	v.invalidate()
}

// ContentProvider returns the current content provider.
func (v *Viewer) ContentProvider() ContentProvider { return v.content }

// SetCellRendererProvider sets the row renderer source. It does not repaint.
func (v *Viewer) SetCellRendererProvider(p CellRendererProvider) {
	v.cells = p
	v.invalidate()
	v.preload.reset()
}

// CellRendererProvider returns the current cell renderer provider.
func (v *Viewer) CellRendererProvider() CellRendererProvider { return v.cells }

// SetLabelProvider sets the label source used by filtering and the built-in
// renderers. nil falls back to FmtLabels.
func (v *Viewer) SetLabelProvider(lp LabelProvider) {
	v.labels = lp
}

// LabelProvider returns the label provider in effect.
func (v *Viewer) LabelProvider() LabelProvider {
	if v.labels == nil {
		return FmtLabels
	}
	return v.labels
}

// SetInput sets the object whose roots the content provider returns. A new
// input drops the previous paint results, resets scrolling and starts
// preloading the initially visible items. Expansion and selection are kept;
// call CollapseAll or SetSelection to reset them. It does not repaint.
func (v *Viewer) SetInput(input any) {
	v.input = input
	v.inputGen++
	v.invalidate()
	v.scroll.reset()
	v.preload.reset()
	if v.State() == StateReady {
		v.StartPreload()
	}
}

// Input returns the current input.
func (v *Viewer) Input() any { return v.input }

// SetSurface sets the paint target. The surface size is the viewport.
func (v *Viewer) SetSurface(s Surface) {
	v.surface = s
}

// Surface returns the current paint target.
func (v *Viewer) Surface() Surface { return v.surface }

// SetLayout swaps the layout strategy. It does not repaint.
func (v *Viewer) SetLayout(l Layout) {
	if l == nil {
		l = &TreeLayout{}
	}
	v.layout = l
	v.invalidate()
}

// Layout returns the layout strategy.
func (v *Viewer) Layout() Layout { return v.layout }

// SetMatcher sets the filter predicate. It does not repaint.
func (v *Viewer) SetMatcher(m Matcher) {
	if m == nil {
		m = SubstringMatcher{}
	}
	v.matcher = m
}

// Images returns the image cache passed in ViewerOptions (may be nil).
func (v *Viewer) Images() *ImageCache { return v.images }

// Theme returns the theme in effect.
func (v *Viewer) Theme() *Theme { return v.theme.Theme() }

// invalidate drops the paint results; they describe a structure that no
// longer applies.
func (v *Viewer) invalidate() {
	v.items = nil
	v.zones = nil
	v.parents = make(map[any]any)
	v.painted = false
}

// --- Painting ---

// Repaint lays out and paints the tree. It is a no-op while the viewer is
// empty. If a collaborator fails, the error is returned and the paint items,
// hot-zones, expansion and selection keep their previous values.
func (v *Viewer) Repaint() error {
	if v.State() == StateEmpty {
		return nil
	}
	if v.surface == nil {
		return ErrNoSurface
	}

	p, stats, err := v.paint()
	if err != nil {
		return err
	}
	prev, wasPainted := v.contentHeight, v.painted
	v.commit(p)

	// Content shrank under the scroll offset: clamp and lay out once more.
	if limit := v.MaxScrollY(); v.scroll.y > limit {
		v.scroll.set(limit)
		if p, stats, err = v.paint(); err != nil {
			return err
		}
		v.commit(p)
	}

	if !wasPainted || prev != v.contentHeight {
		v.fireLayoutChanged(prev)
	}
	if v.debug {
		v.debugLog(stats)
	}
	v.preloadNewItems()
	return nil
}

func (v *Viewer) paint() (*paintPass, paintStats, error) {
	var stats paintStats
	t0 := time.Now()

	w, h := v.surface.Size()
	theme := v.theme.Theme()
	p := &paintPass{
		surface:  v.surface,
		theme:    theme,
		content:  v.content,
		cells:    v.cells,
		labels:   v.LabelProvider(),
		input:    v.input,
		expanded: v.expanded,
		selected: v.selected,
		scrollY:  v.scroll.y,
		width:    w,
		height:   h,
		maxDepth: v.opts.MaxDepth,
		parents:  make(map[any]any),
	}

	if v.filterText != "" {
		fp, err := runFilter(v.content, p.labels, v.matcher, v.input, v.filterText, v.opts.MaxDepth)
		if err != nil {
			return nil, stats, err
		}
		p.filter = &fp.result
		p.depthCutoff = fp.truncated
	}
	stats.filterTime = time.Since(t0)
	t0 = time.Now()

	v.surface.Clear(Rect{0, 0, w, h})
	v.surface.FillRect(Rect{0, 0, w, h}, theme.Background)
	if err := v.layout.Paint(p); err != nil {
		return nil, stats, err
	}
	stats.layoutTime = time.Since(t0)
	stats.items = len(p.items)
	stats.zones = len(p.zones)
	stats.contentHeight = p.contentHeight
	return p, stats, nil
}

// commit publishes a successful paint pass.
func (v *Viewer) commit(p *paintPass) {
	if p.filter != nil {
		for item := range p.filter.expand {
			v.expanded[item] = struct{}{}
		}
	}
	if p.depthCutoff {
		v.warnf("tree deeper than %d levels; deeper nodes were not walked", v.opts.MaxDepth)
	}

	v.items = p.items
	v.zones = p.zones
	v.parents = p.parents
	v.contentHeight = p.contentHeight
	v.painted = true
}

// PaintItems returns the rows laid out by the last paint, in paint order.
// The returned slice MUST NOT be mutated and is replaced by the next paint.
func (v *Viewer) PaintItems() []PaintItem { return v.items }

// HotZones returns the expander boxes painted by the last paint.
func (v *Viewer) HotZones() []HotZone { return v.zones }

// ContentHeight returns the total laid out height of the last paint.
func (v *Viewer) ContentHeight() float64 { return v.contentHeight }

// ItemAt returns the item whose row contains (x, y) in the last paint.
func (v *Viewer) ItemAt(x, y float64) (any, bool) {
	i := v.layout.HitTest(v.items, x, y)
	if i < 0 {
		return nil, false
	}
	return v.items[i].Item, true
}

// IndexOf returns the paint index of item in the last paint, or -1.
func (v *Viewer) IndexOf(item any) int {
	for i := range v.items {
		if v.items[i].Item == item {
			return i
		}
	}
	return -1
}

// Parent returns the parent of a painted item as seen in the last paint.
// Root items and unpainted items report false.
func (v *Viewer) Parent(item any) (any, bool) {
	p, ok := v.parents[item]
	return p, ok
}

// --- Filter ---

// SetFilterText sets the filter and repaints. A non-empty filter expands
// every ancestor of a match so matches are visible without further clicks.
func (v *Viewer) SetFilterText(text string) error {
	v.filterText = text
	return v.Repaint()
}

// FilterText returns the active filter.
func (v *Viewer) FilterText() string { return v.filterText }

// --- Expansion ---

// SetExpanded expands or collapses item. Call Repaint to see the effect.
func (v *Viewer) SetExpanded(item any, expanded bool) {
	if expanded {
		v.expanded[item] = struct{}{}
	} else {
		delete(v.expanded, item)
	}
}

// IsExpanded reports whether item is in the expansion set.
func (v *Viewer) IsExpanded(item any) bool {
	_, ok := v.expanded[item]
	return ok
}

// ExpandedItems returns the expansion set in unspecified order.
func (v *Viewer) ExpandedItems() []any {
	out := make([]any, 0, len(v.expanded))
	for item := range v.expanded {
		out = append(out, item)
	}
	return out
}

// CollapseAll empties the expansion set. Call Repaint to see the effect.
func (v *Viewer) CollapseAll() {
	clear(v.expanded)
}

// ExpandCollapseBranch collapses item and every descendant when item is
// expanded; otherwise expands item and every descendant that has children.
// Call Repaint to see the effect.
func (v *Viewer) ExpandCollapseBranch(item any) error {
	if v.content == nil {
		return nil
	}
	expand := !v.IsExpanded(item)
	return v.walkBranch(item, 0, func(node any, hasChildren bool) {
		if expand && hasChildren {
			v.expanded[node] = struct{}{}
		} else if !expand {
			delete(v.expanded, node)
		}
	})
}

func (v *Viewer) walkBranch(item any, depth int, fn func(item any, hasChildren bool)) error {
	children, err := v.content.Children(item)
	if err != nil {
		return fmt.Errorf("arbor: children of %v: %w", item, err)
	}
	fn(item, len(children) > 0)
	if depth+1 >= v.opts.MaxDepth {
		if len(children) > 0 {
			v.warnf("branch deeper than %d levels; stopped at %v", v.opts.MaxDepth, item)
		}
		return nil
	}
	for _, child := range children {
		if err := v.walkBranch(child, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

// Reveal expands the ancestor chain of every given item, repaints, and
// scrolls the first revealed item into view. Items not found under the
// current input are skipped.
func (v *Viewer) Reveal(items ...any) error {
	if v.State() == StateEmpty || len(items) == 0 {
		return nil
	}
	roots, err := v.content.Roots(v.input)
	if err != nil {
		return fmt.Errorf("arbor: roots: %w", err)
	}
	var added []any
	for _, item := range items {
		path, err := v.pathTo(roots, item, 0)
		if err != nil {
			v.unexpand(added)
			return err
		}
		for _, ancestor := range path {
			if !v.IsExpanded(ancestor) {
				added = append(added, ancestor)
				v.expanded[ancestor] = struct{}{}
			}
		}
	}
	if err := v.Repaint(); err != nil {
		v.unexpand(added)
		return err
	}
	if i := v.IndexOf(items[0]); i >= 0 {
		return v.ScrollIntoView(i)
	}
	return nil
}

func (v *Viewer) unexpand(items []any) {
	for _, item := range items {
		delete(v.expanded, item)
	}
}

// pathTo returns the ancestors of target (root first), excluding target.
func (v *Viewer) pathTo(items []any, target any, depth int) ([]any, error) {
	for _, item := range items {
		if item == target {
			return []any{}, nil
		}
	}
	if depth+1 >= v.opts.MaxDepth {
		return nil, nil
	}
	for _, item := range items {
		children, err := v.content.Children(item)
		if err != nil {
			return nil, fmt.Errorf("arbor: children of %v: %w", item, err)
		}
		if len(children) == 0 {
			continue
		}
		path, err := v.pathTo(children, target, depth+1)
		if err != nil {
			return nil, err
		}
		if path != nil {
			return append([]any{item}, path...), nil
		}
	}
	return nil, nil
}

// --- Selection ---

// SetSelection replaces the selection. Fires OnSelectionChanged when the set
// changed. Call Repaint to see the effect.
func (v *Viewer) SetSelection(items ...any) {
	if v.sameSelection(items) {
		return
	}
	v.replaceSelection(items)
	if len(items) > 0 {
		v.anchor = items[len(items)-1]
	} else {
		v.anchor = nil
	}
	v.focus = v.anchor
	v.fireSelectionChanged()
}

// Selection returns the selected items in selection order.
func (v *Viewer) Selection() []any {
	out := make([]any, len(v.selOrder))
	copy(out, v.selOrder)
	return out
}

// IsSelected reports whether item is selected.
func (v *Viewer) IsSelected(item any) bool {
	_, ok := v.selected[item]
	return ok
}

func (v *Viewer) sameSelection(items []any) bool {
	if len(items) != len(v.selOrder) {
		return false
	}
	for i := range items {
		if items[i] != v.selOrder[i] {
			return false
		}
	}
	return true
}

func (v *Viewer) replaceSelection(items []any) {
	clear(v.selected)
	v.selOrder = v.selOrder[:0]
	for _, item := range items {
		if _, dup := v.selected[item]; dup {
			continue
		}
		v.selected[item] = struct{}{}
		v.selOrder = append(v.selOrder, item)
	}
}

func (v *Viewer) toggleSelected(item any) {
	if _, ok := v.selected[item]; ok {
		delete(v.selected, item)
		for i, s := range v.selOrder {
			if s == item {
				v.selOrder = append(v.selOrder[:i], v.selOrder[i+1:]...)
				break
			}
		}
		return
	}
	v.selected[item] = struct{}{}
	v.selOrder = append(v.selOrder, item)
}

// lead returns the paint index of the item keyboard navigation moves from.
func (v *Viewer) lead() int {
	if v.focus != nil {
		if i := v.IndexOf(v.focus); i >= 0 {
			return i
		}
	}
	if n := len(v.selOrder); n > 0 {
		return v.IndexOf(v.selOrder[n-1])
	}
	return -1
}
