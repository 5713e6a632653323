package arbor

// EventSink is the interface for optional event forwarding (for example into
// an ECS world). When set on a Viewer, every viewer event is also sent here.
type EventSink interface {
	EmitEvent(event ViewerEvent)
}

// ViewerEvent is the flattened form of every viewer event, for EventSink.
type ViewerEvent struct {
	Type          EventType
	Item          any   // EventItemOpened
	Selection     []any // EventSelectionChanged
	ContentHeight float64
	PrevHeight    float64
}

// SelectionContext carries the new selection, in selection order.
type SelectionContext struct {
	Selection []any
}

// OpenContext carries the activated item.
type OpenContext struct {
	Item  any
	Index int // index into the last paint items, -1 when opened programmatically
}

// LayoutContext carries the old and new content height.
type LayoutContext struct {
	ContentHeight float64
	PrevHeight    float64
}

// --- Handler registry ---

type handler[C any] struct {
	id uint32
	fn func(C)
}

type handlerRegistry struct {
	selection []handler[SelectionContext]
	opened    []handler[OpenContext]
	layout    []handler[LayoutContext]
	nextID    uint32
}

// CallbackHandle allows removing a registered callback.
type CallbackHandle struct {
	id    uint32
	reg   *handlerRegistry
	event EventType
}

// Remove unregisters this callback so it no longer fires.
func (h CallbackHandle) Remove() {
	if h.reg == nil {
		return
	}
	switch h.event {
	case EventSelectionChanged:
		h.reg.selection = removeHandler(h.reg.selection, h.id)
	case EventItemOpened:
		h.reg.opened = removeHandler(h.reg.opened, h.id)
	case EventLayoutChanged:
		h.reg.layout = removeHandler(h.reg.layout, h.id)
	}
}

// removeHandler returns s without id. It never writes to s, so a dispatch
// loop ranging over s is unaffected when a handler removes itself.
func removeHandler[C any](s []handler[C], id uint32) []handler[C] {
	for i := range s {
		if s[i].id == id {
			out := make([]handler[C], 0, len(s)-1)
			out = append(out, s[:i]...)
			return append(out, s[i+1:]...)
		}
	}
	return s
}

// OnSelectionChanged registers a callback fired after the selection changes.
func (v *Viewer) OnSelectionChanged(fn func(SelectionContext)) CallbackHandle {
	v.handlers.nextID++
	id := v.handlers.nextID
	v.handlers.selection = append(v.handlers.selection, handler[SelectionContext]{id: id, fn: fn})
	return CallbackHandle{id: id, reg: &v.handlers, event: EventSelectionChanged}
}

// OnItemOpened registers a callback fired when a row is activated by double
// click or Enter.
func (v *Viewer) OnItemOpened(fn func(OpenContext)) CallbackHandle {
	v.handlers.nextID++
	id := v.handlers.nextID
	v.handlers.opened = append(v.handlers.opened, handler[OpenContext]{id: id, fn: fn})
	return CallbackHandle{id: id, reg: &v.handlers, event: EventItemOpened}
}

// OnLayoutChanged registers a callback fired when a repaint changes the
// content height, so hosts can refresh scrollbars.
func (v *Viewer) OnLayoutChanged(fn func(LayoutContext)) CallbackHandle {
	v.handlers.nextID++
	id := v.handlers.nextID
	v.handlers.layout = append(v.handlers.layout, handler[LayoutContext]{id: id, fn: fn})
	return CallbackHandle{id: id, reg: &v.handlers, event: EventLayoutChanged}
}

// SetEventSink sets the optional event bridge.
func (v *Viewer) SetEventSink(sink EventSink) {
	v.sink = sink
}

// --- Event dispatch ---

func (v *Viewer) fireSelectionChanged() {
	ctx := SelectionContext{Selection: v.Selection()}
	for _, h := range v.handlers.selection {
		h.fn(ctx)
	}
	if v.sink != nil {
		v.sink.EmitEvent(ViewerEvent{Type: EventSelectionChanged, Selection: ctx.Selection})
	}
}

func (v *Viewer) fireItemOpened(item any, index int) {
	ctx := OpenContext{Item: item, Index: index}
	for _, h := range v.handlers.opened {
		h.fn(ctx)
	}
	if v.sink != nil {
		v.sink.EmitEvent(ViewerEvent{Type: EventItemOpened, Item: item})
	}
}

func (v *Viewer) fireLayoutChanged(prev float64) {
	ctx := LayoutContext{ContentHeight: v.contentHeight, PrevHeight: prev}
	for _, h := range v.handlers.layout {
		h.fn(ctx)
	}
	if v.sink != nil {
		v.sink.EmitEvent(ViewerEvent{Type: EventLayoutChanged, ContentHeight: ctx.ContentHeight, PrevHeight: prev})
	}
}
