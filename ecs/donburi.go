package ecs

import (
	"github.com/phanxgames/arbor"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// ViewerEventType is the Donburi event type for arbor viewer events.
// Subscribe to it to receive selection, open and layout events.
var ViewerEventType = events.NewEventType[arbor.ViewerEvent]()

// Selected tags entities that are currently selected in the viewer.
var Selected = donburi.NewTag()

type donburiSink struct {
	world  donburi.World
	tagged []donburi.Entity
}

// NewDonburiSink creates an EventSink backed by a Donburi world. Events are
// queued on ViewerEventType and delivered by ProcessEvents. Selection
// changes are also mirrored onto the Selected tag immediately.
func NewDonburiSink(world donburi.World) arbor.EventSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) EmitEvent(event arbor.ViewerEvent) {
	if event.Type == arbor.EventSelectionChanged {
		s.retag(event.Selection)
	}
	ViewerEventType.Publish(s.world, event)
}

// retag moves the Selected tag to the entities in sel. Non-entity items and
// entities removed from the world are skipped.
func (s *donburiSink) retag(sel []any) {
	for _, e := range s.tagged {
		if !s.world.Valid(e) {
			continue
		}
		if entry := s.world.Entry(e); entry.HasComponent(Selected) {
			entry.RemoveComponent(Selected)
		}
	}
	s.tagged = s.tagged[:0]
	for _, item := range sel {
		e, ok := item.(donburi.Entity)
		if !ok || !s.world.Valid(e) {
			continue
		}
		if entry := s.world.Entry(e); !entry.HasComponent(Selected) {
			entry.AddComponent(Selected)
		}
		s.tagged = append(s.tagged, e)
	}
}
