package ecs

import (
	"testing"

	"github.com/phanxgames/arbor"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
	"github.com/yohamta/donburi/filter"
)

var Name = donburi.NewComponentType[string]()

func TestNewDonburiSink(t *testing.T) {
	world := donburi.NewWorld()
	if NewDonburiSink(world) == nil {
		t.Fatal("NewDonburiSink returned nil")
	}
}

func TestDonburiSink_EmitEvent(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world)

	var received []arbor.ViewerEvent
	ViewerEventType.Subscribe(world, func(w donburi.World, e arbor.ViewerEvent) {
		received = append(received, e)
	})

	sink.EmitEvent(arbor.ViewerEvent{Type: arbor.EventItemOpened, Item: "readme"})
	sink.EmitEvent(arbor.ViewerEvent{Type: arbor.EventLayoutChanged, ContentHeight: 80, PrevHeight: 60})

	// Events are queued until processed.
	if len(received) != 0 {
		t.Fatalf("events delivered before ProcessEvents: %d", len(received))
	}
	ViewerEventType.ProcessEvents(world)

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}
	if e := received[0]; e.Type != arbor.EventItemOpened || e.Item != "readme" {
		t.Errorf("event 0: %+v", e)
	}
	if e := received[1]; e.ContentHeight != 80 || e.PrevHeight != 60 {
		t.Errorf("event 1: %+v", e)
	}
}

func TestDonburiSink_TagsSelectedEntities(t *testing.T) {
	world := donburi.NewWorld()
	a := world.Create(Name)
	b := world.Create(Name)
	donburi.SetValue(world.Entry(a), Name, "a")
	donburi.SetValue(world.Entry(b), Name, "b")

	v := arbor.NewViewer(arbor.ViewerOptions{})
	v.SetEventSink(NewDonburiSink(world))

	selected := donburi.NewQuery(filter.Contains(Selected))

	v.SetSelection(a, "not an entity")
	if n := selected.Count(world); n != 1 {
		t.Fatalf("tagged = %d, want 1", n)
	}
	if !world.Entry(a).HasComponent(Selected) {
		t.Error("a should be tagged")
	}

	v.SetSelection(b)
	if world.Entry(a).HasComponent(Selected) {
		t.Error("a should lose the tag when deselected")
	}
	if !world.Entry(b).HasComponent(Selected) {
		t.Error("b should be tagged")
	}

	world.Remove(b)
	v.SetSelection()
	if n := selected.Count(world); n != 0 {
		t.Errorf("tagged after clearing = %d, want 0", n)
	}
}

func TestDonburiSink_MultipleSubscribers(t *testing.T) {
	world := donburi.NewWorld()
	v := arbor.NewViewer(arbor.ViewerOptions{})
	v.SetEventSink(NewDonburiSink(world))

	var count1, count2 int
	ViewerEventType.Subscribe(world, func(w donburi.World, e arbor.ViewerEvent) {
		count1++
	})
	ViewerEventType.Subscribe(world, func(w donburi.World, e arbor.ViewerEvent) {
		count2++
	})

	v.SetSelection("x")
	events.ProcessAllEvents(world)

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both subscribers called once, got %d and %d", count1, count2)
	}
}
