// Package ecs forwards arbor viewer events into a Donburi world.
//
// [NewDonburiSink] publishes every viewer event to [ViewerEventType] and
// keeps the [Selected] tag on whichever selected items are Donburi
// entities, so systems can query the selection like any other component.
//
// Usage:
//
//	viewer.SetEventSink(ecs.NewDonburiSink(world))
//	ecs.ViewerEventType.Subscribe(world, onViewerEvent)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
