// Package ebitenhost runs an arbor viewer in an [Ebitengine] window.
//
// [Surface] implements arbor.Surface over a persistent *ebiten.Image using
// the vector package for rectangles and text/v2 for labels. [Host] is an
// ebiten.Game that feeds mouse, wheel and keyboard input into the viewer and
// blits the canvas every frame. [Run] wires both into a window:
//
//	v := arbor.NewViewer(arbor.ViewerOptions{ScrollDuration: 0.15})
//	// ... set providers and input ...
//	if err := ebitenhost.Run(v, ebitenhost.RunConfig{Title: "Files", Resizable: true}); err != nil {
//		log.Fatal(err)
//	}
//
// [Ebitengine]: https://ebitengine.org
package ebitenhost
