// Package arbor is a virtualized tree viewer that paints directly onto a
// raster surface.
//
// The viewer does not own the tree. A [ContentProvider] supplies roots and
// children for an opaque input object, a [CellRendererProvider] picks the
// [CellRenderer] that draws each row, and a [LabelProvider] gives the text
// used by filtering. The viewer keeps the expansion, selection, filter and
// scroll state and, after every repaint, the flat list of [PaintItem] rows and
// [HotZone] expanders used for hit-testing.
//
// # Quick start
//
//	v := arbor.NewViewer(arbor.ViewerOptions{})
//	v.SetContentProvider(myContent)
//	v.SetCellRendererProvider(arbor.NewStaticCells(&arbor.LabelCellRenderer{}))
//	v.SetInput(root)
//	v.SetSurface(surface)
//	if err := v.Repaint(); err != nil {
//		// a provider failed; the previous paint is kept
//	}
//
// Hosts forward pointer and keyboard input with [Viewer.ProcessPointer],
// [Viewer.Click], [Viewer.Scroll] and [Viewer.HandleKey], and call
// [Viewer.Update] once per frame to advance scroll animation and apply
// finished preloads. The ebitenhost package does all of this for an
// [Ebitengine] window.
//
// # Surfaces
//
// [Surface] is a small immediate-mode drawing interface. Implementations live
// in subpackages: ebitenhost (GPU, via Ebitengine), ggsurface (software
// raster and PNG), svgsurface (SVG documents) and tcellsurface (terminals).
// [RecordingSurface] records draw calls for tests.
//
// # Layouts
//
// [TreeLayout] indents each level by the icon size. [GridLayout] wraps rows
// into square cells. Both share the viewer's expansion and filter semantics.
//
// # Scripted input
//
// [LoadScript] parses a JSON list of clicks, drags, keys, scrolls, filters and
// checkpoints. A [Script] replays them one frame at a time through the same
// entry points a host uses, for automated tests and reproducible snapshots.
//
// # Concurrency
//
// A [Viewer] is used from one goroutine. Only [CellRendererProvider.Preload]
// runs on worker goroutines; [ImageCache] is safe for that use.
//
// [Ebitengine]: https://ebitengine.org
package arbor
