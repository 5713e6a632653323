package arbor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// preloadDone is a finished background preload, tagged with the input
// generation it was started for.
type preloadDone struct {
	gen    uint64
	result LoadResult
}

// preloadState is the only viewer state touched off the UI goroutine. seen,
// ctx and cancel belong to the UI goroutine; mu guards done.
type preloadState struct {
	mu     sync.Mutex
	done   []preloadDone
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// seen holds the items already handed to a preload for this input.
	seen map[any]struct{}
}

// reset cancels the running preloads and forgets which items were sent.
func (s *preloadState) reset() {
	if s.cancel != nil {
		s.cancel()
	}
	s.ctx, s.cancel = nil, nil
	s.seen = nil
}

// unseen marks items as sent and returns the ones that were not.
func (s *preloadState) unseen(items []any) []any {
	if s.seen == nil {
		s.seen = make(map[any]struct{}, len(items))
	}
	var out []any
	for _, item := range items {
		if _, ok := s.seen[item]; ok {
			continue
		}
		s.seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func (s *preloadState) push(d preloadDone) {
	s.mu.Lock()
	s.done = append(s.done, d)
	s.mu.Unlock()
}

func (s *preloadState) take() []preloadDone {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.done
	s.done = nil
	return out
}

// visibleItems returns the roots and every descendant reachable through
// expanded nodes, in paint order. These are the items the next paint can
// show.
func (v *Viewer) visibleItems() ([]any, error) {
	roots, err := v.content.Roots(v.input)
	if err != nil {
		return nil, fmt.Errorf("arbor: roots: %w", err)
	}
	var out []any
	var walk func(items []any, depth int) error
	walk = func(items []any, depth int) error {
		for _, item := range items {
			out = append(out, item)
			if !v.IsExpanded(item) || depth+1 >= v.opts.MaxDepth {
				continue
			}
			children, err := v.content.Children(item)
			if err != nil {
				return fmt.Errorf("arbor: children of %v: %w", item, err)
			}
			if err := walk(children, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(roots, 0); err != nil {
		return nil, err
	}
	return out, nil
}

// preloadAll runs Preload for every item with at most workers in flight.
func preloadAll(ctx context.Context, cells CellRendererProvider, items []any, workers int) LoadResult {
	var loaded atomic.Bool
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, item := range items {
		g.Go(func() error {
			if cells.Preload(gctx, item) == ResourcesLoaded {
				loaded.Store(true)
			}
			return nil
		})
	}
	_ = g.Wait()
	if loaded.Load() {
		return ResourcesLoaded
	}
	return NothingLoaded
}

// Preload fetches resources for every currently visible item and blocks
// until all have resolved. Hosts that want the first paint of a new input to
// show loaded thumbnails call it between SetInput and Repaint.
func (v *Viewer) Preload(ctx context.Context) (LoadResult, error) {
	if v.State() == StateEmpty {
		return NothingLoaded, nil
	}
	items, err := v.visibleItems()
	if err != nil {
		return NothingLoaded, err
	}
	return preloadAll(ctx, v.cells, items, v.opts.PreloadWorkers), nil
}

// StartPreload fetches resources for the visible items in the background.
// When any resource loads and the input has not changed since, the next
// Update repaints once. A previous background preload is cancelled.
//
// Repaint calls preloadNewItems afterwards, so rows that appear later
// through expansion, filtering or Reveal are fetched as well.
func (v *Viewer) StartPreload() {
	if v.State() == StateEmpty {
		return
	}
	items, err := v.visibleItems()
	if err != nil {
		v.warnf("preload: %v", err)
		return
	}
	v.preload.reset()
	v.launchPreload(v.preload.unseen(items))
}

// preloadNewItems starts a background preload for painted rows that no
// preload has been asked about since the last input change.
func (v *Viewer) preloadNewItems() {
	if v.cells == nil {
		return
	}
	items := make([]any, len(v.items))
	for i, it := range v.items {
		items[i] = it.Item
	}
	if fresh := v.preload.unseen(items); len(fresh) > 0 {
		v.launchPreload(fresh)
	}
}

// launchPreload runs preloadAll for items on a worker goroutine, tagged with
// the current input generation.
func (v *Viewer) launchPreload(items []any) {
	if len(items) == 0 {
		return
	}
	if v.preload.ctx == nil {
		v.preload.ctx, v.preload.cancel = context.WithCancel(context.Background())
	}
	ctx := v.preload.ctx
	gen := v.inputGen
	cells := v.cells
	workers := v.opts.PreloadWorkers
	v.preload.wg.Add(1)
	go func() {
		defer v.preload.wg.Done()
		v.preload.push(preloadDone{gen: gen, result: preloadAll(ctx, cells, items, workers)})
	}()
}

// WaitPreloads blocks until every background preload has finished. Results
// are still applied by the next Update.
func (v *Viewer) WaitPreloads() {
	v.preload.wg.Wait()
}

// drainPreloads consumes finished preloads and reports whether one of them,
// started for the current input, loaded something.
func (v *Viewer) drainPreloads() bool {
	dirty := false
	for _, d := range v.preload.take() {
		if d.gen != v.inputGen {
			continue
		}
		if d.result == ResourcesLoaded {
			dirty = true
		}
	}
	return dirty
}
