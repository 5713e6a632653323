package fsprovider

import (
	"context"
	"errors"
	"path"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceDuration is how long the watcher waits for a burst of file
// events to settle before reporting it.
const DefaultDebounceDuration = 150 * time.Millisecond

// ErrWatcherClosed is returned by Close when the watcher already stopped.
var ErrWatcherClosed = errors.New("fsprovider: watcher closed")

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounceDuration sets the debounce duration.
func WithDebounceDuration(d time.Duration) WatchOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithOnChange sets the callback invoked with the directories that saw
// file events once a burst settles. It runs on the watcher goroutine;
// hosts forward the directories to the UI goroutine and pass them to
// Provider.RefreshAll there.
func WithOnChange(fn func(dirs []string)) WatchOption {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// WithOnError sets the callback invoked on watch errors.
func WithOnError(fn func(error)) WatchOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// Watcher follows every directory the provider has listed and reports
// the ones that change on disk.
type Watcher struct {
	p        *Provider
	debounce time.Duration
	onChange func(dirs []string)
	onError  func(error)

	fsw    *fsnotify.Watcher
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	pending map[string]bool
	closed  bool
}

// Watch starts watching the provider's listed directories, and every
// directory listed from now on, until ctx is done or Close is called.
func (p *Provider) Watch(ctx context.Context, opts ...WatchOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		p:        p,
		debounce: DefaultDebounceDuration,
		onChange: func([]string) {},
		onError:  func(error) {},
		fsw:      fsw,
		cancel:   cancel,
		done:     make(chan struct{}),
		pending:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}

	p.mu.Lock()
	p.onList = w.add
	p.mu.Unlock()
	w.add(".")
	for _, dir := range p.Listed() {
		w.add(dir)
	}

	go w.run(ctx)
	return w, nil
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	w.closed = true
	w.mu.Unlock()

	w.cancel()
	<-w.done
	return nil
}

// add starts watching dir (a provider-relative path).
func (w *Watcher) add(dir string) {
	if err := w.fsw.Add(filepath.Join(w.p.root, filepath.FromSlash(dir))); err != nil {
		w.onError(err)
	}
}

// rel converts an absolute event path to the provider-relative directory
// whose listing it affects.
func (w *Watcher) rel(name string) (string, bool) {
	r, err := filepath.Rel(w.p.root, name)
	if err != nil || r == ".." || len(r) > 2 && r[:3] == ".."+string(filepath.Separator) {
		return "", false
	}
	return path.Dir(filepath.ToSlash(r)), true
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	defer func() {
		w.p.mu.Lock()
		w.p.onList = nil
		w.p.mu.Unlock()
		w.fsw.Close()
	}()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			dir, ok := w.rel(event.Name)
			if !ok {
				continue
			}
			w.mu.Lock()
			w.pending[dir] = true
			w.mu.Unlock()
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.onError(err)

		case <-fire:
			fire = nil
			w.flush()
		}
	}
}

// flush reports the directories that saw events since the last flush.
func (w *Watcher) flush() {
	w.mu.Lock()
	dirs := make([]string, 0, len(w.pending))
	for dir := range w.pending {
		dirs = append(dirs, dir)
	}
	clear(w.pending)
	w.mu.Unlock()
	if len(dirs) == 0 {
		return
	}
	sort.Strings(dirs)
	w.onChange(dirs)
}
