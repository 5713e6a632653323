// Package fsprovider serves a directory tree to an arbor viewer.
//
// Items are *Entry values interned by path, so the same file is the same
// item across repaints and across re-listings after a change on disk.
package fsprovider

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
)

// ErrNotEntry is returned when the viewer passes an item that did not come
// from this provider.
var ErrNotEntry = errors.New("fsprovider: item is not an *Entry")

// Entry is one file or directory.
type Entry struct {
	Path    string // slash-separated, relative to the provider root; "." for the root
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// String returns the entry name, so fmt-based labels work.
func (e *Entry) String() string { return e.Name }

// Ext returns the lower-case file extension without the dot.
func (e *Entry) Ext() string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(e.Name)), ".")
}

type listing struct {
	children []any
	digest   uint64
}

// Provider implements arbor.ContentProvider and arbor.LabelProvider over a
// directory. Listings are cached until Invalidate or Refresh.
//
// Refresh updates the size and time of interned entries, so call it on the
// goroutine that paints. The listing cache itself is locked, which lets a
// Watcher register directories from its own goroutine.
type Provider struct {
	// ShowHidden includes names starting with a dot.
	ShowHidden bool

	root string
	fsys fs.FS

	mu       sync.Mutex
	entries  map[string]*Entry
	listings map[string]listing
	onList   func(dir string) // called after a directory is first listed
}

// New serves the directory at root.
func New(root string) (*Provider, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("fsprovider: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("fsprovider: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fsprovider: %s is not a directory", abs)
	}
	p := &Provider{
		root:     abs,
		fsys:     os.DirFS(abs),
		entries:  make(map[string]*Entry),
		listings: make(map[string]listing),
	}
	p.entries["."] = &Entry{Path: ".", Name: filepath.Base(abs), IsDir: true, ModTime: info.ModTime()}
	return p, nil
}

// Dir returns the absolute root directory.
func (p *Provider) Dir() string { return p.root }

// Root returns the root entry, the usual viewer input.
func (p *Provider) Root() *Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.entries["."]
}

// Lookup returns the interned entry for a slash path relative to the root.
func (p *Provider) Lookup(rel string) (*Entry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[path.Clean(rel)]
	return e, ok
}

// AbsPath returns the filesystem path of e.
func (p *Provider) AbsPath(e *Entry) string {
	return filepath.Join(p.root, filepath.FromSlash(e.Path))
}

// Roots implements arbor.ContentProvider. The input is a directory *Entry;
// its children are the roots.
func (p *Provider) Roots(input any) ([]any, error) {
	return p.Children(input)
}

// Children implements arbor.ContentProvider. Directories come first, then
// files, each sorted case-insensitively.
func (p *Provider) Children(item any) ([]any, error) {
	e, ok := item.(*Entry)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotEntry, item)
	}
	if !e.IsDir {
		return nil, nil
	}

	p.mu.Lock()
	if l, ok := p.listings[e.Path]; ok {
		p.mu.Unlock()
		return l.children, nil
	}
	p.mu.Unlock()

	l, err := p.list(e.Path)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.listings[e.Path] = l
	onList := p.onList
	p.mu.Unlock()
	if onList != nil {
		onList(e.Path)
	}
	return l.children, nil
}

// list reads dir and interns its entries. The digest covers names, kinds,
// sizes and modification times.
func (p *Provider) list(dir string) (listing, error) {
	des, err := fs.ReadDir(p.fsys, dir)
	if err != nil {
		return listing{}, fmt.Errorf("fsprovider: list %s: %w", dir, err)
	}

	infos := make([]fs.FileInfo, 0, len(des))
	for _, de := range des {
		if !p.ShowHidden && strings.HasPrefix(de.Name(), ".") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].IsDir() != infos[j].IsDir() {
			return infos[i].IsDir()
		}
		return strings.ToLower(infos[i].Name()) < strings.ToLower(infos[j].Name())
	})

	h := xxhash.New()
	children := make([]any, 0, len(infos))
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, info := range infos {
		rel := path.Join(dir, info.Name())
		e, ok := p.entries[rel]
		if !ok {
			e = &Entry{Path: rel, Name: info.Name()}
			p.entries[rel] = e
		}
		e.IsDir = info.IsDir()
		e.Size = info.Size()
		e.ModTime = info.ModTime()
		children = append(children, e)
		_, _ = fmt.Fprintf(h, "%s\x00%t\x00%d\x00%d\n", e.Name, e.IsDir, e.Size, e.ModTime.UnixNano())
	}
	return listing{children: children, digest: h.Sum64()}, nil
}

// Invalidate drops the cached listing of dir. Entries stay interned.
func (p *Provider) Invalidate(dir string) {
	p.mu.Lock()
	delete(p.listings, path.Clean(dir))
	p.mu.Unlock()
}

// InvalidateAll drops every cached listing.
func (p *Provider) InvalidateAll() {
	p.mu.Lock()
	clear(p.listings)
	p.mu.Unlock()
}

// Refresh re-lists a previously listed directory and reports whether
// anything in it changed. Directories never listed are left alone.
func (p *Provider) Refresh(dir string) (bool, error) {
	dir = path.Clean(dir)
	p.mu.Lock()
	old, ok := p.listings[dir]
	p.mu.Unlock()
	if !ok {
		return false, nil
	}
	l, err := p.list(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			p.Invalidate(dir)
			return true, nil
		}
		return false, err
	}
	p.mu.Lock()
	p.listings[dir] = l
	p.mu.Unlock()
	return l.digest != old.digest, nil
}

// RefreshAll refreshes dirs and returns the ones whose listing changed.
// Errors are collected; the remaining directories are still refreshed.
func (p *Provider) RefreshAll(dirs []string) ([]string, error) {
	var changed []string
	var errs []error
	for _, dir := range dirs {
		ok, err := p.Refresh(dir)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			changed = append(changed, dir)
		}
	}
	return changed, errors.Join(errs...)
}

// Listed returns the directories whose listing is cached.
func (p *Provider) Listed() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.listings))
	for dir := range p.listings {
		out = append(out, dir)
	}
	sort.Strings(out)
	return out
}

// --- Labels and keys ---

// Label implements arbor.LabelProvider.
func (p *Provider) Label(item any) string {
	if e, ok := item.(*Entry); ok {
		return e.Name
	}
	return fmt.Sprint(item)
}

// SizeLabel returns the name with a human readable size for files, e.g.
// "ship.png (12 kB)".
func SizeLabel(item any) string {
	e, ok := item.(*Entry)
	if !ok {
		return fmt.Sprint(item)
	}
	if e.IsDir {
		return e.Name
	}
	return fmt.Sprintf("%s (%s)", e.Name, humanize.Bytes(uint64(e.Size)))
}

// Key is an arbor.KeyFunc that keys entries by path.
func Key(item any) string {
	if e, ok := item.(*Entry); ok {
		return e.Path
	}
	return ""
}

// Kind returns "dir" for directories and the extension for files, for
// arbor.KindCellRendererProvider.
func Kind(item any) string {
	e, ok := item.(*Entry)
	if !ok {
		return ""
	}
	if e.IsDir {
		return "dir"
	}
	return e.Ext()
}

var imageExts = map[string]bool{"png": true, "jpg": true, "jpeg": true, "bmp": true, "webp": true, "gif": true}

// ImageKey returns the entry path for image files and "" otherwise. Pair it
// with arbor.DirLoader(p.Dir()) to load thumbnails.
func ImageKey(item any) string {
	e, ok := item.(*Entry)
	if !ok || e.IsDir || !imageExts[e.Ext()] {
		return ""
	}
	return e.Path
}
