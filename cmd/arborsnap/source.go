package main

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/phanxgames/arbor"
	"github.com/phanxgames/arbor/fsprovider"
	"github.com/phanxgames/arbor/outline"
)

// options are the settings shared by the snapshot and view commands.
type options struct {
	Filter    string
	Fuzzy     bool
	ExpandAll bool
	Reveal    []string
	Theme     string
	Grid      bool
	Hidden    bool
	Sizes     bool
	Thumbs    bool
	State     string
	SaveState string

	// snapshot only
	Format string
	Out    string
	Width  int
	Height int
	Script string
}

// source is an opened tree: a directory or a scene file.
type source struct {
	input   any
	content arbor.ContentProvider
	labels  arbor.LabelProvider
	cells   arbor.CellRendererProvider
	images  *arbor.ImageCache
	key     arbor.KeyFunc
	resolve func(key string) (any, bool)

	dir *fsprovider.Provider // nil for scenes
}

// openSource opens p as a scene when it names a .json file and as a
// directory otherwise.
func openSource(p string, opts options) (*source, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() && strings.EqualFold(filepath.Ext(p), ".json") {
		return openScene(p, opts)
	}
	return openDir(p, opts)
}

func openDir(p string, opts options) (*source, error) {
	dir, err := fsprovider.New(p)
	if err != nil {
		return nil, err
	}
	dir.ShowHidden = opts.Hidden

	src := &source{
		input:   dir.Root(),
		content: dir,
		labels:  dir,
		key:     fsprovider.Key,
		dir:     dir,
		resolve: func(key string) (any, bool) { return resolveEntry(dir, key) },
	}
	if opts.Sizes {
		src.labels = arbor.LabelFunc(fsprovider.SizeLabel)
	}
	if opts.Thumbs {
		src.images = arbor.NewImageCache(arbor.DirLoader(dir.Dir()))
		icons := &arbor.IconLabelCellRenderer{Images: src.images, IconKey: fsprovider.ImageKey}
		src.cells = &arbor.KindCellRendererProvider{
			Kind: fsprovider.Kind,
			Renderers: map[string]arbor.CellRenderer{
				"png": icons, "jpg": icons, "jpeg": icons, "bmp": icons, "webp": icons, "gif": icons,
			},
			Images:   src.images,
			ImageKey: fsprovider.ImageKey,
		}
	} else {
		src.cells = arbor.NewStaticCells(&arbor.LabelCellRenderer{})
	}
	return src, nil
}

func openScene(p string, opts options) (*source, error) {
	scene, err := outline.LoadFile(p)
	if err != nil {
		return nil, err
	}
	src := &source{
		input:   scene,
		content: outline.Content{},
		labels:  outline.Content{},
		key:     outline.Key,
		resolve: func(key string) (any, bool) {
			o, ok := scene.Find(key)
			return o, ok
		},
	}
	if opts.Thumbs {
		src.images = arbor.NewImageCache(outline.TextureLoader(filepath.Dir(p)))
	}
	src.cells = outline.NewCells(src.images)
	return src, nil
}

// resolveEntry lists the directories along rel and returns its entry.
func resolveEntry(dir *fsprovider.Provider, rel string) (any, bool) {
	rel = path.Clean(filepath.ToSlash(rel))
	var item any = dir.Root()
	if rel == "." {
		return item, true
	}
	for _, name := range strings.Split(rel, "/") {
		children, err := dir.Children(item)
		if err != nil {
			return nil, false
		}
		found := false
		for _, child := range children {
			if child.(*fsprovider.Entry).Name == name {
				item, found = child, true
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	return item, true
}

// newViewer builds a viewer over src configured by opts. Restored state is
// applied before --expand-all and --filter, so flags win.
func newViewer(src *source, opts options) (*arbor.Viewer, error) {
	vo := arbor.ViewerOptions{Images: src.images, Logf: logrusLogf}
	if opts.Theme != "" {
		th, err := arbor.LoadThemeFile(opts.Theme)
		if err != nil {
			return nil, err
		}
		vo.Theme = arbor.StaticTheme{T: th}
	}
	if opts.Grid {
		vo.Layout = &arbor.GridLayout{}
	}
	if opts.Fuzzy {
		vo.Matcher = arbor.FuzzyMatcher{}
	}

	v := arbor.NewViewer(vo)
	v.SetDebugMode(log.IsLevelEnabled(log.DebugLevel))
	v.SetContentProvider(src.content)
	v.SetLabelProvider(src.labels)
	v.SetCellRendererProvider(src.cells)
	v.SetInput(src.input)

	if opts.State != "" {
		st, err := arbor.LoadStateFile(opts.State)
		if err != nil {
			return nil, err
		}
		if err := v.Restore(st, src.key); err != nil {
			return nil, err
		}
	}
	if opts.ExpandAll {
		roots, err := src.content.Roots(src.input)
		if err != nil {
			return nil, err
		}
		for _, root := range roots {
			v.SetExpanded(root, false)
			if err := v.ExpandCollapseBranch(root); err != nil {
				return nil, err
			}
		}
	}
	return v, nil
}

// applyView sets the filter and reveals the requested keys. The viewer must
// have a surface.
func applyView(v *arbor.Viewer, src *source, opts options) error {
	if opts.Filter != "" {
		if err := v.SetFilterText(opts.Filter); err != nil {
			return err
		}
	}
	if len(opts.Reveal) == 0 {
		return nil
	}
	var items []any
	for _, key := range opts.Reveal {
		item, ok := src.resolve(key)
		if !ok {
			log.Warnf("reveal: %s not found", key)
			continue
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil
	}
	v.SetSelection(items...)
	return v.Reveal(items...)
}

// logrusLogf routes viewer output through logrus: warnings at warn level,
// paint statistics at debug level.
func logrusLogf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if rest, ok := strings.CutPrefix(msg, "[arbor] warning: "); ok {
		log.Warn(rest)
		return
	}
	log.Debug(strings.TrimPrefix(msg, "[arbor] "))
}
