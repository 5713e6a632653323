package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/phanxgames/arbor"
	"github.com/phanxgames/arbor/ggsurface"
	"github.com/phanxgames/arbor/svgsurface"
	"github.com/phanxgames/arbor/tcellsurface"
)

const (
	termCellWidth  = 8
	termCellHeight = 20
)

// target is a surface that can be written out once painted.
type target interface {
	arbor.Surface
	write(w io.Writer) (int64, error)
	close()
}

type pngTarget struct{ *ggsurface.Surface }

func (t pngTarget) write(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	if err := t.EncodePNG(&buf); err != nil {
		return 0, err
	}
	return buf.WriteTo(w)
}

func (pngTarget) close() {}

type svgTarget struct{ *svgsurface.Surface }

func (t svgTarget) write(w io.Writer) (int64, error) { return t.WriteTo(w) }

func (svgTarget) close() {}

// termTarget paints into an off-screen terminal and dumps its characters.
type termTarget struct {
	*tcellsurface.Surface
	screen tcell.SimulationScreen
}

func newTermTarget(w, h int) (*termTarget, error) {
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.SetSize(max(w/termCellWidth, 1), max(h/termCellHeight, 1))
	s := tcellsurface.New(screen)
	s.CellWidth, s.CellHeight = termCellWidth, termCellHeight
	return &termTarget{Surface: s, screen: screen}, nil
}

func (t *termTarget) write(w io.Writer) (int64, error) {
	cols, rows := t.screen.Size()
	var b strings.Builder
	for y := 0; y < rows; y++ {
		var line strings.Builder
		for x := 0; x < cols; {
			r, _, _, width := t.screen.GetContent(x, y)
			if r == 0 {
				r = ' '
			}
			line.WriteRune(r)
			x += max(width, 1)
		}
		b.WriteString(strings.TrimRight(line.String(), " "))
		b.WriteByte('\n')
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

func (t *termTarget) close() { t.screen.Fini() }

func newTarget(format string, w, h int) (target, error) {
	switch strings.ToLower(format) {
	case "png":
		return pngTarget{ggsurface.New(w, h)}, nil
	case "svg":
		return svgTarget{svgsurface.New(w, h)}, nil
	case "term", "text":
		return newTermTarget(w, h)
	}
	return nil, fmt.Errorf("unknown format %q (want png, svg or term)", format)
}

// result summarizes a written snapshot.
type result struct {
	Rows   int
	Height float64
	Bytes  int64
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	opts := loadOptions()
	res, err := snapshot(argPath(args), opts, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	dest := opts.Out
	if dest == "" {
		dest = "stdout"
	}
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %d rows, %gpx, %s\n",
		green("wrote"), dest, res.Rows, res.Height, humanize.Bytes(uint64(res.Bytes)))
	return nil
}

// snapshot renders the tree at p and writes it to opts.Out, or to stdout
// when Out is empty.
func snapshot(p string, opts options, stdout io.Writer) (result, error) {
	src, err := openSource(p, opts)
	if err != nil {
		return result{}, err
	}
	v, err := newViewer(src, opts)
	if err != nil {
		return result{}, err
	}

	width := max(opts.Width, 1)
	height := opts.Height
	if height <= 0 {
		height = 1
	}
	t, err := newTarget(opts.Format, width, height)
	if err != nil {
		return result{}, err
	}
	defer func() { t.close() }()

	v.SetSurface(t)
	if err := applyView(v, src, opts); err != nil {
		return result{}, err
	}
	if src.images != nil {
		if _, err := v.Preload(context.Background()); err != nil {
			return result{}, err
		}
	}
	if err := v.Repaint(); err != nil {
		return result{}, err
	}
	if opts.Script != "" {
		if err := runScript(v, opts.Script); err != nil {
			return result{}, err
		}
	}

	// Content height does not depend on the viewport, so a fitted snapshot
	// is a second paint onto a surface that tall.
	if opts.Height <= 0 {
		fit := max(int(math.Ceil(v.ContentHeight())), 1)
		fitted, err := newTarget(opts.Format, width, fit)
		if err != nil {
			return result{}, err
		}
		t.close()
		t = fitted
		v.SetSurface(t)
		v.SetScrollY(0)
		if err := v.Repaint(); err != nil {
			return result{}, err
		}
	}
	log.Debugf("painted %d rows, content height %g", len(v.PaintItems()), v.ContentHeight())

	var w io.Writer = stdout
	if opts.Out != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Out), 0o755); err != nil {
			return result{}, err
		}
		f, err := os.Create(opts.Out)
		if err != nil {
			return result{}, err
		}
		defer f.Close()
		w = f
	}
	n, err := t.write(w)
	if err != nil {
		return result{}, fmt.Errorf("write snapshot: %w", err)
	}

	if opts.SaveState != "" {
		if err := arbor.SaveStateFile(opts.SaveState, v.Snapshot(src.key)); err != nil {
			return result{}, err
		}
	}
	return result{Rows: len(v.PaintItems()), Height: v.ContentHeight(), Bytes: n}, nil
}

// runScript replays the input script at path. Animated scrolls run to
// completion at 60 frames per second.
func runScript(v *arbor.Viewer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	s, err := arbor.LoadScript(data)
	if err != nil {
		return err
	}
	s.OnSnapshot = func(label string) error {
		log.WithField("rows", len(v.PaintItems())).Infof("script checkpoint %s", label)
		return nil
	}
	if err := s.Run(v, 1.0/60); err != nil {
		return err
	}
	for v.Scrolling() {
		if err := v.Update(1.0 / 60); err != nil {
			return err
		}
	}
	return nil
}

// loadOptions reads the merged flag, env and config values.
func loadOptions() options {
	return options{
		Filter:    viper.GetString("filter"),
		Fuzzy:     viper.GetBool("fuzzy"),
		ExpandAll: viper.GetBool("expand-all"),
		Reveal:    viper.GetStringSlice("reveal"),
		Theme:     viper.GetString("theme"),
		Grid:      viper.GetBool("grid"),
		Hidden:    viper.GetBool("hidden"),
		Sizes:     viper.GetBool("sizes"),
		Thumbs:    viper.GetBool("thumbs"),
		State:     viper.GetString("state"),
		SaveState: viper.GetString("save-state"),
		Format:    viper.GetString("format"),
		Out:       viper.GetString("out"),
		Width:     viper.GetInt("width"),
		Height:    viper.GetInt("height"),
		Script:    viper.GetString("script"),
	}
}

func argPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
