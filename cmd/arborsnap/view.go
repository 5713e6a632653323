package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/gdamore/tcell/v2"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/phanxgames/arbor"
	"github.com/phanxgames/arbor/fsprovider"
	"github.com/phanxgames/arbor/tcellsurface"
)

var viewCmd = &cobra.Command{
	Use:   "view [PATH]",
	Short: "Browse the tree in the terminal",
	Long: `view opens the tree in the terminal. Arrow keys move and expand, typing
filters, Esc clears the filter and then quits. Directories are watched and
the tree follows changes on disk. The keys of the selected items are printed
on exit, so view doubles as a picker.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runView,
}

func runView(cmd *cobra.Command, args []string) error {
	opts := loadOptions()
	src, err := openSource(argPath(args), opts)
	if err != nil {
		return err
	}
	v, err := newViewer(src, opts)
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	s := tcellsurface.New(screen)
	v.SetSurface(s)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = browse(ctx, v, s, src, opts)
	screen.Fini()
	if err != nil {
		return err
	}

	if opts.SaveState != "" {
		if err := arbor.SaveStateFile(opts.SaveState, v.Snapshot(src.key)); err != nil {
			return err
		}
	}
	for _, item := range v.Selection() {
		fmt.Fprintln(cmd.OutOrStdout(), src.key(item))
	}
	return nil
}

// browse runs the terminal loop, refreshing the tree when a watched
// directory changes.
func browse(ctx context.Context, v *arbor.Viewer, s *tcellsurface.Surface, src *source, opts options) error {
	if err := applyView(v, src, opts); err != nil {
		return err
	}
	if src.dir != nil {
		w, err := src.dir.Watch(ctx,
			fsprovider.WithOnChange(func(dirs []string) {
				// Entries are interned, so expansion and selection survive
				// the refreshed listings and a repaint is enough.
				err := tcellsurface.Post(s, func() error {
					changed, err := src.dir.RefreshAll(dirs)
					if err != nil {
						log.Warnf("refresh: %v", err)
					}
					if len(changed) == 0 {
						return nil
					}
					log.Debugf("changed: %v", changed)
					return v.Repaint()
				})
				if err != nil {
					log.Warnf("post refresh: %v", err)
				}
			}),
			fsprovider.WithOnError(func(err error) {
				log.Warnf("watch: %v", err)
			}),
		)
		if err != nil {
			log.Warnf("watch %s: %v", src.dir.Dir(), err)
		} else {
			defer w.Close()
		}
	}
	return tcellsurface.Run(ctx, v, s)
}
