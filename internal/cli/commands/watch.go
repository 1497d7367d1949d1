package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"

	"igtdoc/internal/discovery"
)

const watchOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// Watch runs the command, then runs it again from scratch whenever the
// config or a source file changes, until ctx is done. Failed runs are
// reported and watching continues.
func (dc *DocCommand) Watch(ctx context.Context, out, errOut io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Close()

	ws := newWatchSet()
	run := func() {
		inputs, err := dc.Run(ctx, out, errOut)
		if err != nil {
			fmt.Fprintf(errOut, "%s %v\n", color.RedString("Error:"), err)
		}
		if len(inputs) == 0 {
			// The plan could not be read; keep watching it.
			inputs = []string{dc.config.Flags.ConfigFile}
		}
		for _, dir := range ws.update(inputs) {
			if err := watcher.Add(dir); err != nil {
				fmt.Fprintf(errOut, "%s cannot watch %s: %v\n", color.YellowString("Warning:"), dir, err)
			}
		}
	}

	run()
	fmt.Fprintln(errOut, color.CyanString("Watching %d directories for changes", len(ws.dirs)))

	debounce := dc.config.WatchDebounce
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(watchOps) || !ws.relevant(ev.Name) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(errOut, "%s %v\n", color.YellowString("Warning:"), err)
		case <-fire:
			fire = nil
			fmt.Fprintln(errOut, color.CyanString("Change detected, re-running"))
			run()
		}
	}
}

// watchSet tracks the files an invocation read and the directories holding them.
type watchSet struct {
	files map[string]bool
	dirs  map[string]bool
}

func newWatchSet() *watchSet {
	return &watchSet{files: make(map[string]bool), dirs: make(map[string]bool)}
}

// update replaces the tracked files and returns directories not watched yet.
func (ws *watchSet) update(inputs []string) []string {
	ws.files = make(map[string]bool, len(inputs))
	var added []string
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			continue
		}
		ws.files[abs] = true
		dir := filepath.Dir(abs)
		if !ws.dirs[dir] {
			ws.dirs[dir] = true
			added = append(added, dir)
		}
	}
	return added
}

// relevant reports whether a change to name can affect the output: a file
// the last run read, or a new source file in a watched directory.
func (ws *watchSet) relevant(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	if ws.files[abs] {
		return true
	}
	for _, ext := range discovery.DefaultExtensions {
		if filepath.Ext(abs) == ext {
			return true
		}
	}
	return false
}
