package ingestcmder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/papercomputeco/medrag/pkg/cliui"
	"github.com/papercomputeco/medrag/pkg/ingest"
	"github.com/papercomputeco/medrag/pkg/runstate"
)

const defaultDebounce = 2 * time.Second

// watchedSubdirs are the raw subdirectories ingest discovers files in.
var watchedSubdirs = []string{"text", "images", "audio"}

func watchDirs(rawDir string) []string {
	dirs := make([]string, 0, len(watchedSubdirs))
	for _, sub := range watchedSubdirs {
		dirs = append(dirs, filepath.Join(rawDir, sub))
	}
	return dirs
}

// relevant reports whether ev can change what ingest collects. Hidden files
// and editor swap files are ignored, as are chmod-only events.
func relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") || strings.HasSuffix(name, ".swp") {
		return false
	}
	return true
}

// watchLoop ingests once, then again after every quiet period following a
// change. Runs never overlap: changes seen during a run schedule the next one.
func (c *ingestCommander) watchLoop(ctx context.Context, coord *ingest.Coordinator, rs *runstate.Manager) error {
	if err := c.ingestOnce(ctx, coord, rs); err != nil {
		c.logger.Error("initial ingestion failed", "error", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating raw directory watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range watchDirs(c.cfg.Ingest.RawDir) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	fmt.Fprintf(c.out, "  %s %s\n\n",
		cliui.DimStyle.Render("Watching"),
		cliui.ValueStyle.Render(c.cfg.Ingest.RawDir+" (ctrl+c to stop)"),
	)

	return debounceLoop(ctx, watcher.Events, watcher.Errors, c.debounce, func(ev fsnotify.Event) {
		c.logger.Debug("raw directory changed", "path", ev.Name, "op", ev.Op.String())
	}, func() {
		if err := c.ingestOnce(ctx, coord, rs); err != nil {
			c.logger.Error("ingestion failed", "error", err)
		}
	})
}

// debounceLoop calls run once events have been quiet for the debounce
// period. run executes on the calling goroutine, so calls are serialized.
// It returns nil when ctx is done and an error when the watcher fails.
func debounceLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, debounce time.Duration, seen func(fsnotify.Event), run func()) error {
	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			seen(ev)
			timer.Reset(debounce)

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			return fmt.Errorf("raw directory watcher: %w", err)

		case <-timer.C:
			run()
		}
	}
}
