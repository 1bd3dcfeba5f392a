package convert

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the burst of events an editor save produces.
const watchDebounce = 250 * time.Millisecond

// Watch runs the conversion once, then again every time the input file
// changes, until ctx is done. Each run's outcome goes to onResult; failed
// runs do not stop the watch. Runs never overlap.
func (c *Converter) Watch(ctx context.Context, opts Options, onResult func(*Result, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating fsnotify watcher: %w", err)
	}
	defer watcher.Close() //nolint:errcheck

	input, err := filepath.Abs(opts.Input)
	if err != nil {
		return fmt.Errorf("unable to get absolute path: %w", err)
	}
	// editors often replace the file, so watch its directory
	dir := filepath.Dir(input)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("error adding dir to fsnotify watcher: %w", err)
	}
	log.Info("Watching for changes", "file", opts.Input)

	run := func() {
		res, err := c.Run(ctx, opts)
		if ctx.Err() == nil {
			onResult(res, err)
		}
	}
	run()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != input || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)) {
				continue
			}
			log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			log.Info("Subtitles changed, converting again", "file", opts.Input)
			run()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Debug("fsnotify error", "dir", dir, "error", err)
		}
	}
}
