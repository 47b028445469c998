// Package watcher reruns a callback when a recipe file changes
package watcher

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher watches one file and coalesces rapid event bursts into a
// single callback
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func()
}

// New creates a watcher for path. debounce controls how long to wait
// out the burst of events editors emit on save.
func New(path string, debounce time.Duration, onChange func()) *Watcher {
	return &Watcher{path: path, debounce: debounce, onChange: onChange}
}

// Run watches until the context is cancelled
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	// Watch the directory, editors replace files on save and a watch
	// on the file itself would be lost with the old inode
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	logrus.Infof("Watching %s", w.path)

	base := filepath.Base(w.path)
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logrus.Debugf("Change detected: %s (%s)", event.Name, event.Op)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logrus.Warnf("Watch error: %v", err)
		case <-timerC:
			timer = nil
			timerC = nil
			w.onChange()
		}
	}
}
