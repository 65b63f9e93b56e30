package kbengine

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/labstack/gommon/log"
)

// watchDebounce collapses bursts of events from one save.
const watchDebounce = 300 * time.Millisecond

// CorpusWatcher reloads the corpus when its JSON file changes. The parent
// directory is watched so editors that replace the file on save are seen.
type CorpusWatcher struct {
	path    string
	reload  func(context.Context) bool
	logger  *log.Logger
	watcher *fsnotify.Watcher
}

// NewCorpusWatcher starts watching path. Run delivers the events.
func NewCorpusWatcher(path string, reload func(context.Context) bool, logger *log.Logger) (*CorpusWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}
	return &CorpusWatcher{path: abs, reload: reload, logger: logger, watcher: w}, nil
}

// Run handles events until ctx is canceled or the watcher is closed.
func (cw *CorpusWatcher) Run(ctx context.Context) {
	cw.logger.Infof("watching %s for changes", cw.path)
	debounce := time.NewTimer(time.Hour)
	debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if !cw.relevant(ev) {
				continue
			}
			debounce.Reset(watchDebounce)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Warnf("watcher error: %v", err)
		case <-debounce.C:
			reloadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			if cw.reload(reloadCtx) {
				cw.logger.Infof("corpus reloaded after change to %s", filepath.Base(cw.path))
			}
			cancel()
		}
	}
}

func (cw *CorpusWatcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != cw.path {
		return false
	}
	return ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// Close stops watching.
func (cw *CorpusWatcher) Close() error {
	return cw.watcher.Close()
}
