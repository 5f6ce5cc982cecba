package problems

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"labta/internal/logging"
)

// Watcher hot-reloads the catalog when the backing file is rewritten.
type Watcher struct {
	catalog     *Catalog
	watcher     *fsnotify.Watcher
	debounceDur time.Duration
}

// NewWatcher creates a watcher over the catalog's backing file. The parent
// directory is watched because editors and atomic writers replace the file.
func NewWatcher(catalog *Catalog) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(catalog.path)); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{
		catalog:     catalog,
		watcher:     fw,
		debounceDur: 500 * time.Millisecond, // Debounce rapid saves
	}, nil
}

// Run blocks until ctx is done, reloading the catalog on write events.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	target := filepath.Base(w.catalog.path)
	var lastReload time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if time.Since(lastReload) < w.debounceDur {
				continue
			}
			lastReload = time.Now()
			if err := w.catalog.Reload(); err != nil {
				logging.BootError("problem catalog reload failed: %v", err)
			} else {
				logging.Boot("problem catalog reloaded (%d problems)", w.catalog.Count())
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.BootError("problem catalog watcher: %v", err)
		}
	}
}
