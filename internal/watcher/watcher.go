// Package watcher watches a source tree for changes and hands the
// changed files to a re-index pass in debounced batches.
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"xtags/internal/errors"
	"xtags/internal/logging"
)

// Event is one observed file system change.
type Event struct {
	Path      string
	Timestamp time.Time
}

// BatchHandler receives the files changed during one quiet period,
// relative to the watched root, deduplicated and sorted.
type BatchHandler func(paths []string)

// Config controls debouncing and the directory names excluded from
// watching.
type Config struct {
	DebounceMs int
	IgnoreDirs []string
}

// Watcher recursively watches a tree with fsnotify and emits change
// batches once the tree has been quiet for the debounce interval.
type Watcher struct {
	root     string
	debounce time.Duration
	logger   *logging.Logger
	handler  BatchHandler
	fw       *fsnotify.Watcher
	batch    *BatchDebouncer
	ignore   map[string]bool

	done    chan struct{}
	stopped bool
	mu      sync.Mutex
	wg      sync.WaitGroup
}

// New creates a watcher over root. The handler runs on the watcher's
// timer goroutine and must not call back into the watcher.
func New(root string, config Config, logger *logging.Logger, handler BatchHandler) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.NewXtagsError(errors.InputUnreadable,
			fmt.Sprintf("cannot resolve watch root %s", root), err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.NewXtagsError(errors.InternalError, "cannot create file watcher", err)
	}

	ignore := make(map[string]bool, len(config.IgnoreDirs))
	for _, dir := range config.IgnoreDirs {
		ignore[dir] = true
	}

	debounce := time.Duration(config.DebounceMs) * time.Millisecond
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}

	w := &Watcher{
		root:     abs,
		debounce: debounce,
		logger:   logger,
		handler:  handler,
		fw:       fw,
		ignore:   ignore,
		done:     make(chan struct{}),
	}
	w.batch = NewBatchDebouncer(debounce, w.emit)
	return w, nil
}

// Start registers every directory under the root and begins delivering
// batches.
func (w *Watcher) Start() error {
	err := filepath.Walk(w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip inaccessible paths
		}
		if !info.IsDir() {
			return nil
		}
		if path != w.root && w.ignore[info.Name()] {
			return filepath.SkipDir
		}
		return w.fw.Add(path)
	})
	if err != nil {
		_ = w.fw.Close()
		return errors.NewXtagsError(errors.InputUnreadable,
			fmt.Sprintf("cannot watch %s", w.root), err)
	}

	w.logger.Info("Watching for changes", map[string]interface{}{
		"root":       w.root,
		"debounceMs": int(w.debounce / time.Millisecond),
	})

	w.wg.Add(1)
	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.dispatch(event)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watcher error", map[string]interface{}{
				"error": err.Error(),
			})
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) dispatch(event fsnotify.Event) {
	path := event.Name

	// New directories join the watch set so their contents are seen.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !w.ignored(path) {
				_ = w.fw.Add(path)
			}
			return
		}
	}

	if w.ignored(path) {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	w.batch.Add(Event{Path: path, Timestamp: time.Now()})
}

// emit is the debouncer callback. It relativizes, deduplicates and
// sorts the batch before handing it over.
func (w *Watcher) emit(events []Event) {
	seen := make(map[string]bool)
	var paths []string
	for _, ev := range events {
		path := ev.Path
		if rel, err := filepath.Rel(w.root, path); err == nil && !strings.HasPrefix(rel, "..") {
			path = rel
		}
		if !seen[path] {
			seen[path] = true
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)

	w.logger.Debug("Change batch ready", map[string]interface{}{
		"files": len(paths),
	})
	if w.handler != nil {
		w.handler(paths)
	}
}

func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = path
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if w.ignore[part] {
			return true
		}
	}
	return false
}

// Flush emits any pending batch immediately.
func (w *Watcher) Flush() {
	w.batch.Flush()
}

// Stop ends monitoring and releases all resources. Safe to call more
// than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	close(w.done)
	w.mu.Unlock()

	err := w.fw.Close()
	w.wg.Wait()
	w.batch.Cancel()

	w.logger.Info("File watcher stopped", nil)
	return err
}
