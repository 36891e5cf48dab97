package settings

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/Carmen-Shannon/glace/common"
	"github.com/Carmen-Shannon/glace/engine/world"
	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a settings file whenever it changes on disk. Reloads are decoded on the
// watcher goroutine and handed to the render goroutine through System.
type Watcher struct {
	path     string
	debounce time.Duration
	fs       *fsnotify.Watcher

	mu      sync.Mutex
	pending *Settings
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewWatcher starts watching path. The parent directory is watched so that editors which
// replace the file on save are still seen.
//
// Parameters:
//   - path: the settings file
//   - options: builder options
//
// Returns:
//   - *Watcher: the running watcher
//   - error: error if the directory cannot be watched
func NewWatcher(path string, options ...WatcherBuilderOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch settings: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch settings: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch settings: %w", err)
	}
	w := &Watcher{
		path:     abs,
		debounce: 100 * time.Millisecond,
		fs:       fw,
		done:     make(chan struct{}),
	}
	for _, opt := range options {
		opt(w)
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer w.wg.Done()
	var timer <-chan time.Time
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			timer = time.After(w.debounce)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			common.Logger().Warn("settings watcher error", "error", err)
		case <-timer:
			timer = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	s, err := Load(w.path)
	if err != nil {
		common.Logger().Error("settings reload failed", "path", w.path, "error", err)
		return
	}
	common.Logger().Info("settings reloaded", "path", w.path)
	w.mu.Lock()
	w.pending = &s
	w.mu.Unlock()
}

// Take returns the most recent reload not yet taken.
func (w *Watcher) Take() (Settings, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending == nil {
		return Settings{}, false
	}
	s := *w.pending
	w.pending = nil
	return s, true
}

// System returns the PreUpdate system that stores a pending reload as the Settings resource.
func (w *Watcher) System() func(*world.World) {
	return func(wld *world.World) {
		if s, ok := w.Take(); ok {
			world.SetResource(wld, s)
		}
	}
}

// Close stops the watcher goroutine.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.fs.Close()
	w.wg.Wait()
	return err
}
