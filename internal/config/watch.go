package config

import (
	"os"
	"sync"
	"time"

	"github.com/xtding233/binomial-theory/internal/theory"
)

// FileWatcher polls file modification times and triggers a callback on change.
type FileWatcher struct {
	Paths     []string
	Interval  time.Duration
	onChange  func(string) // called with path that changed
	stopCh    chan struct{}
	stopOnce  sync.Once
	lastMTime map[string]time.Time
}

// NewFileWatcher creates a watcher for given paths and interval.
func NewFileWatcher(paths []string, interval time.Duration, onChange func(string)) *FileWatcher {
	return &FileWatcher{
		Paths:     paths,
		Interval:  interval,
		onChange:  onChange,
		stopCh:    make(chan struct{}),
		lastMTime: make(map[string]time.Time),
	}
}

// WatchVariant reloads variant whenever one of its files changes and hands
// the freshly resolved config, or the reason it was rejected, to onReload.
// The caller starts and stops the returned watcher.
func WatchVariant(l *Loader, variant string, interval time.Duration, onReload func(theory.Config, error)) *FileWatcher {
	return NewFileWatcher(l.Paths().Files(variant), interval, func(string) {
		l.Invalidate()
		_, cfg, err := l.Resolve(variant)
		onReload(cfg, err)
	})
}

// Start begins polling in a goroutine.
func (w *FileWatcher) Start() {
	ticker := time.NewTicker(w.Interval)
	go func() {
		defer ticker.Stop()
		// prime cache
		w.scanAll(true)
		for {
			select {
			case <-ticker.C:
				w.scanAll(false)
			case <-w.stopCh:
				return
			}
		}
	}()
}

// Stop terminates the watcher. It is safe to call more than once.
func (w *FileWatcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

// scanAll checks mtimes and invokes onChange for files that changed since last scan.
func (w *FileWatcher) scanAll(prime bool) {
	for _, p := range w.Paths {
		fi, err := os.Stat(p)
		if err != nil {
			// a missing variant file is legal; pick it up once it appears
			continue
		}
		mt := fi.ModTime()
		last, ok := w.lastMTime[p]
		if !ok {
			w.lastMTime[p] = mt
			if !prime && w.onChange != nil {
				w.onChange(p)
			}
			continue
		}
		if mt.After(last) {
			w.lastMTime[p] = mt
			if !prime && w.onChange != nil {
				w.onChange(p)
			}
		}
	}
}
