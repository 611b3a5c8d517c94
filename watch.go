package overlay

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports when image files used by the scene change on disk. Events
// are collected on a background goroutine and handed out by Changed, so the
// scene itself is only touched from the host loop.
type Watcher struct {
	fs *fsnotify.Watcher

	mu      sync.Mutex
	files   map[string]bool
	dirs    map[string]bool
	pending map[string]bool
	done    chan struct{}
}

// NewWatcher starts an fsnotify watcher.
func NewWatcher() (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fs:      fw,
		files:   make(map[string]bool),
		dirs:    make(map[string]bool),
		pending: make(map[string]bool),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Sync sets the watched files to paths. Directories are watched rather
// than files so editors that replace files on save are still seen.
func (w *Watcher) Sync(paths []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	clear(w.files)
	want := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		w.files[abs] = true
		want[filepath.Dir(abs)] = true
	}
	for dir := range w.dirs {
		if !want[dir] {
			_ = w.fs.Remove(dir)
			delete(w.dirs, dir)
		}
	}
	for dir := range want {
		if w.dirs[dir] {
			continue
		}
		if err := w.fs.Add(dir); err != nil {
			logger().WithField("dir", dir).WithError(err).Warn("watch failed")
			continue
		}
		w.dirs[dir] = true
	}
}

// Changed returns the watched files modified since the previous call.
func (w *Watcher) Changed() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		return nil
	}
	out := make([]string, 0, len(w.pending))
	for p := range w.pending {
		out = append(out, p)
	}
	clear(w.pending)
	return out
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	err := w.fs.Close()
	<-w.done
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			w.mu.Lock()
			if w.files[ev.Name] {
				w.pending[ev.Name] = true
			}
			w.mu.Unlock()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logger().WithError(err).Warn("file watcher")
		}
	}
}
