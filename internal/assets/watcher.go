package assets

import (
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to a set of files. Parent directories are watched instead of the files themselves, so
// that editors replacing a file (write to temp + rename) are still noticed.
type Watcher struct {
	fs      *fsnotify.Watcher
	mu      sync.RWMutex
	files   map[string]struct{}
	dirs    map[string]struct{}
	changes chan string
	done    chan struct{}
}

// NewWatcher starts watching (initially nothing). Close it when done.
func NewWatcher() (*Watcher, error) {
	fs, err := newFsWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fs:      fs,
		files:   map[string]struct{}{},
		dirs:    map[string]struct{}{},
		changes: make(chan string, 16),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Add starts reporting changes to path.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.dirs[dir]; !ok {
		if err = w.fs.Add(dir); err != nil {
			return err
		}
		w.dirs[dir] = struct{}{}
	}
	w.files[abs] = struct{}{}
	return nil
}

// Changes receives the absolute path of each modified file. Events are dropped if nobody is reading.
func (w *Watcher) Changes() <-chan string {
	return w.changes
}

// Close stops watching and closes Changes.
func (w *Watcher) Close() error {
	err := w.fs.Close()
	<-w.done
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	defer close(w.changes)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			path := filepath.Clean(ev.Name)
			w.mu.RLock()
			_, watched := w.files[path]
			w.mu.RUnlock()
			if !watched {
				continue
			}
			select {
			case w.changes <- path:
			default:
				log.Println("[Watcher] Dropped change event for", path)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.Println("[Watcher] Error:", err)
		}
	}
}
