// file: internal/watcher/watcher.go
// version: 2.1.0
// guid: c3d4e5f6-a7b8-4901-cdef-345678901234

// Package watcher monitors the backup drop folder. A backup file copied in
// (from another machine, a phone sync, a cron job) is handed to the import
// callback once writes to it settle.
package watcher

import (
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the default settle period. Backup files can be large
// and arrive through slow copies, so each file gets its own timer that
// resets on every write.
const DefaultDebounce = 3 * time.Second

// Callback is invoked with the path of a settled backup file.
type Callback func(path string)

// Watcher monitors one directory (non-recursive) for dropped backup files.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	dir       string
	debounce  time.Duration
	callback  Callback
	stop      chan struct{}
	stopped   chan struct{}
	mu        sync.Mutex
	timers    map[string]*time.Timer
	running   bool
}

// New creates a Watcher. Pass 0 for debounce to use DefaultDebounce.
func New(callback Callback, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		debounce: debounce,
		callback: callback,
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
		timers:   make(map[string]*time.Timer),
	}
}

// Start begins watching dir. It is safe to call only once.
func (w *Watcher) Start(dir string) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return err
	}
	w.fsWatcher = fsw
	w.dir = dir

	go w.eventLoop()
	log.Printf("watcher: watching %s for backup drops", dir)
	return nil
}

// Stop gracefully shuts down the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stop)
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
	}
	<-w.stopped

	w.mu.Lock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()
}

func (w *Watcher) eventLoop() {
	defer close(w.stopped)

	for {
		select {
		case <-w.stop:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Printf("[ERROR] watcher: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	if !IsBackupFile(event.Name) {
		return
	}
	w.scheduleImport(event.Name)
}

// scheduleImport arms (or re-arms) the settle timer for one file.
func (w *Watcher) scheduleImport(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Reset(w.debounce)
		return
	}

	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		log.Printf("watcher: backup file settled: %s", path)
		if w.callback != nil {
			w.callback(path)
		}
	})
}

// IsBackupFile reports whether name looks like an exported backup.
func IsBackupFile(name string) bool {
	base := strings.ToLower(filepath.Base(name))
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.HasSuffix(base, ".json")
}
