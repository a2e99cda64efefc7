package config

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/golang/glog"
)

const watchDebounce = 250 * time.Millisecond

// Watcher reloads the configuration file when it changes on disk.
// Editors tend to fire several events per save, so reloads are
// debounced.
type Watcher struct {
	mu       sync.Mutex
	path     string
	fw       *fsnotify.Watcher
	timer    *time.Timer
	onChange func(*Config)
	done     chan struct{}
	closed   bool
}

// Watch starts watching path and invokes onChange with the freshly
// loaded configuration after each change. onChange runs on the
// watcher goroutine.
func Watch(path string, onChange func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, err
	}
	w := &Watcher{
		path:     path,
		fw:       fw,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.fw.Close()
	close(w.done)
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.schedule()
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			glog.Warningf("config watch: %v", err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(watchDebounce, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		glog.Errorf("config reload: %v", err)
		return
	}
	glog.V(2).Infof("config reloaded from %s", w.path)
	w.onChange(cfg)
}
