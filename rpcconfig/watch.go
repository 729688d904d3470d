// file: rpcconfig/watch.go
package rpcconfig

import (
	"github.com/fsnotify/fsnotify"

	"github.com/dkoosis/jsonrpcx/logging"
)

// Watcher reloads Config from its source file whenever it changes on disk,
// applies the reloaded log level through logging.SetLevel, and passes the
// whole reloaded Config to the onApply callback. It applies no other setting
// itself; structural settings (Separator, Framing, Discovery) are not
// compared with their previous values or logged.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	onLevel func(Config)
	done    chan struct{}
}

// Watch starts watching path for changes, invoking onApply with each
// successfully reloaded and validated Config. Call Close to stop.
func Watch(path string, onApply func(Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(path); err != nil {
		_ = fw.Close()
		return nil, err
	}

	w := &Watcher{path: path, watcher: fw, onLevel: onApply, done: make(chan struct{})}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("config watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		log.Warn("config reload failed, keeping previous configuration", "path", w.path, "error", err)
		return
	}
	logging.SetLevel(cfg.SlogLevel())
	if w.onLevel != nil {
		w.onLevel(cfg)
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
