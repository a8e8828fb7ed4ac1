package workspace

import (
	"log"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes a project's on-disk workspace for out-of-band
// changes (an editor outside the generation loop, a package manager
// rewriting lockfiles) and reports them on Events.
type Watcher struct {
	fsw    *fsnotify.Watcher
	Events chan fsnotify.Event
	done   chan struct{}
}

// Watch starts watching the root directory itself; its subdirectories
// are not added. Callers must call Close when done.
func Watch(root string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(root); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{fsw: fsw, Events: make(chan fsnotify.Event, 64), done: make(chan struct{})}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				close(w.Events)
				return
			}
			select {
			case w.Events <- ev:
			default:
				log.Printf("[workspace] watcher event dropped, consumer too slow: %s", ev.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("[workspace] watcher error: %v", err)
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher and releases its underlying file descriptors.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
