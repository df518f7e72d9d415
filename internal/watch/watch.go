// Package watch reports external modifications to the file being
// edited, so a driver can invalidate the chunk cache before serving
// stale bytes.
//
// The editing core is single-threaded and never polls; the watcher runs
// its own goroutine and hands filtered events to the owner over a
// channel. Consuming the events and calling InvalidateChunks stays the
// driver's responsibility.
package watch

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"hexed/internal/logging"
)

// Watcher watches one file for writes, truncations, removals and
// renames.
type Watcher struct {
	fw     *fsnotify.Watcher
	path   string
	events chan fsnotify.Op
	logger *slog.Logger
}

// New starts watching path. The watch is placed on the parent directory
// so rename-over (the common editor save strategy) is seen too.
func New(path string, logger *slog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		fw:     fw,
		path:   abs,
		events: make(chan fsnotify.Op, 16),
		logger: logging.Default(logger).With("component", "watch", "path", abs),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.events)
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if ev.Name != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			select {
			case w.events <- ev.Op:
			default:
				// A slow consumer only needs to know the file changed
				// at all; dropping coalesced events is fine.
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// Events delivers the operations seen on the watched file. The channel
// closes when the watcher is closed.
func (w *Watcher) Events() <-chan fsnotify.Op {
	return w.events
}

// Close stops watching and closes the event channel.
func (w *Watcher) Close() error {
	return w.fw.Close()
}
