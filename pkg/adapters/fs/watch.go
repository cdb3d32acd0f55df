package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/memento/pkg/core"
	"github.com/aretw0/memento/pkg/debounce"
)

// watchDebounce coalesces the burst of events a single atomic replace produces.
const watchDebounce = 50 * time.Millisecond

// Watch emits an event for every key matching pattern that is changed by
// another process. Writes made through this Store are recognised and skipped.
// The returned channel is closed once ctx is cancelled.
func (s *Store) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = "*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", pattern)
	}

	events := make(chan core.Event, 16)
	w := newWatchWorker(s, pattern, events)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

type watchWorker struct {
	*worker.BaseWorker
	store   *Store
	pattern string
	events  chan core.Event
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc

	mu      sync.Mutex
	timers  map[string]*debounce.Debouncer
	done    chan struct{}
	stopped bool
}

func newWatchWorker(store *Store, pattern string, events chan core.Event) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("fs-watcher"),
		store:      store,
		pattern:    pattern,
		events:     events,
		timers:     make(map[string]*debounce.Debouncer),
		done:       make(chan struct{}),
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(w.store.Path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.store.Path, err)
	}

	w.watcher = watcher
	w.store.setWatcherActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}
	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
		}
	})
}

func (w *watchWorker) run(ctx context.Context) (err error) {
	logger := w.store.config.Logger
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				logger.Error("watcher panic", "error", err)
			}
		}
	}()
	defer w.shutdown()
	defer w.store.setWatcherActive(false)
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.handle(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			logger.Error("fsnotify error", "error", wErr)
			if w.store.config.ErrorHandler != nil {
				w.store.config.ErrorHandler(wErr)
			}
		}
	}
}

// handle filters, maps and debounces a single filesystem event.
func (w *watchWorker) handle(ctx context.Context, event fsnotify.Event) {
	key, ok := keyFromName(event.Name)
	if !ok {
		return
	}
	if match, _ := doublestar.Match(w.pattern, key); !match {
		return
	}

	var eType core.EventType
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		eType = core.EventDelete
	case event.Has(fsnotify.Create):
		eType = core.EventCreate
	case event.Has(fsnotify.Write):
		eType = core.EventModify
	default:
		return
	}

	if eType != core.EventDelete {
		data, err := os.ReadFile(event.Name)
		if err != nil {
			// Replaced again before we could read it; the next event covers it.
			return
		}
		if w.store.isEcho(key, data) {
			w.store.config.Logger.Debug("ignoring own write", "key", key)
			return
		}
	}

	e := core.Event{Type: eType, Key: key, Timestamp: time.Now().Unix()}

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	d, ok := w.timers[key]
	if !ok {
		d = debounce.New(watchDebounce, nil)
		w.timers[key] = d
	}
	w.mu.Unlock()

	d.Trigger(func() { w.send(ctx, e) })
}

func (w *watchWorker) send(ctx context.Context, e core.Event) {
	select {
	case <-w.done:
		return
	default:
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	select {
	case w.events <- e:
	case <-ctx.Done():
	case <-w.done:
	}
}

// shutdown drops pending events and closes the outgoing channel exactly once.
func (w *watchWorker) shutdown() {
	close(w.done)

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, d := range w.timers {
		d.Stop()
	}
	w.stopped = true
	close(w.events)
}
