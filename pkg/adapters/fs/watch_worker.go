package fs

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/noats/pkg/core"
)

const watchDebounce = 50 * time.Millisecond

// Watch starts a worker that reports changes to the primary state file made
// by anything other than this store. The channel closes once ctx is done.
func (s *Store) Watch(ctx context.Context) (<-chan core.Event, error) {
	if err := s.ensureDir(); err != nil {
		return nil, err
	}
	events := make(chan core.Event)
	w := newWatchWorker(s, events)
	w.closeEvents = true
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

var _ core.Watchable = (*Store)(nil)

type watchWorker struct {
	*worker.BaseWorker
	store     *Store
	events    chan core.Event
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cancel    context.CancelFunc
	lastSeen  [sha256.Size]byte

	// closeEvents is set when the worker owns the channel. Supervised
	// workers share one channel across restarts and leave it open.
	closeEvents bool
}

func newWatchWorker(store *Store, events chan core.Event) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("state-watcher"),
		store:      store,
		events:     events,
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
	if err := watcher.Add(w.store.Dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.store.Dir, err)
	}

	w.watcher = watcher
	w.debouncer = newDebouncer(w.store.config.Clock, watchDebounce)
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

// processFilesystemEvent filters events down to writes of the primary file
// and schedules a debounced content check.
func (w *watchWorker) processFilesystemEvent(ctx context.Context, event fsnotify.Event) bool {
	w.store.config.Logger.Debug("event received", "name", event.Name)

	if filepath.Base(event.Name) != filepath.Base(w.store.StatePath()) {
		return false
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}

	w.debouncer.add(event.Name, func() {
		w.checkContent(ctx)
	})
	return true
}

// checkContent emits an external-change event when the primary file holds
// bytes the store neither wrote nor loaded, and that were not reported yet.
func (w *watchWorker) checkContent(ctx context.Context) {
	data, err := os.ReadFile(w.store.StatePath())
	if err != nil {
		return
	}
	if w.store.isOwnWrite(data) {
		return
	}
	digest := sha256.Sum256(data)
	if digest == w.lastSeen {
		return
	}
	w.lastSeen = digest

	w.sendEvent(ctx, core.Event{
		Type:      core.EventExternal,
		Timestamp: w.store.config.Clock.Now().Unix(),
	})
}

func (w *watchWorker) sendEvent(ctx context.Context, event core.Event) {
	select {
	case w.events <- event:
	case <-ctx.Done():
	}
}

// handleWatcherError processes errors from the fsnotify watcher.
func (w *watchWorker) handleWatcherError(err error) {
	w.store.config.Logger.Error("fsnotify error", "error", err)
	if w.store.config.ErrorHandler != nil {
		w.store.config.ErrorHandler(err)
	}
}

// run is the main event loop for the watcher worker.
func (w *watchWorker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			panicErr := fmt.Errorf("watcher panic: %v", recovered)
			if w.store.config.Logger.Enabled(ctx, slog.LevelDebug) {
				w.store.config.Logger.Error("watcher panic", "error", panicErr, "stack", string(debug.Stack()))
			} else {
				w.store.config.Logger.Error("watcher panic", "error", panicErr)
			}
			err = panicErr
		}
	}()
	defer w.store.setWatcherActive(false)
	defer w.watcher.Close()

	err = w.mainEventLoop(ctx)

	// No callback may run once the events channel is closed.
	w.debouncer.stopAndWait(5 * time.Second)
	if w.closeEvents {
		close(w.events)
	}

	return err
}

func (w *watchWorker) mainEventLoop(ctx context.Context) error {
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
			w.processFilesystemEvent(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.handleWatcherError(wErr)
		}
	}
}
