package fs

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/supervisor"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/noats/pkg/core"
)

// A supervised watcher whose fsnotify handle dies is replaced by a fresh
// worker sharing the same events channel.
func TestWatcherSupervisorRestarts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewStore(Config{Dir: t.TempDir()})
	require.NoError(t, store.Initialize(ctx))

	events := make(chan core.Event)
	workers := make(chan *watchWorker, 2)

	sup := supervisor.New("noats-watch", supervisor.StrategyOneForOne, supervisor.Spec{
		Name: "state-file",
		Type: string(worker.TypeGoroutine),
		Factory: func() (worker.Worker, error) {
			w := newWatchWorker(store, events)
			workers <- w
			return w, nil
		},
		Backoff: supervisor.Backoff{
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     50 * time.Millisecond,
			Multiplier:      1,
			ResetDuration:   50 * time.Millisecond,
			MaxRestarts:     2,
			MaxDuration:     200 * time.Millisecond,
		},
		RestartPolicy: supervisor.RestartOnFailure,
	})
	require.NoError(t, sup.Start(ctx))

	first := nextWorker(t, workers)
	requireWatcherActive(t, store, true)

	require.Eventually(t, func() bool { return first.watcher != nil }, 2*time.Second, 10*time.Millisecond)
	_ = first.watcher.Close()

	second := nextWorker(t, workers)
	require.NotSame(t, first, second, "supervisor must build a new worker")
	requireWatcherActive(t, store, true)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	require.NoError(t, sup.Stop(stopCtx))
	requireWatcherActive(t, store, false)
}

func nextWorker(t *testing.T, ch <-chan *watchWorker) *watchWorker {
	t.Helper()
	select {
	case w := <-ch:
		return w
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not start a worker")
		return nil
	}
}

func requireWatcherActive(t *testing.T, store *Store, want bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		state, ok := store.State().(StoreState)
		return ok && state.WatcherActive == want
	}, 2*time.Second, 10*time.Millisecond, "watcher active = %v", want)
}
