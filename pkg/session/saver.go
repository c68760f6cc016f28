package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/noats/pkg/core"
)

// Saver runs store writes off the logic thread, one at a time. A write that
// is queued behind an in-flight one is replaced by any newer submission, and
// every caller waiting on it receives the result of the write that ran.
type Saver struct {
	store    core.Store
	logger   *slog.Logger
	onResult func(error)

	mu      sync.Mutex
	pending *saveJob
	busy    bool
	closed  bool
	writes  int

	wake chan struct{}
	done chan struct{}
}

// SaverOption configures a Saver.
type SaverOption func(*Saver)

// WithResultHook registers fn to run on the writer goroutine after every write.
func WithResultHook(fn func(error)) SaverOption {
	return func(s *Saver) {
		s.onResult = fn
	}
}

type saveJob struct {
	state   core.AppState
	waiters []chan error
}

// NewSaver starts the background writer. Writes are not cancelled by ctx
// being done; Close decides when the writer exits.
func NewSaver(ctx context.Context, store core.Store, logger *slog.Logger, opts ...SaverOption) *Saver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Saver{
		store:  store,
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	runCtx := context.WithoutCancel(ctx)
	lifecycle.Go(runCtx, s.run, lifecycle.WithErrorHandler(func(err error) {
		s.logger.Error("saver panic", "error", err)
	}))
	return s
}

// Submit queues state for writing. The returned channel receives exactly one
// value: nil or the error of the write that persisted state (or a newer one).
func (s *Saver) Submit(state core.AppState) <-chan error {
	result := make(chan error, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		result <- core.ErrSaverClosed
		return result
	}
	if s.pending == nil {
		s.pending = &saveJob{}
	}
	s.pending.state = state
	s.pending.waiters = append(s.pending.waiters, result)
	s.mu.Unlock()

	s.signal()
	return result
}

// Close stops accepting work, lets queued writes finish and waits for the
// writer to exit or ctx to be done.
func (s *Saver) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.signal()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Idle reports whether nothing is queued or being written.
func (s *Saver) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending == nil && !s.busy
}

// Writes returns how many writes have completed.
func (s *Saver) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *Saver) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Saver) run(ctx context.Context) error {
	defer close(s.done)
	for range s.wake {
		for {
			job, closed := s.take()
			if job == nil {
				if closed {
					return nil
				}
				break
			}
			s.write(ctx, job)
		}
	}
	return nil
}

func (s *Saver) take() (*saveJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := s.pending
	s.pending = nil
	s.busy = job != nil
	return job, s.closed
}

func (s *Saver) write(ctx context.Context, job *saveJob) {
	err := s.store.Save(ctx, job.state)
	if err != nil {
		s.logger.Error("save failed", "error", err)
	} else {
		s.logger.Debug("state saved", "widgets", len(job.state.Widgets))
	}

	s.mu.Lock()
	s.busy = false
	s.writes++
	s.mu.Unlock()

	if s.onResult != nil {
		s.onResult(err)
	}
	for _, w := range job.waiters {
		w <- err
	}
}
