package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/aretw0/noats/pkg/core"
	"github.com/aretw0/noats/pkg/hotkey"
)

// ErrLoopStopped is returned when work is posted to a loop that has exited.
var ErrLoopStopped = errors.New("session loop stopped")

// Loop is the logic thread. It serialises posted work, hotkey triggers,
// external-change notifications and the controller's timers.
type Loop struct {
	ctrl     *Controller
	clock    clockwork.Clock
	logger   *slog.Logger
	bridge   hotkey.Bridge
	external <-chan core.Event

	posts chan func()
	done  chan struct{}
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithBridge feeds hotkey triggers into the loop.
func WithBridge(b hotkey.Bridge) LoopOption {
	return func(l *Loop) {
		l.bridge = b
	}
}

// WithExternalChanges reloads the session whenever events arrives on ch.
func WithExternalChanges(ch <-chan core.Event) LoopOption {
	return func(l *Loop) {
		l.external = ch
	}
}

func NewLoop(ctrl *Controller, opts ...LoopOption) *Loop {
	l := &Loop{
		ctrl:   ctrl,
		clock:  ctrl.clock,
		logger: ctrl.logger,
		posts:  make(chan func(), 16),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post schedules fn on the logic thread. It blocks while the queue is full.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.done:
		return ErrLoopStopped
	default:
	}
	select {
	case l.posts <- fn:
		return nil
	case <-l.done:
		return ErrLoopStopped
	}
}

// Call runs fn on the logic thread and waits for it to return.
func (l *Loop) Call(ctx context.Context, fn func(*Controller)) error {
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		fn(l.ctrl)
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drives the session until ctx is done, then shuts the controller down,
// waiting for pending saves.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	var triggers <-chan hotkey.Trigger
	if l.bridge != nil {
		triggers = l.bridge.Triggers()
	}
	external := l.external

	for {
		l.ctrl.Tick(l.clock.Now())

		var timer clockwork.Timer
		var timeout <-chan time.Time
		if due, ok := l.ctrl.NextDeadline(); ok {
			d := due.Sub(l.clock.Now())
			if d <= 0 {
				continue
			}
			timer = l.clock.NewTimer(d)
			timeout = timer.Chan()
		}

		select {
		case <-ctx.Done():
			stopTimer(timer)
			return l.ctrl.Shutdown(context.WithoutCancel(ctx))

		case fn := <-l.posts:
			fn()

		case t, ok := <-triggers:
			if !ok {
				triggers = nil
				break
			}
			l.dispatch(ctx, t)

		case e, ok := <-external:
			if !ok {
				external = nil
				break
			}
			l.logger.Info("state changed on disk, reloading", "event", e.String())
			l.ctrl.ReloadFromDisk(ctx)

		case <-timeout:
		}
		stopTimer(timer)
	}
}

func (l *Loop) dispatch(ctx context.Context, t hotkey.Trigger) {
	l.logger.Debug("trigger", "action", t.String())
	switch t {
	case hotkey.TriggerCreate:
		l.ctrl.CreateNew()
	case hotkey.TriggerHideAll:
		l.ctrl.HideAll()
	case hotkey.TriggerShowAll:
		l.ctrl.ShowAll()
	case hotkey.TriggerReload:
		l.ctrl.ReloadFromDisk(ctx)
	default:
		l.logger.Warn("unknown trigger", "trigger", int(t))
	}
}

func stopTimer(t clockwork.Timer) {
	if t != nil {
		t.Stop()
	}
}
