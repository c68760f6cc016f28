// Package lifecycle exposes session events as a lifecycle.Source so they can
// be consumed next to other lifecycle-managed components.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/noats/pkg/core"
)

type sessionSource struct {
	events <-chan core.Event
	out    chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that re-emits session events.
func NewSource(events <-chan core.Event) lifecycle.Source {
	return &sessionSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
}

func (s *sessionSource) Events() <-chan lifecycle.Event {
	return s.out
}

// Start forwards events until the session closes its channel or ctx is done.
// The output channel is closed afterwards.
func (s *sessionSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
