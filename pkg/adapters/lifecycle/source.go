// Package lifecycle exposes memento event streams as lifecycle sources.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/memento/pkg/core"
	"github.com/aretw0/memento/pkg/router"
)

type source[E lifecycle.Event] struct {
	events <-chan E
	out    chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that emits store change events.
func NewSource(events <-chan core.Event) lifecycle.Source {
	return newSource(events)
}

// NewNotificationSource creates a lifecycle.Source that emits notification
// events, such as the deliveries of a reminder dispatcher.
func NewNotificationSource(events <-chan router.Event) lifecycle.Source {
	return newSource(events)
}

func newSource[E lifecycle.Event](events <-chan E) *source[E] {
	return &source[E]{
		events: events,
		out:    make(chan lifecycle.Event),
	}
}

func (s *source[E]) Events() <-chan lifecycle.Event {
	return s.out
}

// Start forwards events until the input closes or ctx is done, then closes
// the output. The bridge runs as a tracked lifecycle goroutine.
func (s *source[E]) Start(ctx context.Context) error {
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
