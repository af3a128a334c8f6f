package events

import (
	"context"
	"errors"
	"sync"
)

// Publisher delivers room events to an audience.
type Publisher interface {
	Publish(ctx context.Context, event DraftEvent) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, event DraftEvent) error

func (f PublisherFunc) Publish(ctx context.Context, event DraftEvent) error {
	return f(ctx, event)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, DraftEvent) error { return nil }

// Fanout publishes to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event DraftEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []DraftEvent
}

func (r *Recorder) Publish(_ context.Context, event DraftEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []DraftEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]DraftEvent, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the recorded events of type t.
func (r *Recorder) OfType(t EventType) []DraftEvent {
	var out []DraftEvent
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
