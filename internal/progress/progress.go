// Package progress runs a cosmetic, time-driven progress counter as a
// cancellable background task that publishes its ticks on a channel.
package progress

import (
	"context"
	"time"
)

// DefaultPhaseDuration is the wall-clock length of each CSV phase.
const DefaultPhaseDuration = 1500 * time.Millisecond

// Phase counts from From to To (inclusive of To) in steps of one, spreading
// the ticks evenly over Duration.
type Phase struct {
	Label    string
	From     int
	To       int
	Duration time.Duration
}

// Event is published for every tick.
type Event struct {
	// Phase is the index of the phase that produced the event.
	Phase   int
	Label   string
	Percent int
}

// CSVPhases returns the two phases shown while an import is filtered.
func CSVPhases(d time.Duration) []Phase {
	if d <= 0 {
		d = DefaultPhaseDuration
	}
	return []Phase{
		{Label: "Filtering duplicates...", From: 0, To: 50, Duration: d},
		{Label: "Filtering blocked emails...", From: 50, To: 100, Duration: d},
	}
}

type options struct {
	buffer int
}

// Option customizes Run.
type Option func(*options)

// WithBuffer sets the capacity of the events channel.
func WithBuffer(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.buffer = n
		}
	}
}

// Task is a handle on a running progress counter.
type Task struct {
	events chan Event
	done   chan struct{}
	cancel context.CancelFunc
	err    error
}

// Run starts the phases in order on a new goroutine. The returned Task's
// Events channel is closed when the last phase finishes or the task is
// cancelled; the caller must drain it, call Wait, or Cancel.
func Run(ctx context.Context, phases []Phase, opts ...Option) *Task {
	o := options{buffer: 16}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		events: make(chan Event, o.buffer),
		done:   make(chan struct{}),
		cancel: cancel,
	}

	go t.run(ctx, phases)
	return t
}

// Events returns the tick stream.
func (t *Task) Events() <-chan Event {
	return t.events
}

// Done is closed once the task has stopped.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Cancel stops the task. It is safe to call more than once and after the
// task has finished.
func (t *Task) Cancel() {
	t.cancel()
}

// Wait drains any remaining events and blocks until the task stops. It
// returns nil when every phase completed, or the context error otherwise.
func (t *Task) Wait() error {
	for range t.events {
	}
	<-t.done
	return t.err
}

// Err returns the terminal error once Done is closed.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

func (t *Task) run(ctx context.Context, phases []Phase) {
	defer close(t.done)
	defer close(t.events)
	defer t.cancel()

	for i, p := range phases {
		if err := t.runPhase(ctx, i, p); err != nil {
			t.err = err
			return
		}
	}
}

func (t *Task) runPhase(ctx context.Context, idx int, p Phase) error {
	steps := p.To - p.From
	if steps <= 0 {
		return t.publish(ctx, Event{Phase: idx, Label: p.Label, Percent: p.To})
	}

	interval := p.Duration / time.Duration(steps)
	if interval <= 0 {
		for cur := p.From + 1; cur <= p.To; cur++ {
			if err := t.publish(ctx, Event{Phase: idx, Label: p.Label, Percent: cur}); err != nil {
				return err
			}
		}
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for cur := p.From; cur < p.To; {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			cur++
			if err := t.publish(ctx, Event{Phase: idx, Label: p.Label, Percent: cur}); err != nil {
				return err
			}
		}
	}
	return nil
}

// publish blocks until the event is accepted or the task is cancelled.
func (t *Task) publish(ctx context.Context, ev Event) error {
	select {
	case t.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
