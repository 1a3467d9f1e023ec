package merge

import (
	"context"

	"github.com/nhle/listmailer/internal/model"
)

// Run is a handle on a merge running in the background.
type Run struct {
	events chan Progress
	done   chan struct{}
	cancel context.CancelFunc

	report Report
	err    error
}

// StartAsync runs Send on a new goroutine. The Events channel is closed
// when the run ends; the caller must drain it, call Wait, or Cancel.
func (e *Engine) StartAsync(
	ctx context.Context,
	tpl model.Template,
	m model.FieldMapping,
	records []model.Record,
) *Run {
	ctx, cancel := context.WithCancel(ctx)
	r := &Run{
		events: make(chan Progress, 16),
		done:   make(chan struct{}),
		cancel: cancel,
	}

	go func() {
		defer close(r.done)
		defer close(r.events)
		defer cancel()

		r.report, r.err = e.Send(ctx, tpl, m, records, func(p Progress) {
			select {
			case r.events <- p:
			case <-ctx.Done():
			}
		})
	}()

	return r
}

// Events returns the progress stream.
func (r *Run) Events() <-chan Progress {
	return r.events
}

// Done is closed once the run has stopped.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Cancel stops the run after the record in flight.
func (r *Run) Cancel() {
	r.cancel()
}

// Wait drains remaining events and returns the final report.
func (r *Run) Wait() (Report, error) {
	for range r.events {
	}
	<-r.done
	return r.report, r.err
}

// Result returns the final report once Done is closed.
func (r *Run) Result() (Report, error) {
	select {
	case <-r.done:
		return r.report, r.err
	default:
		return Report{}, nil
	}
}
