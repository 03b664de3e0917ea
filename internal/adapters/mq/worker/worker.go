// Package worker runs the single consumer that turns pending year
// selections into published chart frames.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/beeline/internal/adapters/mq/queue"
	"github.com/okian/beeline/pkg/logger"
)

// Event abstracts what workers read off the queue.
type Event = queue.Event

// Handler recomputes and publishes the views for one selection.
type Handler interface {
	Handle(ctx context.Context, e Event) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, e Event) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, e Event) error { return f(ctx, e) }

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker processes selections one at a time.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, the queue closes,
	// or Shutdown is called.
	Run(ctx context.Context)

	// Shutdown stops the worker after the cycle in flight completes.
	Shutdown(ctx context.Context) error
}

// CycleWorker implements Worker. A single instance per queue keeps cycles
// strictly sequential.
type CycleWorker struct {
	queue   Queue
	handler Handler
	name    string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewCycleWorker creates a worker with configuration options.
func NewCycleWorker(q Queue, h Handler, opts ...Option) *CycleWorker {
	w := &CycleWorker{
		queue:    q,
		handler:  h,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *CycleWorker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := w.process(ctx, event); err != nil {
				w.logger.Debug(ctx, "handler returned error",
					logger.Uint64("seq", event.Seq),
					logger.Int("year", event.Year),
					logger.Error(err),
				)
			}
		}
	}
}

// Done is closed when Run returns.
func (w *CycleWorker) Done() <-chan struct{} {
	return w.done
}

// Shutdown signals the loop to stop and waits for it.
func (w *CycleWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *CycleWorker) process(ctx context.Context, event Event) error { //nolint:gocritic // hugeParam: Event is passed by value for channel semantics
	start := time.Now()
	err := w.handler.Handle(ctx, event)
	if err != nil {
		return fmt.Errorf("selection %d (year %d): %w", event.Seq, event.Year, err)
	}

	w.logger.Debug(ctx, "cycle complete",
		logger.Uint64("seq", event.Seq),
		logger.Int("year", event.Year),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}
