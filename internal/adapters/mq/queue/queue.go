// Package queue holds pending year selections between the HTTP layer and
// the controller.
//
// The queue is a bounded mailbox with latest-wins semantics: when it is full
// the oldest pending selection is discarded to make room, so a burst of
// slider moves collapses to the most recent ones.
package queue

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/beeline/internal/domain/model"
	"github.com/okian/beeline/pkg/metrics"
)

const defaultCapacity = 1

// Event represents the payload type flowing through the queue.
type Event = model.YearChanged

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an event, evicting the oldest pending one when full.
	// Returns false if the queue is closed or ctx is done.
	Enqueue(ctx context.Context, e Event) bool

	// Dequeue returns the channel events are delivered on. It is closed
	// when the queue is closed.
	Dequeue(ctx context.Context) <-chan Event

	// Len returns the current number of pending events.
	Len(ctx context.Context) int

	// Close stops accepting events and closes the dequeue channel.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// LatestQueue implements Queue on a buffered channel.
type LatestQueue struct {
	events    chan Event
	capacity  int
	coalesced atomic.Uint64

	mu     sync.Mutex // serializes producers and Close
	closed bool
}

// NewLatestQueue creates a queue configured by opts.
func NewLatestQueue(opts ...Option) *LatestQueue {
	q := &LatestQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.events = make(chan Event, q.capacity)
	metrics.UpdateQueueDepth(0)
	return q
}

// Enqueue adds e, replacing the oldest pending event when the queue is full.
func (q *LatestQueue) Enqueue(ctx context.Context, e Event) bool {
	if ctx.Err() != nil {
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	for {
		select {
		case q.events <- e:
			metrics.UpdateQueueDepth(len(q.events))
			return true
		default:
		}
		// Full: only the consumer removes besides us, so either we evict the
		// oldest event or the consumer already took it and the next send fits.
		select {
		case <-q.events:
			q.coalesced.Add(1)
			metrics.RecordSelectionCoalesced()
		default:
		}
	}
}

// Dequeue returns the delivery channel.
func (q *LatestQueue) Dequeue(_ context.Context) <-chan Event {
	return q.events
}

// Len returns the number of pending events.
func (q *LatestQueue) Len(_ context.Context) int {
	size := len(q.events)
	metrics.UpdateQueueDepth(size)
	return size
}

// Coalesced returns how many events were evicted by newer ones.
func (q *LatestQueue) Coalesced() uint64 {
	return q.coalesced.Load()
}

// Close gracefully shuts down the queue.
func (q *LatestQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.events)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *LatestQueue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
