package delivery

import (
	"sync"

	"github.com/roach88/safeline/internal/model"
)

// queue is a thread-safe, unbounded FIFO of committed notifications.
//
// Enqueue is called by domain operations after commit; the dispatcher's Run
// loop is the only consumer. A buffered signal channel of size 1 lets Run wait
// for work and for context cancellation in the same select.
type queue struct {
	mu     sync.Mutex
	items  []model.Notification
	closed bool
	signal chan struct{}
}

func newQueue() *queue {
	return &queue{
		items:  make([]model.Notification, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends n. Returns false once the queue is closed.
func (q *queue) Enqueue(n model.Notification) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.items = append(q.items, n)

	// Non-blocking: the buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front item without blocking.
func (q *queue) TryDequeue() (model.Notification, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return model.Notification{}, false
	}
	n := q.items[0]
	// Release the slot so its metadata map can be collected.
	q.items[0] = model.Notification{}
	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return n, true
}

// Wait returns a channel that fires when items may be available. It is
// closed by Close.
func (q *queue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued items.
func (q *queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops further enqueues and wakes the consumer.
func (q *queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
