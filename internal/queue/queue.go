// Package queue hands compile requests from any number of callers to the
// single compile worker in strict FIFO order.
package queue

import (
	"sync"

	"github.com/cryguy/tscompiler/internal/core"
)

// Queue is an unbounded FIFO of pending compile requests plus a wake signal
// for the idle worker. Enqueue is safe from any goroutine; TryDequeue is
// meant for the worker only.
type Queue struct {
	mu     sync.Mutex
	items  []*core.CompileRequest
	head   int
	seq    uint64
	closed bool

	// wake behaves like an auto-reset event: any number of Signal calls
	// between two waits collapse into one wake-up.
	wake chan struct{}
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Enqueue appends req, assigns its sequence number and marks it queued.
func (q *Queue) Enqueue(req *core.CompileRequest) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return core.ErrQueueClosed
	}
	q.seq++
	req.Seq = q.seq
	req.MarkQueued()
	q.items = append(q.items, req)
	return nil
}

// TryDequeue pops the oldest request without blocking.
func (q *Queue) TryDequeue() (*core.CompileRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.head >= len(q.items) {
		return nil, false
	}
	req := q.items[q.head]
	q.items[q.head] = nil
	q.head++
	// Reclaim the consumed prefix once it dominates the backing array.
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > 64 && q.head*2 > len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return req, true
}

// Signal wakes the worker if it is waiting. It never blocks.
func (q *Queue) Signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Wake returns the channel the worker waits on while the queue is empty.
func (q *Queue) Wake() <-chan struct{} {
	return q.wake
}

// Len returns the number of pending requests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// Close rejects further Enqueue calls. Pending requests stay queued.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.Signal()
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// DrainPending removes and returns every pending request in FIFO order.
func (q *Queue) DrainPending() []*core.CompileRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	pending := make([]*core.CompileRequest, len(q.items)-q.head)
	copy(pending, q.items[q.head:])
	q.items = nil
	q.head = 0
	return pending
}
