package core

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// RequestState tracks a CompileRequest through its round-trip.
type RequestState int32

const (
	StateCreated RequestState = iota
	StateQueued
	StateInProgress
	StateCompleted
	StateConsumed
	StateTimedOut
)

func (s RequestState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateQueued:
		return "queued"
	case StateInProgress:
		return "in-progress"
	case StateCompleted:
		return "completed"
	case StateConsumed:
		return "consumed"
	case StateTimedOut:
		return "timed-out"
	default:
		return "unknown"
	}
}

// CompileRequest is one queued compilation. The worker writes the result
// exactly once and then closes done; the caller reads the result only after
// done is closed.
type CompileRequest struct {
	ID       string
	Seq      uint64 // assigned by the queue at enqueue time
	Source   string
	FileName string
	Options  CompileOptions

	EnqueuedAt time.Time

	done      chan struct{}
	once      sync.Once
	result    *CompiledModule
	state     atomic.Int32
	abandoned atomic.Bool
}

// NewCompileRequest creates a request in the Created state.
func NewCompileRequest(source, fileName string, opts CompileOptions) *CompileRequest {
	return &CompileRequest{
		ID:       uuid.NewString(),
		Source:   source,
		FileName: fileName,
		Options:  opts,
		done:     make(chan struct{}),
	}
}

// Complete stores the result and fires the completion signal. Calls after
// the first are ignored.
func (r *CompileRequest) Complete(m *CompiledModule) {
	r.once.Do(func() {
		r.result = m
		r.state.CompareAndSwap(int32(StateInProgress), int32(StateCompleted))
		r.state.CompareAndSwap(int32(StateQueued), int32(StateCompleted))
		close(r.done)
	})
}

// Done is closed once the result is available.
func (r *CompileRequest) Done() <-chan struct{} {
	return r.done
}

// Result returns the result and marks the request consumed. It returns nil
// until Done is closed.
func (r *CompileRequest) Result() *CompiledModule {
	select {
	case <-r.done:
	default:
		return nil
	}
	r.state.CompareAndSwap(int32(StateCompleted), int32(StateConsumed))
	return r.result
}

// State returns the current lifecycle state.
func (r *CompileRequest) State() RequestState {
	return RequestState(r.state.Load())
}

// MarkQueued moves a freshly created request to Queued.
func (r *CompileRequest) MarkQueued() {
	r.EnqueuedAt = time.Now()
	r.state.CompareAndSwap(int32(StateCreated), int32(StateQueued))
}

// Begin moves a queued request to InProgress. It returns false when the
// caller has already abandoned the request.
func (r *CompileRequest) Begin() bool {
	return r.state.CompareAndSwap(int32(StateQueued), int32(StateInProgress))
}

// Abandon records that the caller is no longer waiting. The worker skips
// abandoned requests it has not started yet; one already in progress still
// completes, into a result nobody reads.
func (r *CompileRequest) Abandon() {
	r.abandoned.Store(true)
	for {
		cur := r.state.Load()
		if cur == int32(StateCompleted) || cur == int32(StateConsumed) || cur == int32(StateTimedOut) {
			return
		}
		if r.state.CompareAndSwap(cur, int32(StateTimedOut)) {
			return
		}
	}
}

// Abandoned reports whether the caller gave up on this request.
func (r *CompileRequest) Abandoned() bool {
	return r.abandoned.Load()
}
