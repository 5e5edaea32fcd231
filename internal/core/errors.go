package core

import "errors"

var (
	// ErrQueueClosed is returned by Enqueue once the queue has been closed.
	ErrQueueClosed = errors.New("compile queue is closed")

	// ErrShutdown marks requests that were dropped because the compiler shut down.
	ErrShutdown = errors.New("compiler is shut down")
)

// TimeoutMessage is the single message of a result whose caller stopped waiting.
const TimeoutMessage = "Timeout waiting for compilation to complete"
