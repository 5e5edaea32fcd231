// Package worker runs the single goroutine that owns the script engine and
// services compile requests from the queue.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/cryguy/tscompiler/internal/core"
	"github.com/cryguy/tscompiler/internal/queue"
)

// Worker owns one script engine on one locked OS thread. The engine is
// created, used and closed only by the worker goroutine.
type Worker struct {
	queue   *queue.Queue
	factory core.EngineFactory
	logger  *slog.Logger

	mu      sync.Mutex
	running bool
	exited  chan struct{}

	abort     chan struct{}
	abortOnce sync.Once
}

// New creates a stopped worker. The goroutine starts on the first
// EnsureRunning call.
func New(q *queue.Queue, factory core.EngineFactory, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		queue:   q,
		factory: factory,
		logger:  logger,
		abort:   make(chan struct{}),
	}
}

// EnsureRunning starts the worker goroutine unless one is alive. A worker
// that exited after an engine init failure is replaced.
func (w *Worker) EnsureRunning() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		w.queue.Signal()
		return
	}
	w.running = true
	w.exited = make(chan struct{})
	go w.run(w.exited)
	w.queue.Signal()
}

// Running reports whether a worker goroutine is alive.
func (w *Worker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Stop closes the queue and waits for the worker to finish what is queued.
// If ctx expires first, the remaining requests fail with ErrShutdown and
// ctx.Err() is returned; a compile already in progress is not interrupted.
func (w *Worker) Stop(ctx context.Context) error {
	w.queue.Close()

	w.mu.Lock()
	running, exited := w.running, w.exited
	w.mu.Unlock()

	if !running {
		w.failPending(core.ErrShutdown)
		return nil
	}

	select {
	case <-exited:
		return nil
	case <-ctx.Done():
		w.abortOnce.Do(func() { close(w.abort) })
		w.failPending(core.ErrShutdown)
		return ctx.Err()
	}
}

func (w *Worker) run(exited chan struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(exited)

	engine, err := w.factory()
	if err != nil {
		w.logger.Error("worker: engine init failed", "error", err)
		w.exit(fmt.Errorf("initializing script engine: %w", err))
		return
	}
	defer engine.Close()
	w.logger.Debug("worker: engine ready")

	for {
		select {
		case <-w.abort:
			w.exit(core.ErrShutdown)
			return
		default:
		}

		closed := w.queue.Closed()
		if req, ok := w.queue.TryDequeue(); ok {
			w.process(engine, req)
			continue
		}
		if closed {
			w.exit(nil)
			return
		}

		select {
		case <-w.queue.Wake():
		case <-w.abort:
		}
	}
}

// exit marks the worker stopped and fails whatever is still queued with
// cause. Holding mu while draining means a request enqueued afterwards
// finds running=false and starts a new worker.
func (w *Worker) exit(cause error) {
	w.mu.Lock()
	w.running = false
	var pending []*core.CompileRequest
	if cause != nil {
		pending = w.queue.DrainPending()
	}
	w.mu.Unlock()

	for _, req := range pending {
		req.Complete(faultResult(req.FileName, cause))
	}
	if len(pending) > 0 {
		w.logger.Warn("worker: failed pending requests", "count", len(pending), "error", cause)
	}
}

func (w *Worker) failPending(cause error) {
	for _, req := range w.queue.DrainPending() {
		req.Complete(faultResult(req.FileName, cause))
	}
}

func (w *Worker) process(engine core.ScriptEngine, req *core.CompileRequest) {
	log := w.logger.With("request_id", req.ID, "seq", req.Seq, "file", req.FileName)

	if req.Abandoned() || !req.Begin() {
		log.Debug("worker: skipping abandoned request")
		return
	}

	start := time.Now()
	result := compile(engine, req)
	req.Complete(result)

	if result.Success {
		log.Debug("worker: compiled", "elapsed", time.Since(start), "messages", len(result.Messages))
	} else {
		log.Info("worker: compile failed", "elapsed", time.Since(start), "messages", result.Messages)
	}
}

// compile runs one request through the engine. Engine errors and panics
// become a fault result so the loop keeps serving later requests.
func compile(engine core.ScriptEngine, req *core.CompileRequest) (m *core.CompiledModule) {
	defer func() {
		if r := recover(); r != nil {
			m = faultResult(req.FileName, fmt.Errorf("script engine panic: %v", r))
		}
	}()

	options, err := json.Marshal(req.Options)
	if err != nil {
		return faultResult(req.FileName, fmt.Errorf("encoding compiler options: %w", err))
	}
	out, err := engine.Transpile(req.Source, req.FileName, string(options))
	if err != nil {
		return faultResult(req.FileName, err)
	}
	return translate(req.FileName, out)
}
