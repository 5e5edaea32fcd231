// Package tscompiler compiles TypeScript to JavaScript through one embedded
// script engine. The engine is not thread-safe, so every request from every
// goroutine is queued and served in order by a single worker that owns it.
package tscompiler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cryguy/tscompiler/internal/core"
	"github.com/cryguy/tscompiler/internal/queue"
	"github.com/cryguy/tscompiler/internal/worker"
)

// TypeScriptCompiler is the compile surface of *Compiler.
type TypeScriptCompiler interface {
	DefaultOptions() CompileOptions
	Compile(source string) *CompiledModule
	CompileWithOptions(source string, opts CompileOptions) *CompiledModule
	CompileNamed(source, fileName string, opts CompileOptions) *CompiledModule
	CompileContext(ctx context.Context, source, fileName string, opts CompileOptions) *CompiledModule
	CompileFile(path string) (*CompiledModule, error)
	CompileFileWithOptions(path string, opts CompileOptions) (*CompiledModule, error)
}

var _ TypeScriptCompiler = (*Compiler)(nil)

// Compiler queues compile requests for its worker and waits for the results.
// It is safe for concurrent use.
type Compiler struct {
	cfg     Config
	factory core.EngineFactory
	queue   *queue.Queue
	worker  *worker.Worker
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithEngineFactory replaces the build's script engine.
func WithEngineFactory(f EngineFactory) Option {
	return func(c *Compiler) { c.factory = f }
}

// WithLogger sets the logger for the compiler and its worker.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) { c.cfg.Logger = l }
}

// New creates a Compiler. The script engine is started on first use.
func New(cfg Config, opts ...Option) *Compiler {
	c := &Compiler{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	c.cfg = c.cfg.WithDefaults()
	if c.factory == nil {
		c.factory = engineFactory(c.cfg)
	}
	c.queue = queue.New()
	c.worker = worker.New(c.queue, c.factory, c.cfg.Logger)
	return c
}

// DefaultOptions returns ES5 output wrapped as AMD with a source map.
func (c *Compiler) DefaultOptions() CompileOptions {
	return CompileOptions{
		Target:    core.ES5,
		Module:    core.ModuleAMD,
		SourceMap: core.Bool(true),
	}
}

// Compile compiles source with the default options and file name.
func (c *Compiler) Compile(source string) *CompiledModule {
	return c.CompileWithOptions(source, c.DefaultOptions())
}

// CompileWithOptions compiles source under the default file name.
func (c *Compiler) CompileWithOptions(source string, opts CompileOptions) *CompiledModule {
	return c.CompileNamed(source, "", opts)
}

// CompileNamed compiles source as fileName.
func (c *Compiler) CompileNamed(source, fileName string, opts CompileOptions) *CompiledModule {
	return c.CompileContext(context.Background(), source, fileName, opts)
}

// CompileContext enqueues a compile and waits up to Config.Timeout for the
// worker, or until ctx is done. A caller that stops waiting gets a failed
// result; the worker skips the request if it has not started it yet.
func (c *Compiler) CompileContext(ctx context.Context, source, fileName string, opts CompileOptions) *CompiledModule {
	if fileName == "" {
		fileName = c.cfg.DefaultFileName
	}

	req := core.NewCompileRequest(source, fileName, opts)
	if err := c.queue.Enqueue(req); err != nil {
		return core.Failed(fileName, core.ErrShutdown.Error())
	}
	c.worker.EnsureRunning()

	timer := time.NewTimer(c.cfg.Timeout)
	defer timer.Stop()

	select {
	case <-req.Done():
		return req.Result()
	case <-timer.C:
		req.Abandon()
		c.cfg.Logger.Warn("compile wait timed out",
			"request_id", req.ID, "file", fileName, "timeout", c.cfg.Timeout, "state", req.State())
		return core.Failed(fileName, core.TimeoutMessage)
	case <-ctx.Done():
		req.Abandon()
		return core.Failed(fileName, fmt.Sprintf("compilation wait cancelled: %v", ctx.Err()))
	}
}

// CompileFile reads path and compiles it with the default options.
func (c *Compiler) CompileFile(path string) (*CompiledModule, error) {
	return c.CompileFileWithOptions(path, c.DefaultOptions())
}

// CompileFileWithOptions reads path as UTF-8 and compiles it under its base
// name. Read errors are returned, not folded into the result.
func (c *Compiler) CompileFileWithOptions(path string, opts CompileOptions) (*CompiledModule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	source := strings.TrimPrefix(string(data), "\ufeff")
	return c.CompileNamed(source, filepath.Base(path), opts), nil
}

// Shutdown stops accepting compiles and waits for queued ones to finish.
// If ctx ends first, the requests still queued fail and ctx.Err() is
// returned.
func (c *Compiler) Shutdown(ctx context.Context) error {
	return c.worker.Stop(ctx)
}
