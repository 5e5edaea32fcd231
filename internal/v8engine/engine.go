//go:build v8

// Package v8engine hosts the TypeScript compiler program in a V8 isolate.
package v8engine

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cryguy/tscompiler/internal/core"
	"github.com/cryguy/tscompiler/internal/tsbridge"
	v8 "github.com/tommie/v8go"
)

// Engine is one V8 isolate+context with the compiler program loaded. It
// must only be used from the goroutine that created it.
type Engine struct {
	iso     *v8.Isolate
	ctx     *v8.Context
	rt      *v8Runtime
	program string
	cfg     core.CompilerConfig
}

var _ core.ScriptEngine = (*Engine)(nil)

// NewEngine creates an isolate, loads the configured compiler program and
// defines the bridging function.
func NewEngine(cfg core.CompilerConfig) (*Engine, error) {
	program, err := tsbridge.LoadProgram(cfg.CompilerScript)
	if err != nil {
		return nil, err
	}
	e := &Engine{program: program, cfg: cfg}
	if err := e.init(); err != nil {
		return nil, err
	}
	return e, nil
}

// NewFactory returns an EngineFactory producing V8 engines.
func NewFactory(cfg core.CompilerConfig) core.EngineFactory {
	return func() (core.ScriptEngine, error) {
		return NewEngine(cfg)
	}
}

func (e *Engine) init() error {
	var iso *v8.Isolate
	if e.cfg.MemoryLimitMB > 0 {
		heapSize := uint64(e.cfg.MemoryLimitMB) * 1024 * 1024
		iso = v8.NewIsolate(v8.WithResourceConstraints(heapSize/2, heapSize))
	} else {
		iso = v8.NewIsolate()
	}
	ctx := v8.NewContext(iso)
	rt := &v8Runtime{iso: iso, ctx: ctx}

	if err := tsbridge.Setup(rt, e.program); err != nil {
		ctx.Close()
		iso.Dispose()
		return fmt.Errorf("initializing compiler: %w", err)
	}
	e.iso, e.ctx, e.rt = iso, ctx, rt
	return nil
}

// Transpile calls the bridging function. With an execution timeout set, a
// watchdog terminates a runaway compile and the isolate is rebuilt.
func (e *Engine) Transpile(source, fileName, optionsJSON string) (*core.TranspileOutput, error) {
	if e.iso == nil {
		if err := e.init(); err != nil {
			return nil, err
		}
	}

	timeout := e.cfg.ExecutionTimeout
	if timeout <= 0 {
		return tsbridge.Invoke(e.rt, source, fileName, optionsJSON)
	}

	var timedOut atomic.Bool
	iso := e.iso
	watchdog := time.AfterFunc(timeout, func() {
		timedOut.Store(true)
		iso.TerminateExecution()
	})
	out, err := tsbridge.Invoke(e.rt, source, fileName, optionsJSON)
	stopped := watchdog.Stop()

	if !stopped || timedOut.Load() {
		e.discard()
		if err == nil {
			return out, nil
		}
		return nil, fmt.Errorf("compilation timed out (limit: %v): %w", timeout, err)
	}
	return out, err
}

func (e *Engine) discard() {
	if e.ctx != nil {
		e.ctx.Close()
	}
	if e.iso != nil {
		e.iso.Dispose()
	}
	e.iso, e.ctx, e.rt = nil, nil, nil
}

// Close disposes of the isolate.
func (e *Engine) Close() {
	e.discard()
}
