//go:build !v8

// Package quickjs hosts the TypeScript compiler program in a QuickJS VM.
package quickjs

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cryguy/tscompiler/internal/core"
	"github.com/cryguy/tscompiler/internal/tsbridge"
	"modernc.org/quickjs"
)

// Engine is a single QuickJS VM with the compiler program loaded. It must
// only be used from the goroutine that created it.
type Engine struct {
	vm      *quickjs.VM
	rt      *qjsRuntime
	program string
	cfg     core.CompilerConfig
}

var _ core.ScriptEngine = (*Engine)(nil)

// NewEngine creates a VM, loads the configured compiler program and defines
// the bridging function.
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

// NewFactory returns an EngineFactory producing QuickJS engines.
func NewFactory(cfg core.CompilerConfig) core.EngineFactory {
	return func() (core.ScriptEngine, error) {
		return NewEngine(cfg)
	}
}

func (e *Engine) init() error {
	vm, err := quickjs.NewVM()
	if err != nil {
		return fmt.Errorf("creating QuickJS VM: %w", err)
	}
	if e.cfg.MemoryLimitMB > 0 {
		vm.SetMemoryLimit(uintptr(e.cfg.MemoryLimitMB) * 1024 * 1024)
	}

	rt := newRuntime(vm)
	if err := tsbridge.Setup(rt, e.program); err != nil {
		vm.Close()
		return fmt.Errorf("initializing compiler: %w", err)
	}
	e.vm = vm
	e.rt = rt
	return nil
}

// Transpile calls the bridging function. With an execution timeout set, a
// watchdog interrupts a runaway compile; the interrupted VM is replaced
// before the error is returned.
func (e *Engine) Transpile(source, fileName, optionsJSON string) (*core.TranspileOutput, error) {
	if e.vm == nil {
		if err := e.init(); err != nil {
			return nil, err
		}
	}

	timeout := e.cfg.ExecutionTimeout
	if timeout <= 0 {
		return tsbridge.Invoke(e.rt, source, fileName, optionsJSON)
	}

	var timedOut atomic.Bool
	vm := e.vm
	watchdog := time.AfterFunc(timeout, func() {
		timedOut.Store(true)
		vm.Interrupt()
	})
	out, err := tsbridge.Invoke(e.rt, source, fileName, optionsJSON)
	stopped := watchdog.Stop()

	if !stopped || timedOut.Load() {
		e.discard()
		if err == nil {
			// The watchdog fired after the call returned; the result is
			// still good but the VM's interrupt state is not.
			return out, nil
		}
		return nil, fmt.Errorf("compilation timed out (limit: %v): %w", timeout, err)
	}
	return out, err
}

// discard closes the VM so the next Transpile starts from a fresh one.
func (e *Engine) discard() {
	if e.vm != nil {
		e.vm.Close()
	}
	e.vm = nil
	e.rt = nil
}

// Close releases the VM.
func (e *Engine) Close() {
	e.discard()
}
