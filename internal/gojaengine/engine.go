// Package gojaengine hosts the TypeScript compiler in a goja VM. Unless a
// compiler script is configured, the program is the TypeScript release
// bundled with go-typescript, so every target and module kind the compiler
// knows is honoured, ES3 and ES5 included.
package gojaengine

import (
	"fmt"
	"sync"
	"time"

	"github.com/clarkmcc/go-typescript/versions"
	_ "github.com/clarkmcc/go-typescript/versions/v4.7.2"
	"github.com/dop251/goja"

	"github.com/cryguy/tscompiler/internal/core"
	"github.com/cryguy/tscompiler/internal/tsbridge"
)

// BundledVersion is the TypeScript release used when no compiler script is
// configured.
const BundledVersion = "v4.7.2"

// bundledProgram is compiled once per process and shared by every engine.
var bundledProgram = sync.OnceValues(func() (*goja.Program, error) {
	p, err := versions.DefaultRegistry.Get(BundledVersion)
	if err != nil {
		return nil, fmt.Errorf("loading bundled TypeScript %s: %w", BundledVersion, err)
	}
	return p, nil
})

// Engine is one goja VM with the compiler program and tsCompile loaded. It
// must only be used from the goroutine that created it.
type Engine struct {
	vm  *goja.Runtime
	rt  *gojaRuntime
	cfg core.CompilerConfig
}

var _ core.ScriptEngine = (*Engine)(nil)

// NewEngine compiles the configured compiler script, or takes the bundled
// TypeScript, and loads it into a fresh VM.
func NewEngine(cfg core.CompilerConfig) (*Engine, error) {
	cfg = cfg.WithDefaults()
	program, err := loadProgram(cfg.CompilerScript)
	if err != nil {
		return nil, err
	}
	if cfg.MemoryLimitMB > 0 {
		cfg.Logger.Warn("memory limit is not enforced by the goja engine", "limit_mb", cfg.MemoryLimitMB)
	}

	vm := goja.New()
	rt := &gojaRuntime{vm: vm}
	if err := tsbridge.Install(rt, func() error { return rt.runProgram(program) }); err != nil {
		return nil, fmt.Errorf("initializing compiler: %w", err)
	}
	return &Engine{vm: vm, rt: rt, cfg: cfg}, nil
}

// NewFactory returns an EngineFactory producing goja engines.
func NewFactory(cfg core.CompilerConfig) core.EngineFactory {
	return func() (core.ScriptEngine, error) {
		return NewEngine(cfg)
	}
}

func loadProgram(scriptPath string) (*goja.Program, error) {
	if scriptPath == "" {
		return bundledProgram()
	}
	src, err := tsbridge.LoadProgram(scriptPath)
	if err != nil {
		return nil, err
	}
	p, err := goja.Compile(scriptPath, src, false)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", scriptPath, err)
	}
	return p, nil
}

// Transpile calls tsCompile. With an execution timeout set, a watchdog
// interrupts a runaway compile. The VM stays loaded: the interrupt is
// cleared before Transpile returns.
func (e *Engine) Transpile(source, fileName, optionsJSON string) (*core.TranspileOutput, error) {
	timeout := e.cfg.ExecutionTimeout
	if timeout <= 0 {
		return tsbridge.Invoke(e.rt, source, fileName, optionsJSON)
	}

	fired := make(chan struct{})
	watchdog := time.AfterFunc(timeout, func() {
		e.vm.Interrupt(fmt.Errorf("execution exceeded %v", timeout))
		close(fired)
	})
	out, err := tsbridge.Invoke(e.rt, source, fileName, optionsJSON)
	if watchdog.Stop() {
		return out, err
	}

	<-fired
	e.vm.ClearInterrupt()
	if err == nil {
		return out, nil
	}
	return nil, fmt.Errorf("compilation timed out (limit: %v): %w", timeout, err)
}

// Close drops the VM. goja memory is reclaimed by the Go garbage collector.
func (e *Engine) Close() {
	e.vm = nil
	e.rt = nil
}
