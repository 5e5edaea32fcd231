// Package tsbridge loads a TypeScript compiler program into a JSRuntime and
// defines the tsCompile bridging function the compile worker calls. It is
// shared by every engine backend.
package tsbridge

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cryguy/tscompiler/internal/core"
	"github.com/cryguy/tscompiler/internal/transform"
)

// compilerProgram is the esbuild-backed program the fast-mode engines load
// when no typescript.js is configured.
//
//go:embed compiler.js
var compilerProgram string

//go:embed bridge.js
var bridgeJS string

// HostTransformName is the global the built-in compiler program calls into.
const HostTransformName = "__host_transform"

// Globals used to pass one request's arguments into the engine.
const (
	sourceGlobal  = "__ts_source"
	fileGlobal    = "__ts_file"
	optionsGlobal = "__ts_options"
)

const invokeJS = `tsCompile(globalThis.__ts_source, globalThis.__ts_file, globalThis.__ts_options)`

const cleanupJS = `delete globalThis.__ts_source; delete globalThis.__ts_file; delete globalThis.__ts_options;`

// BuiltinProgram returns the embedded compiler program.
func BuiltinProgram() string {
	return compilerProgram
}

// LoadProgram returns the compiler program at scriptPath, or the built-in
// program when scriptPath is empty.
func LoadProgram(scriptPath string) (string, error) {
	if scriptPath == "" {
		return compilerProgram, nil
	}
	data, err := os.ReadFile(scriptPath)
	if err != nil {
		return "", fmt.Errorf("reading compiler script: %w", err)
	}
	return string(data), nil
}

// Setup registers the host transform, evaluates the compiler program, pumps
// any microtasks it queued, and defines tsCompile.
func Setup(rt core.JSRuntime, program string) error {
	return Install(rt, func() error { return rt.Eval(program) })
}

// Install is Setup for engines that load the compiler program themselves,
// for example from a precompiled form. load runs after the host transform is
// registered.
func Install(rt core.JSRuntime, load func() error) error {
	if err := rt.RegisterFunc(HostTransformName, transform.TranspileJSON); err != nil {
		return fmt.Errorf("registering %s: %w", HostTransformName, err)
	}
	if err := load(); err != nil {
		return fmt.Errorf("evaluating compiler program: %w", err)
	}
	rt.RunMicrotasks()

	kind, err := rt.EvalString(`typeof ts === 'object' && ts !== null ? typeof ts.transpileModule : 'undefined'`)
	if err != nil {
		return fmt.Errorf("checking compiler program: %w", err)
	}
	if kind != "function" {
		return fmt.Errorf("compiler program does not define ts.transpileModule")
	}

	if err := rt.Eval(bridgeJS); err != nil {
		return fmt.Errorf("defining tsCompile: %w", err)
	}
	return nil
}

// Invoke calls tsCompile with one request's arguments and decodes the result.
func Invoke(rt core.JSRuntime, source, fileName, optionsJSON string) (*core.TranspileOutput, error) {
	defer func() { _ = rt.Eval(cleanupJS) }()

	if err := rt.SetGlobal(sourceGlobal, source); err != nil {
		return nil, fmt.Errorf("setting source: %w", err)
	}
	if err := rt.SetGlobal(fileGlobal, fileName); err != nil {
		return nil, fmt.Errorf("setting file name: %w", err)
	}
	if err := rt.SetGlobal(optionsGlobal, optionsJSON); err != nil {
		return nil, fmt.Errorf("setting options: %w", err)
	}

	raw, err := rt.EvalString(invokeJS)
	if err != nil {
		return nil, fmt.Errorf("calling tsCompile: %w", err)
	}
	return Decode(raw)
}

// Decode parses the JSON returned by tsCompile.
func Decode(raw string) (*core.TranspileOutput, error) {
	var out core.TranspileOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decoding tsCompile result: %w", err)
	}
	return &out, nil
}
