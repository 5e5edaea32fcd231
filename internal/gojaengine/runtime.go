package gojaengine

import (
	"github.com/dop251/goja"

	"github.com/cryguy/tscompiler/internal/core"
)

// gojaRuntime adapts a goja.Runtime to core.JSRuntime.
type gojaRuntime struct {
	vm *goja.Runtime
}

var _ core.JSRuntime = (*gojaRuntime)(nil)

func (r *gojaRuntime) Eval(js string) error {
	_, err := r.vm.RunString(js)
	return err
}

func (r *gojaRuntime) EvalString(js string) (string, error) {
	v, err := r.vm.RunString(js)
	if err != nil {
		return "", err
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return "", nil
	}
	return v.String(), nil
}

// RegisterFunc exposes fn as a global. goja converts a non-nil trailing
// error return into a thrown GoError.
func (r *gojaRuntime) RegisterFunc(name string, fn any) error {
	return r.vm.Set(name, fn)
}

func (r *gojaRuntime) SetGlobal(name string, value any) error {
	return r.vm.Set(name, value)
}

// RunMicrotasks is a no-op: goja runs queued promise jobs before each
// Run* call returns.
func (r *gojaRuntime) RunMicrotasks() {}

// runProgram runs a precompiled program in the global scope.
func (r *gojaRuntime) runProgram(p *goja.Program) error {
	_, err := r.vm.RunProgram(p)
	return err
}
