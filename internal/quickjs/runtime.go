//go:build !v8

package quickjs

import (
	"fmt"

	"modernc.org/quickjs"

	"github.com/cryguy/tscompiler/internal/core"
)

// qjsRuntime adapts a QuickJS VM to core.JSRuntime.
type qjsRuntime struct {
	vm   *quickjs.VM
	jobs jobPump
}

var _ core.JSRuntime = (*qjsRuntime)(nil)

func newRuntime(vm *quickjs.VM) *qjsRuntime {
	// A zero pump drains nothing; programs that finish loading
	// synchronously still work.
	jobs, _ := newJobPump(vm)
	return &qjsRuntime{vm: vm, jobs: jobs}
}

func (r *qjsRuntime) Eval(js string) error {
	v, err := r.vm.EvalValue(js, quickjs.EvalGlobal)
	if err != nil {
		return err
	}
	v.Free()
	return nil
}

// EvalString returns the script's completion value formatted with %v, or
// "" for undefined.
func (r *qjsRuntime) EvalString(js string) (string, error) {
	v, err := r.vm.Eval(js, quickjs.EvalGlobal)
	switch {
	case err != nil:
		return "", err
	case v == nil:
		return "", nil
	}
	return fmt.Sprint(v), nil
}

// unwrapTemplate replaces the raw binding %[1]s with a global %[2]s that
// returns the first element of the [value, error] array QuickJS produces
// for a two-result Go function, or throws when the error is set.
const unwrapTemplate = `(function (raw) {
	delete globalThis[%[1]q];
	globalThis[%[2]q] = function () {
		var out = raw.apply(this, arguments);
		if (!Array.isArray(out)) return out;
		if (out[1] != null) throw new Error(%[2]q + ": " + out[1]);
		return out[0];
	};
})(globalThis[%[1]q])`

func (r *qjsRuntime) RegisterFunc(name string, fn any) error {
	raw := "__go_" + name
	if err := r.vm.RegisterFunc(raw, fn, false); err != nil {
		return fmt.Errorf("registering %s: %w", name, err)
	}
	return r.Eval(fmt.Sprintf(unwrapTemplate, raw, name))
}

func (r *qjsRuntime) SetGlobal(name string, value any) error {
	atom, err := r.vm.NewAtom(name)
	if err != nil {
		return fmt.Errorf("atom for %q: %w", name, err)
	}
	global := r.vm.GlobalObject()
	defer global.Free()
	return global.SetProperty(atom, value)
}

func (r *qjsRuntime) RunMicrotasks() {
	r.jobs.drain()
}
