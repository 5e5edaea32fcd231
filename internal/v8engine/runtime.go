//go:build v8

package v8engine

import (
	"fmt"
	"reflect"

	"github.com/cryguy/tscompiler/internal/core"
	v8 "github.com/tommie/v8go"
)

// v8Runtime implements core.JSRuntime for the V8 engine.
type v8Runtime struct {
	iso *v8.Isolate
	ctx *v8.Context
}

var _ core.JSRuntime = (*v8Runtime)(nil)

// Eval evaluates JavaScript and discards the result.
func (r *v8Runtime) Eval(js string) error {
	_, err := r.ctx.RunScript(js, "eval.js")
	return err
}

// EvalString evaluates JavaScript and returns the result as a Go string.
func (r *v8Runtime) EvalString(js string) (string, error) {
	val, err := r.ctx.RunScript(js, "eval_string.js")
	if err != nil {
		return "", err
	}
	if val == nil {
		return "", nil
	}
	return val.String(), nil
}

// RegisterFunc registers a Go function as a global JavaScript function.
// The bridge only needs string arguments, so every parameter must be a
// string; the function may return string or (string, error). A non-nil
// error is thrown into JS.
func (r *v8Runtime) RegisterFunc(name string, fn any) error {
	fnVal := reflect.ValueOf(fn)
	fnType := fnVal.Type()
	if fnType.Kind() != reflect.Func {
		return fmt.Errorf("RegisterFunc: expected function, got %T", fn)
	}
	for i := 0; i < fnType.NumIn(); i++ {
		if fnType.In(i).Kind() != reflect.String {
			return fmt.Errorf("RegisterFunc %s: argument %d must be a string", name, i)
		}
	}

	tmpl := v8.NewFunctionTemplate(r.iso, func(info *v8.FunctionCallbackInfo) *v8.Value {
		args := info.Args()
		if len(args) < fnType.NumIn() {
			return r.throw(fmt.Sprintf("%s requires %d argument(s), got %d", name, fnType.NumIn(), len(args)))
		}

		goArgs := make([]reflect.Value, fnType.NumIn())
		for i := range goArgs {
			goArgs[i] = reflect.ValueOf(args[i].String())
		}
		results := fnVal.Call(goArgs)

		if len(results) == 2 && !results[1].IsNil() {
			return r.throw(fmt.Sprintf("calling %s: %s", name, results[1].Interface().(error).Error()))
		}
		if len(results) == 0 || results[0].Kind() != reflect.String {
			return nil
		}
		v, _ := v8.NewValue(r.iso, results[0].String())
		return v
	})

	return r.ctx.Global().Set(name, tmpl.GetFunction(r.ctx))
}

func (r *v8Runtime) throw(msg string) *v8.Value {
	jsMsg, _ := v8.NewValue(r.iso, msg)
	r.iso.ThrowException(jsMsg)
	return nil
}

// SetGlobal sets a global variable on the JS context.
func (r *v8Runtime) SetGlobal(name string, value any) error {
	var (
		jsVal *v8.Value
		err   error
	)
	switch v := value.(type) {
	case nil:
		jsVal = v8.Undefined(r.iso)
	case string:
		jsVal, err = v8.NewValue(r.iso, v)
	case bool:
		jsVal, err = v8.NewValue(r.iso, v)
	case int:
		jsVal, err = v8.NewValue(r.iso, int32(v))
	case float64:
		jsVal, err = v8.NewValue(r.iso, v)
	default:
		return fmt.Errorf("SetGlobal %q: unsupported type %T", name, value)
	}
	if err != nil {
		return fmt.Errorf("converting value for %q: %w", name, err)
	}
	return r.ctx.Global().Set(name, jsVal)
}

// RunMicrotasks pumps the V8 microtask queue.
func (r *v8Runtime) RunMicrotasks() {
	r.ctx.PerformMicrotaskCheckpoint()
}
