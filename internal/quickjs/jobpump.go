//go:build !v8

package quickjs

import (
	"reflect"
	"unsafe"

	"modernc.org/libc"
	lib "modernc.org/libquickjs"
	"modernc.org/quickjs"
)

// jobPump drains the QuickJS pending-job queue. modernc.org/quickjs keeps
// the C runtime handle unexported and never runs pending jobs, so promise
// callbacks queued while the compiler program loads would otherwise stay
// queued forever.
type jobPump struct {
	tls *libc.TLS
	rt  uintptr
}

// newJobPump locates the runtime handle inside vm (the VM.runtime field,
// holding cRuntime and tls). ok is false if the wrapper's layout changed.
func newJobPump(vm *quickjs.VM) (p jobPump, ok bool) {
	runtime := unexported(reflect.ValueOf(vm).Elem(), "runtime")
	if !runtime.IsValid() || runtime.IsNil() {
		return p, false
	}
	runtime = runtime.Elem()

	handle := unexported(runtime, "cRuntime")
	tls := unexported(runtime, "tls")
	if !handle.IsValid() || !tls.IsValid() || tls.IsNil() {
		return p, false
	}
	return jobPump{tls: (*libc.TLS)(tls.UnsafePointer()), rt: uintptr(handle.Uint())}, true
}

// drain runs jobs until the queue is empty or a job throws, and returns how
// many ran.
func (p jobPump) drain() int {
	if p.tls == nil {
		return 0
	}
	n := 0
	for lib.XJS_ExecutePendingJob(p.tls, p.rt, 0) > 0 {
		n++
	}
	return n
}

// unexported returns the named field of struct v, readable despite being
// unexported. The zero Value is returned when there is no such field.
func unexported(v reflect.Value, name string) reflect.Value {
	f := v.FieldByName(name)
	if !f.IsValid() {
		return f
	}
	return reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr())).Elem()
}
