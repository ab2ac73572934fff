package reflectengine

import (
	"context"
	"fmt"
	"reflect"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy/reflectengine/internal/emit"
)

// buildMethodBody emits the body of one proxied method:
//
//	Enter, resolve dispatch, branch on the interceptor count,
//	chain call with by-ref boxing or direct call, self substitution, release, Exit.
//
// Enter and Exit are emitted for methods taking a context.Context first and only act when the
// configuration exposes the proxy. Interceptors are looked up per call, never baked in.
func buildMethodBody(plan *methodPlan) (*emit.Body, error) {
	m := plan.exposed
	b := emit.NewBodyBuilder()
	directCall := b.DefineLabel()
	afterCall := b.DefineLabel()

	if m.AcceptsContext() {
		b.Emit(emit.OpEnter, 0, enterProxy)
	}

	b.Emit(emit.OpLoadDispatch, 0, loadDispatch)
	b.Emit(emit.OpLoadTargetType, 0, loadTargetType)
	b.Emit(emit.OpLoadTarget, 0, loadTarget(m))
	b.Emit(emit.OpLoadInterceptors, 0, loadInterceptors(plan.target))
	b.EmitBranch(emit.OpBranchIfNoInterceptors, directCall, func(f *emit.Frame) bool {
		return len(f.Interceptors) == 0
	})

	for i := 0; i < m.NumIn(); i++ {
		if m.IsByRef(i) {
			b.Emit(emit.OpBoxByRef, i, boxByRef(i))
		}
	}

	b.Emit(emit.OpInvokeChain, 0, invokeChain(plan))
	b.Emit(emit.OpConvertResults, 0, convertResults(m))

	for i := 0; i < m.NumIn(); i++ {
		if m.IsByRef(i) {
			b.Emit(emit.OpStoreByRef, i, storeByRef(m, i))
		}
	}

	b.EmitBranch(emit.OpBranch, afterCall, nil)
	b.MarkLabel(directCall)
	b.Emit(emit.OpCallDirect, 0, callDirect(plan.direct))
	b.MarkLabel(afterCall)

	for i := 0; i < m.NumOut(); i++ {
		if dynproxy.IsReferenceType(m.Out(i)) {
			b.Emit(emit.OpSubstituteSelf, i, substituteSelf(m, i))
		}
	}

	b.MarkExit()
	b.Emit(emit.OpReleaseTarget, 0, releaseTarget)

	if m.AcceptsContext() {
		b.Emit(emit.OpExit, 0, exitProxy)
	}

	b.Emit(emit.OpReturn, 0, nil)

	return b.Build()
}

func instanceOf(f *emit.Frame) *Instance {
	return f.Self.(*Instance)
}

func dispatchOf(f *emit.Frame) *AdvisedProxy {
	return f.Dispatch.(*AdvisedProxy)
}

func enterProxy(f *emit.Frame) error {
	inst := instanceOf(f)
	if !inst.dispatch().Advised().ExposeProxy() {
		return nil
	}

	ctx, _ := f.Args[0].(context.Context)
	pushed := dynproxy.PushProxy(ctx, inst.GetProxy())
	f.Saved = f.Args[0]
	f.Pushed = pushed
	f.Args[0] = pushed
	f.Entered = true

	return nil
}

// exitProxy checks the pairing with enterProxy and restores the caller's context.
// It pops the context Enter pushed, whatever interceptors left in Args[0].
// A missing frame means the body itself is broken.
func exitProxy(f *emit.Frame) error {
	if !f.Entered {
		return nil
	}

	ctx, _ := f.Pushed.(context.Context)
	if _, err := dynproxy.PopProxy(ctx); err != nil {
		panic(err)
	}

	f.Args[0] = f.Saved
	f.Pushed = nil
	f.Entered = false

	return nil
}

func loadDispatch(f *emit.Frame) error {
	f.Dispatch = instanceOf(f).dispatch()
	return nil
}

func loadTargetType(f *emit.Frame) error {
	f.TargetType = dispatchOf(f).TargetType()
	return nil
}

func loadTarget(m *dynproxy.Method) emit.Action {
	return func(f *emit.Frame) error {
		ctx := context.Background()
		if m.AcceptsContext() {
			if c, ok := f.Args[0].(context.Context); ok && c != nil {
				ctx = c
			}
		}

		target, err := dispatchOf(f).GetTarget(ctx)
		if err != nil {
			return err
		}

		f.Target = target
		f.Acquired = true

		return nil
	}
}

func loadInterceptors(lookup *dynproxy.Method) emit.Action {
	return func(f *emit.Frame) error {
		f.Interceptors = dispatchOf(f).GetInterceptors(f.TargetType, lookup)
		return nil
	}
}

// boxByRef replaces the caller's pointer with the value it points to; the pointer is kept in Refs.
// A nil pointer is passed on unchanged.
func boxByRef(i int) emit.Action {
	return func(f *emit.Frame) error {
		ref := reflect.ValueOf(f.Args[i])
		if !ref.IsValid() || ref.Kind() != reflect.Pointer || ref.IsNil() {
			return nil
		}

		if f.Refs == nil {
			f.Refs = make([]any, len(f.Args))
		}

		f.Refs[i] = f.Args[i]
		f.Args[i] = ref.Elem().Interface()

		return nil
	}
}

// storeByRef writes the possibly changed value back through the caller's pointer.
func storeByRef(m *dynproxy.Method, i int) emit.Action {
	elem := m.In(i).Elem()

	return func(f *emit.Frame) error {
		if f.Refs == nil || f.Refs[i] == nil {
			return nil
		}

		v, err := dynproxy.ConvertValue(f.Args[i], elem)
		if err != nil {
			return fmt.Errorf("writing back parameter %d of %s: %w", i, m, err)
		}

		reflect.ValueOf(f.Refs[i]).Elem().Set(v)
		f.Args[i] = f.Refs[i]

		return nil
	}
}

func invokeChain(plan *methodPlan) emit.Action {
	return func(f *emit.Frame) error {
		results, err := dispatchOf(f).Invoke(
			instanceOf(f).GetProxy(),
			f.Target,
			f.TargetType,
			plan.target,
			plan.proxyMethod,
			f.Args,
			f.Interceptors,
		)
		f.Results = results

		return err
	}
}

// convertResults narrows the chain's results to the declared result types.
func convertResults(m *dynproxy.Method) emit.Action {
	return func(f *emit.Frame) error {
		if len(f.Results) != m.NumOut() {
			return fmt.Errorf("%w: %s returns %d values, the interceptor chain returned %d",
				dynproxy.ErrInvalidReturnValue, m, m.NumOut(), len(f.Results))
		}

		for i, r := range f.Results {
			v, err := dynproxy.ConvertValue(r, m.Out(i))
			if err != nil {
				return fmt.Errorf("%w: result %d of %s: %w", dynproxy.ErrInvalidReturnValue, i, m, err)
			}

			f.Results[i] = v.Interface()
		}

		return nil
	}
}

func callDirect(m *dynproxy.Method) emit.Action {
	return func(f *emit.Frame) error {
		f.Direct = true
		results, err := invokeMethod(f.Target, m, f.Args)
		f.Results = results

		return err
	}
}

// substituteSelf replaces a returned target with the proxy, so fluent calls stay intercepted.
func substituteSelf(m *dynproxy.Method, i int) emit.Action {
	declared := m.Out(i)

	return func(f *emit.Frame) error {
		if i >= len(f.Results) || !sameReference(f.Results[i], f.Target) {
			return nil
		}

		face := instanceOf(f).GetProxy()
		if reflect.TypeOf(face).AssignableTo(declared) {
			f.Results[i] = face
		}

		return nil
	}
}

func releaseTarget(f *emit.Frame) error {
	if !f.Acquired {
		return nil
	}

	f.Acquired = false

	dispatch := dispatchOf(f)
	if !dispatch.releaseNeeded() {
		return nil
	}

	return dispatch.ReleaseTarget(f.Target)
}

func sameReference(a, b any) bool {
	if a == nil || b == nil {
		return false
	}

	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || ta.Kind() != reflect.Pointer {
		return false
	}

	return a == b
}
