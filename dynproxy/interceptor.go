package dynproxy

import (
	"context"
	"reflect"
)

// Interceptor is the contract every aspect implements.
// It either handles the call itself or calls inv.Proceed and forwards or transforms the result.
// The returned slice is the full result tuple of the intercepted method.
// The error is reserved for dispatch-level failures; application errors travel in the result tuple.
type Interceptor interface {
	Invoke(inv Invocation) ([]any, error)
}

// InterceptorFunc adapts a plain function to the Interceptor interface.
type InterceptorFunc func(inv Invocation) ([]any, error)

// Invoke calls f(inv).
func (f InterceptorFunc) Invoke(inv Invocation) ([]any, error) {
	return f(inv)
}

// Pointcut is implemented by interceptors that apply to a subset of methods only.
// Interceptors without it apply to every method.
type Pointcut interface {
	AppliesTo(targetType reflect.Type, m *Method) bool
}

// Invocation is the per-call, per-chain-step request passed to interceptors.
type Invocation interface {
	Proxy() any
	Target() any
	TargetType() reflect.Type
	// TargetMethod is the method resolved on the target.
	TargetMethod() *Method
	// ProxyMethod is the method the proxy exposes, nil when it equals the target method.
	ProxyMethod() *Method
	// Method returns ProxyMethod when set, else TargetMethod.
	Method() *Method
	Arguments() []any
	SetArgument(i int, v any)
	// Context returns the first argument when it is a context.Context, else context.Background().
	Context() context.Context
	// Proceed advances to the next interceptor, or calls the real method at the end of the chain.
	// Each call resumes from this invocation's position, so it may be called more than once.
	Proceed() ([]any, error)
}

type pointcutInterceptor struct {
	Interceptor
	match func(targetType reflect.Type, m *Method) bool
}

func (p pointcutInterceptor) AppliesTo(targetType reflect.Type, m *Method) bool {
	return p.match(targetType, m)
}

// Selective restricts an interceptor to the methods accepted by match.
func Selective(interceptor Interceptor, match func(targetType reflect.Type, m *Method) bool) Interceptor {
	return pointcutInterceptor{Interceptor: interceptor, match: match}
}

// ForMethods restricts an interceptor to methods with one of the given names.
func ForMethods(interceptor Interceptor, names ...string) Interceptor {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}

	return Selective(interceptor, func(_ reflect.Type, m *Method) bool {
		_, ok := set[m.Name]
		return ok
	})
}

// AppliesTo reports whether interceptor takes part in calls of m on targetType.
func AppliesTo(interceptor Interceptor, targetType reflect.Type, m *Method) bool {
	if pc, ok := interceptor.(Pointcut); ok {
		return pc.AppliesTo(targetType, m)
	}

	return true
}
