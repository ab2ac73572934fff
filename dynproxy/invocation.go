package dynproxy

import (
	"context"
	"reflect"
)

// Invoker performs the real call at the end of an interceptor chain.
type Invoker func(target any, m *Method, args []any) ([]any, error)

// MethodInvocation is the concrete Invocation.
// All fields are fixed at construction; Proceed hands a copy with an advanced cursor to the next interceptor.
type MethodInvocation struct {
	proxy        any
	target       any
	targetType   reflect.Type
	targetMethod *Method
	proxyMethod  *Method
	arguments    []any
	interceptors []Interceptor
	invoker      Invoker
	cursor       int
}

// NewMethodInvocation creates an invocation positioned before the first interceptor.
func NewMethodInvocation(
	proxy any,
	target any,
	targetType reflect.Type,
	targetMethod *Method,
	proxyMethod *Method,
	arguments []any,
	interceptors []Interceptor,
	invoker Invoker,
) *MethodInvocation {
	return &MethodInvocation{
		proxy:        proxy,
		target:       target,
		targetType:   targetType,
		targetMethod: targetMethod,
		proxyMethod:  proxyMethod,
		arguments:    arguments,
		interceptors: interceptors,
		invoker:      invoker,
	}
}

func (inv *MethodInvocation) Proxy() any { return inv.proxy }

func (inv *MethodInvocation) Target() any { return inv.target }

func (inv *MethodInvocation) TargetType() reflect.Type { return inv.targetType }

func (inv *MethodInvocation) TargetMethod() *Method { return inv.targetMethod }

func (inv *MethodInvocation) ProxyMethod() *Method { return inv.proxyMethod }

func (inv *MethodInvocation) Method() *Method {
	if inv.proxyMethod != nil {
		return inv.proxyMethod
	}

	return inv.targetMethod
}

func (inv *MethodInvocation) Arguments() []any { return inv.arguments }

// SetArgument replaces argument i. The argument vector is shared by the whole chain.
func (inv *MethodInvocation) SetArgument(i int, v any) { inv.arguments[i] = v }

func (inv *MethodInvocation) Context() context.Context {
	if len(inv.arguments) > 0 {
		if ctx, ok := inv.arguments[0].(context.Context); ok && ctx != nil {
			return ctx
		}
	}

	return context.Background()
}

// CurrentInterceptorIndex is the chain position of this invocation.
func (inv *MethodInvocation) CurrentInterceptorIndex() int { return inv.cursor }

// Proceed never mutates inv, so concurrent or repeated calls all resume from the same position.
func (inv *MethodInvocation) Proceed() ([]any, error) {
	if inv.cursor >= len(inv.interceptors) {
		return inv.invoker(inv.target, inv.Method(), inv.arguments)
	}

	next := *inv
	next.cursor++

	return inv.interceptors[inv.cursor].Invoke(&next)
}

// CallError extracts the trailing error result of a call to m, or nil.
func CallError(m *Method, results []any) error {
	if m == nil || !m.ReturnsError() || len(results) != m.NumOut() {
		return nil
	}

	err, _ := results[len(results)-1].(error)

	return err
}

// WithCallError returns results with the trailing error replaced by err.
// The results are returned unchanged when m has no error result.
func WithCallError(m *Method, results []any, err error) []any {
	if m == nil || !m.ReturnsError() {
		return results
	}

	if len(results) != m.NumOut() {
		results = ZeroResults(m)
	}

	out := make([]any, len(results))
	copy(out, results)
	out[len(out)-1] = err

	return out
}

// ZeroResults returns the zero value of every result of m.
func ZeroResults(m *Method) []any {
	out := make([]any, m.NumOut())
	for i := range out {
		out[i] = reflect.Zero(m.Out(i)).Interface()
	}

	return out
}

var _ Invocation = (*MethodInvocation)(nil)
