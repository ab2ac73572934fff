// Package dynproxy provides the protocol and configuration types of the dynamic proxy engine.
//
// A proxy stands in for a target, exposes the target's interfaces (or its concrete method set),
// and routes every call through an ordered chain of interceptors before the real method runs.
//
// Key types:
//   - Interceptor / InterceptorFunc: one aspect in the chain
//   - Invocation / MethodInvocation: the per-call request, Proceed advances the chain
//   - AdvisedSupport: what is proxied, through which interceptors, with which flags
//   - TargetSource: static, prototype, or pooled targets
//   - Method: interned method descriptor used for interceptor selection
//
// Interceptors see the complete result tuple of a method and return it, usually after calling Proceed:
//
//	timing := dynproxy.InterceptorFunc(func(inv dynproxy.Invocation) ([]any, error) {
//		start := time.Now()
//		results, err := inv.Proceed()
//		log.Printf("%s took %s", inv.Method(), time.Since(start))
//		return results, err
//	})
//
// Proxy construction lives in the reflectengine sub-package.
//
// When ExposeProxy is set, methods whose first parameter is a context.Context receive a context
// on which CurrentProxy returns the proxy, so nested target code can call back through it.
package dynproxy
