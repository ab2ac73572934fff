// Package interceptors provides ready-made dynproxy interceptors for cross-cutting concerns:
// logging, metrics, tracing, and retries with exponential backoff.
//
// All of them call Proceed and inspect the trailing error result of the proxied method,
// so they work with any method signature. Combine them in a deliberate order with Ordered:
//
//	chain := interceptors.Ordered(
//		interceptors.WithOrder(tracing, 10),
//		interceptors.WithOrder(logging, 20),
//		interceptors.WithOrder(retry, 30),
//	)
//	greeter, err := reflectengine.Wrap[Greeter](target, chain)
package interceptors
