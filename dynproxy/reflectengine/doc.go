// Package reflectengine synthesizes proxy types at run time and dispatches calls through them.
//
// A ProxyFactory picks one of two strategies for its configuration:
//   - composition: the proxy implements only the requested interfaces and reaches the target
//     through its dispatch runtime (the default when interfaces are given)
//   - decoration: the proxy exposes the target's own exported method set plus the interfaces and
//     binds the target's methods statically (when ProxyTargetType is set or no interfaces exist)
//
// Each proxied method body is an op sequence that loads the current interceptors, calls
// them through a dynproxy.Invocation, or calls the target directly when none apply.
// Synthesized types are cached per (base type, target type, interface set, attribute flag).
//
// Go values cannot acquire methods at run time, so a proxy is an *Instance, callable by name
// or through typed funcs. Registering a shape for an interface (see cmd/proxygen) makes
// GetProxy return a value implementing that interface natively:
//
//	f, _ := reflectengine.NewTargetProxyFactory(catalog, []reflect.Type{reflect.TypeFor[Catalog]()},
//		reflectengine.WithLogger(slog.Default()))
//	_ = f.AddInterceptor(interceptors.Logging(slog.Default()))
//	p, _ := f.GetProxy()
//	proxied := p.(Catalog)
//
//	// one-shot form
//	greeter, _ := reflectengine.NewProxy[Greeter](dynproxy.InterceptorFunc(answer))
package reflectengine
