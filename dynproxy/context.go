package dynproxy

import (
	"context"
)

type proxyStackKey struct{}

// proxyFrame is one immutable entry of the exposed-proxy stack.
type proxyFrame struct {
	proxy  any
	parent context.Context
	depth  int
}

func frameOf(ctx context.Context) *proxyFrame {
	if ctx == nil {
		return nil
	}

	frame, _ := ctx.Value(proxyStackKey{}).(*proxyFrame)

	return frame
}

// PushProxy returns a context in which proxy is the current proxy.
// The stack lives in the context, so concurrent calls never see each other's entries
// and an unwinding panic cannot leave an entry behind.
func PushProxy(ctx context.Context, proxy any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	depth := 1
	if outer := frameOf(ctx); outer != nil {
		depth = outer.depth + 1
	}

	return context.WithValue(ctx, proxyStackKey{}, &proxyFrame{proxy: proxy, parent: ctx, depth: depth})
}

// PopProxy returns the context that was active before the innermost PushProxy.
func PopProxy(ctx context.Context) (context.Context, error) {
	frame := frameOf(ctx)
	if frame == nil {
		return ctx, ErrProxyStackEmpty
	}

	return frame.parent, nil
}

// CurrentProxy returns the innermost proxy exposed on ctx.
func CurrentProxy(ctx context.Context) (any, error) {
	frame := frameOf(ctx)
	if frame == nil {
		return nil, ErrNoCurrentProxy
	}

	return frame.proxy, nil
}

// IsProxyActive reports whether ctx carries an exposed proxy.
func IsProxyActive(ctx context.Context) bool {
	return frameOf(ctx) != nil
}

// ProxyDepth is the number of exposed proxies stacked on ctx.
func ProxyDepth(ctx context.Context) int {
	if frame := frameOf(ctx); frame != nil {
		return frame.depth
	}

	return 0
}
