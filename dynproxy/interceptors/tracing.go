package interceptors

import (
	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
)

const (
	spanAttrMethod     = "proxy.method"
	spanAttrTargetType = "proxy.target_type"
	spanAttrError      = "error"
)

type tracingInterceptor struct {
	collector dynproxy.TracingCollector
}

// Tracing runs every call in a span named SpanNameCall. Methods taking a context.Context first
// receive the span's context, so spans started by the target become children.
func Tracing(collector dynproxy.TracingCollector) (dynproxy.Interceptor, error) {
	if collector == nil {
		return nil, ErrNilTracingCollector
	}

	return &tracingInterceptor{collector: collector}, nil
}

func (t *tracingInterceptor) Invoke(inv dynproxy.Invocation) ([]any, error) {
	m := inv.Method()

	spanCtx, span := t.collector.StartSpan(inv.Context(), SpanNameCall, map[string]string{
		spanAttrMethod:     m.String(),
		spanAttrTargetType: targetTypeName(inv),
	})

	if m.AcceptsContext() {
		original := inv.Arguments()[0]
		inv.SetArgument(0, spanCtx)
		defer inv.SetArgument(0, original)
	}

	results, err := inv.Proceed()

	failure := callFailure(inv, results, err)
	var attrs map[string]string
	if failure != nil {
		attrs = map[string]string{spanAttrError: failure.Error()}
	}

	t.collector.FinishSpan(span, statusOf(failure), attrs)

	return results, err
}
