package interceptors

import (
	"context"
	"time"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
)

type metricsInterceptor struct {
	collector dynproxy.MetricsCollector
}

// Metrics records the duration and outcome of every call: CallDurationMetric and CallsMetric
// labelled with method, target type and status, plus CallErrorsMetric for failed calls.
func Metrics(collector dynproxy.MetricsCollector) (dynproxy.Interceptor, error) {
	if collector == nil {
		return nil, ErrNilMetricsCollector
	}

	return &metricsInterceptor{collector: collector}, nil
}

func (m *metricsInterceptor) Invoke(inv dynproxy.Invocation) ([]any, error) {
	start := time.Now()
	results, err := inv.Proceed()
	duration := time.Since(start)

	ctx := inv.Context()
	labels := callLabels(inv, statusOf(callFailure(inv, results, err)))

	recordDuration(ctx, m.collector, CallDurationMetric, duration, labels)
	incrementCounter(ctx, m.collector, CallsMetric, labels)

	if labels[logAttrStatus] != StatusSuccess {
		incrementCounter(ctx, m.collector, CallErrorsMetric, labels)
	}

	return results, err
}

func recordDuration(ctx context.Context, collector dynproxy.MetricsCollector, metric string, d time.Duration, labels map[string]string) {
	if contextual, ok := collector.(dynproxy.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metric, d, labels)
		return
	}

	collector.RecordDuration(metric, d, labels)
}

func incrementCounter(ctx context.Context, collector dynproxy.MetricsCollector, metric string, labels map[string]string) {
	if contextual, ok := collector.(dynproxy.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metric, labels)
		return
	}

	collector.IncrementCounter(metric, labels)
}
