package reflectengine

import (
	"context"
	"math"
	"time"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
)

// logDebug logs at debug level, preferring the contextual logger.
func (f *ProxyFactory) logDebug(ctx context.Context, msg string, args ...any) {
	if f.contextualLogger != nil {
		f.contextualLogger.DebugContext(ctx, msg, args...)
		return
	}

	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}

// logError logs error information at the error level if a logger is configured.
func (f *ProxyFactory) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if f.contextualLogger != nil {
		f.contextualLogger.ErrorContext(ctx, msg, allArgs...)
		return
	}

	if f.logger != nil {
		f.logger.Error(msg, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

func (f *ProxyFactory) recordDuration(ctx context.Context, metric string, d time.Duration, strategy string) {
	if f.metricsCollector == nil {
		return
	}

	labels := map[string]string{logAttrStrategy: strategy}

	if contextual, ok := f.metricsCollector.(dynproxy.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metric, d, labels)
	} else {
		f.metricsCollector.RecordDuration(metric, d, labels)
	}
}

func (f *ProxyFactory) incrementCounter(ctx context.Context, metric string, strategy string) {
	if f.metricsCollector == nil {
		return
	}

	labels := map[string]string{logAttrStrategy: strategy}

	if contextual, ok := f.metricsCollector.(dynproxy.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metric, labels)
	} else {
		f.metricsCollector.IncrementCounter(metric, labels)
	}
}

func (f *ProxyFactory) recordValue(ctx context.Context, metric string, value float64, strategy string) {
	if f.metricsCollector == nil {
		return
	}

	labels := map[string]string{logAttrStrategy: strategy}

	if contextual, ok := f.metricsCollector.(dynproxy.ContextualMetricsCollector); ok {
		contextual.RecordValueContext(ctx, metric, value, labels)
	} else {
		f.metricsCollector.RecordValue(metric, value, labels)
	}
}

func (f *ProxyFactory) recordError(ctx context.Context, errorType string) {
	if f.metricsCollector == nil {
		return
	}

	labels := map[string]string{"status": statusError, spanAttrErrorType: errorType}

	if contextual, ok := f.metricsCollector.(dynproxy.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metricCreationErrors, labels)
	} else {
		f.metricsCollector.IncrementCounter(metricCreationErrors, labels)
	}
}

// startSpan starts a tracing span if the tracing collector is configured.
func (f *ProxyFactory) startSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, dynproxy.SpanContext) {
	if f.tracingCollector == nil {
		return ctx, nil
	}

	return f.tracingCollector.StartSpan(ctx, name, attrs)
}

// finishSpan finishes a tracing span if the tracing collector is configured.
func (f *ProxyFactory) finishSpan(span dynproxy.SpanContext, status string, attrs map[string]string) {
	if f.tracingCollector == nil || span == nil {
		return
	}

	f.tracingCollector.FinishSpan(span, status, attrs)
}
