package interceptors

import (
	"context"
	"errors"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
)

const (
	logMsgCallStarted   = "proxied call started"
	logMsgCallCompleted = "proxied call completed"
	logMsgCallFailed    = "proxied call failed"
	logMsgCallRetried   = "proxied call retried"
	logAttrCallID       = "call_id"
	logAttrMethod       = "method"
	logAttrTargetType   = "target_type"
	logAttrArguments    = "arguments"
	logAttrStatus       = "status"
	logAttrError        = "error"
	logAttrDurationMS   = "duration_ms"
	logAttrAttempt      = "attempt"
	logAttrDelayMS      = "delay_ms"

	// CallDurationMetric tracks proxied call durations.
	CallDurationMetric = "dynproxy_call_duration_seconds"
	// CallsMetric counts proxied calls.
	CallsMetric = "dynproxy_calls_total"
	// CallErrorsMetric counts proxied calls that failed.
	CallErrorsMetric = "dynproxy_call_errors_total"
	// RetriesMetric counts retried attempts.
	RetriesMetric = "dynproxy_call_retries_total"
	// RetryDelayMetric tracks the backoff before each retry.
	RetryDelayMetric = "dynproxy_call_retry_delay_seconds"
	// RetriesExhaustedMetric counts calls that failed after the last attempt.
	RetriesExhaustedMetric = "dynproxy_call_retries_exhausted_total"

	// SpanNameCall is the span name of a proxied call.
	SpanNameCall = "dynproxy.call"

	StatusSuccess  = "success"
	StatusError    = "error"
	StatusCanceled = "canceled"
	StatusTimeout  = "timeout"
)

var (
	ErrNilLogger           = errors.New("logger must not be nil")
	ErrNilMetricsCollector = errors.New("metrics collector must not be nil")
	ErrNilTracingCollector = errors.New("tracing collector must not be nil")
)

// callFailure returns the dispatch error, or else the method's own trailing error result.
func callFailure(inv dynproxy.Invocation, results []any, err error) error {
	if err != nil {
		return err
	}

	return dynproxy.CallError(inv.Method(), results)
}

// statusOf classifies the outcome of a call.
func statusOf(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, context.Canceled):
		return StatusCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout
	default:
		return StatusError
	}
}

func targetTypeName(inv dynproxy.Invocation) string {
	if inv.TargetType() == nil {
		return ""
	}

	return inv.TargetType().String()
}

// callLabels are the metric labels of one call.
func callLabels(inv dynproxy.Invocation, status string) map[string]string {
	return map[string]string{
		logAttrMethod:     inv.Method().Name,
		logAttrTargetType: targetTypeName(inv),
		logAttrStatus:     status,
	}
}
