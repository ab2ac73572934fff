package interceptors

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 10 * time.Millisecond
	defaultMaxDelay    = time.Second
	defaultJitter      = 0.3
)

var (
	ErrInvalidMaxAttempts  = errors.New("max attempts must be at least 1")
	ErrNegativeBaseDelay   = errors.New("base delay must not be negative")
	ErrInvalidMaxDelay     = errors.New("max delay must not be smaller than the base delay")
	ErrInvalidJitterFactor = errors.New("jitter factor must be between 0 and 1")
	ErrNilRetryIf          = errors.New("retry predicate must not be nil")
)

type retryInterceptor struct {
	maxAttempts      int
	baseDelay        time.Duration
	maxDelay         time.Duration
	jitter           float64
	retryIf          func(error) bool
	metricsCollector dynproxy.MetricsCollector
	logger           dynproxy.Logger
}

// RetryOption configures the retry interceptor.
type RetryOption func(*retryInterceptor) error

// WithMaxAttempts sets the total number of attempts, including the first one.
func WithMaxAttempts(attempts int) RetryOption {
	return func(r *retryInterceptor) error {
		if attempts < 1 {
			return ErrInvalidMaxAttempts
		}

		r.maxAttempts = attempts

		return nil
	}
}

// WithBaseDelay sets the delay before the first retry. Each further retry doubles it.
func WithBaseDelay(delay time.Duration) RetryOption {
	return func(r *retryInterceptor) error {
		if delay < 0 {
			return ErrNegativeBaseDelay
		}

		r.baseDelay = delay

		return nil
	}
}

// WithMaxDelay caps the delay between two attempts.
func WithMaxDelay(delay time.Duration) RetryOption {
	return func(r *retryInterceptor) error {
		if delay < 0 {
			return ErrInvalidMaxDelay
		}

		r.maxDelay = delay

		return nil
	}
}

// WithJitterFactor randomizes each delay by up to ±factor of its value.
func WithJitterFactor(factor float64) RetryOption {
	return func(r *retryInterceptor) error {
		if factor < 0 || factor > 1 {
			return ErrInvalidJitterFactor
		}

		r.jitter = factor

		return nil
	}
}

// WithRetryIf decides which errors are retried. By default every error except
// context cancellation and deadline expiry is retried.
func WithRetryIf(retryIf func(error) bool) RetryOption {
	return func(r *retryInterceptor) error {
		if retryIf == nil {
			return ErrNilRetryIf
		}

		r.retryIf = retryIf

		return nil
	}
}

// WithRetryMetrics records RetriesMetric, RetryDelayMetric and RetriesExhaustedMetric.
func WithRetryMetrics(collector dynproxy.MetricsCollector) RetryOption {
	return func(r *retryInterceptor) error {
		if collector == nil {
			return ErrNilMetricsCollector
		}

		r.metricsCollector = collector

		return nil
	}
}

// WithRetryLogger logs every retry at info level.
func WithRetryLogger(logger dynproxy.Logger) RetryOption {
	return func(r *retryInterceptor) error {
		if logger == nil {
			return ErrNilLogger
		}

		r.logger = logger

		return nil
	}
}

// Retry re-runs the rest of the chain while the method's trailing error result is retryable,
// with exponential backoff and jitter between attempts. Methods without an error result and
// dispatch errors are never retried. Waiting stops when the call's context is done.
func Retry(options ...RetryOption) (dynproxy.Interceptor, error) {
	r := &retryInterceptor{
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		maxDelay:    defaultMaxDelay,
		jitter:      defaultJitter,
		retryIf:     retryable,
	}

	for _, option := range options {
		if err := option(r); err != nil {
			return nil, err
		}
	}

	if r.maxDelay < r.baseDelay {
		return nil, ErrInvalidMaxDelay
	}

	return r, nil
}

func retryable(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (r *retryInterceptor) Invoke(inv dynproxy.Invocation) ([]any, error) {
	m := inv.Method()
	if !m.ReturnsError() {
		return inv.Proceed()
	}

	ctx := inv.Context()

	var results []any
	var err error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		results, err = inv.Proceed()
		if err != nil {
			return results, err
		}

		callErr := dynproxy.CallError(m, results)
		if callErr == nil || !r.retryIf(callErr) {
			return results, nil
		}

		if attempt == r.maxAttempts {
			r.incrementCounter(ctx, RetriesExhaustedMetric, m)
			break
		}

		delay := r.delay(attempt)

		r.incrementCounter(ctx, RetriesMetric, m)
		r.recordDelay(ctx, delay, m)

		if r.logger != nil {
			r.logger.Info(logMsgCallRetried,
				logAttrMethod, m.String(),
				logAttrAttempt, attempt,
				logAttrDelayMS, toMilliseconds(delay),
				logAttrError, callErr.Error(),
			)
		}

		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return dynproxy.WithCallError(m, results, errors.Join(callErr, ctx.Err())), nil
			case <-timer.C:
			}
		}
	}

	return results, nil
}

// delay is baseDelay * 2^(attempt-1), capped at maxDelay, with jitter applied.
func (r *retryInterceptor) delay(attempt int) time.Duration {
	backoff := float64(r.baseDelay) * math.Pow(2, float64(attempt-1))
	if backoff > float64(r.maxDelay) {
		backoff = float64(r.maxDelay)
	}

	if r.jitter > 0 {
		backoff += backoff * r.jitter * (2*rand.Float64() - 1) //nolint:gosec
	}

	return time.Duration(backoff)
}

func (r *retryInterceptor) incrementCounter(ctx context.Context, metric string, m *dynproxy.Method) {
	if r.metricsCollector == nil {
		return
	}

	incrementCounter(ctx, r.metricsCollector, metric, map[string]string{logAttrMethod: m.Name})
}

func (r *retryInterceptor) recordDelay(ctx context.Context, delay time.Duration, m *dynproxy.Method) {
	if r.metricsCollector == nil {
		return
	}

	recordDuration(ctx, r.metricsCollector, RetryDelayMetric, delay, map[string]string{logAttrMethod: m.Name})
}
