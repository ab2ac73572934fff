package library

import (
	"context"
	"errors"
	"time"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy/interceptors"
	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy/reflectengine"
)

const retryOrder = 100

// ObserveOption configures NewObservedCatalog.
type ObserveOption func(*observeConfig)

type observeConfig struct {
	metrics     dynproxy.MetricsCollector
	tracing     dynproxy.TracingCollector
	maxAttempts int
	baseDelay   time.Duration
}

// WithCatalogMetrics records call metrics and retry metrics.
func WithCatalogMetrics(collector dynproxy.MetricsCollector) ObserveOption {
	return func(c *observeConfig) { c.metrics = collector }
}

// WithCatalogTracing runs every call in its own span.
func WithCatalogTracing(collector dynproxy.TracingCollector) ObserveOption {
	return func(c *observeConfig) { c.tracing = collector }
}

// WithCatalogRetries sets the attempts per call and the first backoff delay.
func WithCatalogRetries(maxAttempts int, baseDelay time.Duration) ObserveOption {
	return func(c *observeConfig) {
		c.maxAttempts = maxAttempts
		c.baseDelay = baseDelay
	}
}

// NewObservedCatalog proxies target through logging, optional metrics and tracing, and retries.
// Lookups of missing books and duplicate additions are answered at once, everything else is
// retried.
func NewObservedCatalog(target Catalog, logger dynproxy.Logger, options ...ObserveOption) (Catalog, error) {
	cfg := observeConfig{maxAttempts: 3, baseDelay: 20 * time.Millisecond}
	for _, option := range options {
		option(&cfg)
	}

	logging, err := interceptors.Logging(logger)
	if err != nil {
		return nil, err
	}

	retryOptions := []interceptors.RetryOption{
		interceptors.WithMaxAttempts(cfg.maxAttempts),
		interceptors.WithBaseDelay(cfg.baseDelay),
		interceptors.WithRetryIf(retryable),
		interceptors.WithRetryLogger(logger),
	}

	chain := []dynproxy.Interceptor{logging}

	if cfg.tracing != nil {
		tracing, tracingErr := interceptors.Tracing(cfg.tracing)
		if tracingErr != nil {
			return nil, tracingErr
		}

		chain = append(chain, tracing)
	}

	if cfg.metrics != nil {
		metrics, metricsErr := interceptors.Metrics(cfg.metrics)
		if metricsErr != nil {
			return nil, metricsErr
		}

		chain = append(chain, metrics)
		retryOptions = append(retryOptions, interceptors.WithRetryMetrics(cfg.metrics))
	}

	retry, err := interceptors.Retry(retryOptions...)
	if err != nil {
		return nil, err
	}

	chain = append(chain, interceptors.WithOrder(retry, retryOrder))

	return reflectengine.Wrap[Catalog](target, interceptors.Ordered(chain...))
}

// NewObservedQuery proxies a query through chain. Narrowing calls return the proxy, so the whole
// fluent sequence stays intercepted.
func NewObservedQuery(query Query, chain ...dynproxy.Interceptor) (Query, error) {
	return reflectengine.Wrap[Query](query, interceptors.Ordered(chain...))
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, ErrBookNotFound), errors.Is(err, ErrDuplicateISBN), errors.Is(err, ErrEmptyISBN):
		return false
	default:
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
}
