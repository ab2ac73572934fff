package reflectengine

import (
	"errors"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
)

var (
	ErrNilLogger           = errors.New("logger must not be nil")
	ErrNilMetricsCollector = errors.New("metrics collector must not be nil")
	ErrNilTracingCollector = errors.New("tracing collector must not be nil")
	ErrNilTypeCache        = errors.New("type cache must not be nil")
)

// Option defines a functional option for configuring a ProxyFactory.
type Option func(*ProxyFactory) error

// WithLogger sets the logger for the ProxyFactory.
// Debug level: proxy type builds and cache hits
// Error level: failed proxy constructions.
func WithLogger(logger dynproxy.Logger) Option {
	return func(f *ProxyFactory) error {
		if logger == nil {
			return ErrNilLogger
		}

		f.logger = logger

		return nil
	}
}

// WithContextualLogger sets a context-aware logger; it takes precedence over WithLogger.
func WithContextualLogger(logger dynproxy.ContextualLogger) Option {
	return func(f *ProxyFactory) error {
		if logger == nil {
			return ErrNilLogger
		}

		f.contextualLogger = logger

		return nil
	}
}

// WithMetrics sets the metrics collector for proxy type builds, cache hits, and construction errors.
func WithMetrics(collector dynproxy.MetricsCollector) Option {
	return func(f *ProxyFactory) error {
		if collector == nil {
			return ErrNilMetricsCollector
		}

		f.metricsCollector = collector

		return nil
	}
}

// WithTracing sets the tracing collector; every proxy construction runs in its own span.
func WithTracing(collector dynproxy.TracingCollector) Option {
	return func(f *ProxyFactory) error {
		if collector == nil {
			return ErrNilTracingCollector
		}

		f.tracingCollector = collector

		return nil
	}
}

// WithTypeCache replaces the process-wide type cache, mostly for isolated tests.
func WithTypeCache(cache *TypeCache) Option {
	return func(f *ProxyFactory) error {
		if cache == nil {
			return ErrNilTypeCache
		}

		f.cache = cache

		return nil
	}
}
