package reflectengine

import (
	"context"
	"errors"
	"reflect"
	"time"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy/reflectengine/internal/emit"
)

const (
	logMsgProxyTypeBuilt      = "proxy type built"
	logMsgProxyTypeCached     = "proxy type served from cache"
	logMsgProxyCreationFailed = "proxy creation failed"
	logAttrError              = "error"
	logAttrProxyType          = "proxy_type"
	logAttrStrategy           = "strategy"
	logAttrTargetType         = "target_type"
	logAttrInterfaces         = "interfaces"
	logAttrMethods            = "methods"
	logAttrDurationMS         = "duration_ms"
	spanNameGetProxy          = "dynproxy.get_proxy"
	spanAttrStrategy          = "proxy.strategy"
	spanAttrTargetType        = "proxy.target_type"
	spanAttrProxyType         = "proxy.type"
	spanAttrCacheHit          = "proxy.cache_hit"
	spanAttrErrorType         = "error_type"
	metricTypeBuildDuration   = "dynproxy_type_build_duration_seconds"
	metricTypeCacheHits       = "dynproxy_type_cache_hits_total"
	metricTypeCacheMisses     = "dynproxy_type_cache_misses_total"
	metricCreationErrors      = "dynproxy_creation_errors_total"
	metricCachedTypes         = "dynproxy_cached_types"
	statusSuccess             = "success"
	statusError               = "error"
	errorTypeConstruction     = "construction_error"
	errorTypeInstantiation    = "instantiation_error"
)

// ProxyFactory is the entry point for proxy creation. It embeds the configuration it proxies,
// so interceptors, interfaces and flags are set directly on the factory.
type ProxyFactory struct {
	*dynproxy.AdvisedSupport

	cache            *TypeCache
	module           *emit.Module
	logger           dynproxy.Logger
	contextualLogger dynproxy.ContextualLogger
	metricsCollector dynproxy.MetricsCollector
	tracingCollector dynproxy.TracingCollector
}

// NewProxyFactory creates a factory for target, deriving the interfaces from the registered
// interfaces target implements.
func NewProxyFactory(target any, options ...Option) (*ProxyFactory, error) {
	var interfaces []reflect.Type
	if target != nil {
		interfaces = dynproxy.DeriveInterfaces(reflect.TypeOf(target))
	}

	return NewTargetProxyFactory(target, interfaces, options...)
}

// NewInterfaceProxyFactory creates a factory for the given interfaces without a target.
// Such proxies only work through interceptors that answer calls themselves.
func NewInterfaceProxyFactory(interfaces []reflect.Type, options ...Option) (*ProxyFactory, error) {
	return NewTargetProxyFactory(nil, interfaces, options...)
}

// NewTargetProxyFactory creates a factory for target and an explicit interface list.
func NewTargetProxyFactory(target any, interfaces []reflect.Type, options ...Option) (*ProxyFactory, error) {
	advised, err := dynproxy.NewAdvisedSupport(target, interfaces...)
	if err != nil {
		return nil, err
	}

	f := &ProxyFactory{
		AdvisedSupport: advised,
		cache:          DefaultTypeCache(),
		module:         emit.DefaultModule(),
	}

	for _, option := range options {
		if err := option(f); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// GetProxy returns the outward proxy: a shape implementing the interfaces when registered,
// else the *Instance.
func (f *ProxyFactory) GetProxy() (any, error) {
	inst, err := f.GetInstance()
	if err != nil {
		return nil, err
	}

	return inst.GetProxy(), nil
}

// GetInstance synthesizes or reuses the proxy type and instantiates it for this configuration.
// Construction errors surface here, never at call time. A successful call freezes the target
// source, interfaces and flags, so created instances never change shape or target afterwards;
// interceptors can still be added until Freeze.
func (f *ProxyFactory) GetInstance() (*Instance, error) {
	strategy := f.selectStrategy()

	ctx, span := f.startSpan(context.Background(), spanNameGetProxy, map[string]string{
		spanAttrStrategy:   string(strategy.kind()),
		spanAttrTargetType: typeName(strategy.targetType()),
	})

	pt, hit, err := f.proxyType(ctx, strategy)
	if err != nil {
		f.failed(ctx, span, err, errorTypeConstruction)
		return nil, err
	}

	inst, err := pt.NewInstance(f.AdvisedSupport)
	if err != nil {
		f.failed(ctx, span, err, errorTypeInstantiation)
		return nil, err
	}

	f.FreezeStructure()

	f.finishSpan(span, statusSuccess, map[string]string{
		spanAttrProxyType: pt.Name(),
		spanAttrCacheHit:  boolString(hit),
	})

	return inst, nil
}

// ProxyType returns the synthesized type the configuration currently maps to.
func (f *ProxyFactory) ProxyType() (*ProxyType, error) {
	pt, _, err := f.proxyType(context.Background(), f.selectStrategy())
	return pt, err
}

// selectStrategy decorates when asked to proxy the target type or when there is nothing to compose.
func (f *ProxyFactory) selectStrategy() typeStrategy {
	interfaces := f.Interfaces()

	if f.ProxyTargetType() || len(interfaces) == 0 {
		return newDecorationStrategy(f.TargetType(), interfaces)
	}

	return newCompositionStrategy(f.TargetType(), interfaces)
}

func (f *ProxyFactory) proxyType(ctx context.Context, strategy typeStrategy) (*ProxyType, bool, error) {
	key := NewTypeKey(strategy.baseType(), strategy.targetType(), strategy.interfaces(), f.ProxyTargetAttributes())

	pt, hit, err := f.cache.GetOrBuild(key, func() (*ProxyType, error) {
		start := time.Now()

		built, err := buildProxyType(strategy, f.module, key)
		if err != nil {
			return nil, err
		}

		duration := time.Since(start)
		f.recordDuration(ctx, metricTypeBuildDuration, duration, string(strategy.kind()))
		f.logDebug(ctx, logMsgProxyTypeBuilt,
			logAttrProxyType, built.Name(),
			logAttrStrategy, string(strategy.kind()),
			logAttrTargetType, typeName(strategy.targetType()),
			logAttrInterfaces, len(strategy.interfaces()),
			logAttrMethods, len(built.order),
			logAttrDurationMS, toMilliseconds(duration),
		)

		return built, nil
	})
	if err != nil {
		return nil, false, err
	}

	if hit {
		f.incrementCounter(ctx, metricTypeCacheHits, string(strategy.kind()))
		f.logDebug(ctx, logMsgProxyTypeCached, logAttrProxyType, pt.Name())
	} else {
		f.incrementCounter(ctx, metricTypeCacheMisses, string(strategy.kind()))
		f.recordValue(ctx, metricCachedTypes, float64(f.cache.Count()), string(strategy.kind()))
	}

	return pt, hit, nil
}

func (f *ProxyFactory) failed(ctx context.Context, span dynproxy.SpanContext, err error, errorType string) {
	f.logError(ctx, logMsgProxyCreationFailed, err, logAttrTargetType, typeName(f.TargetType()))
	f.recordError(ctx, errorType)
	f.finishSpan(span, statusError, map[string]string{spanAttrErrorType: errorType})
}

// NewProxy is the one-shot form: a proxy for interface I without a target, answered by interceptor.
// I needs a registered shape.
func NewProxy[I any](interceptor dynproxy.Interceptor, options ...Option) (I, error) {
	var zero I

	f, err := NewInterfaceProxyFactory([]reflect.Type{reflect.TypeFor[I]()}, options...)
	if err != nil {
		return zero, err
	}

	if err := f.AddInterceptor(interceptor); err != nil {
		return zero, err
	}

	return proxyAs[I](f)
}

// Wrap proxies target through interface I with the given interceptors. I needs a registered shape.
func Wrap[I any](target I, interceptors []dynproxy.Interceptor, options ...Option) (I, error) {
	var zero I

	f, err := NewTargetProxyFactory(target, []reflect.Type{reflect.TypeFor[I]()}, options...)
	if err != nil {
		return zero, err
	}

	if err := f.AddInterceptor(interceptors...); err != nil {
		return zero, err
	}

	return proxyAs[I](f)
}

func proxyAs[I any](f *ProxyFactory) (I, error) {
	inst, err := f.GetInstance()
	if err != nil {
		var zero I
		return zero, err
	}

	return Face[I](inst)
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	return t.String()
}

func boolString(b bool) string {
	if b {
		return "true"
	}

	return "false"
}

// IsConstructionError reports whether err aborted a proxy construction.
func IsConstructionError(err error) bool {
	return errors.Is(err, dynproxy.ErrNonVisibleType) ||
		errors.Is(err, dynproxy.ErrSealedType) ||
		errors.Is(err, dynproxy.ErrTypeNameCollision) ||
		errors.Is(err, dynproxy.ErrMethodConflict) ||
		errors.Is(err, dynproxy.ErrNilTargetType) ||
		errors.Is(err, dynproxy.ErrNotAnInterface)
}
