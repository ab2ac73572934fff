package interceptors

import (
	"cmp"
	"reflect"
	"slices"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
)

// DefaultOrder is the order of interceptors that do not declare one.
const DefaultOrder = 0

// OrderedInterceptor declares its position in a chain. Lower orders run first, i.e. further outside.
type OrderedInterceptor interface {
	dynproxy.Interceptor
	Order() int
}

type orderedInterceptor struct {
	dynproxy.Interceptor
	order int
}

func (o orderedInterceptor) Order() int { return o.order }

// AppliesTo keeps the pointcut of the wrapped interceptor.
func (o orderedInterceptor) AppliesTo(targetType reflect.Type, m *dynproxy.Method) bool {
	return dynproxy.AppliesTo(o.Interceptor, targetType, m)
}

// WithOrder attaches an order to interceptor.
func WithOrder(interceptor dynproxy.Interceptor, order int) OrderedInterceptor {
	return orderedInterceptor{Interceptor: interceptor, order: order}
}

// OrderOf returns the declared order of interceptor, or DefaultOrder.
func OrderOf(interceptor dynproxy.Interceptor) int {
	if o, ok := interceptor.(OrderedInterceptor); ok {
		return o.Order()
	}

	return DefaultOrder
}

// Ordered returns the interceptors sorted by order. Interceptors with equal orders keep their
// relative position. Nil interceptors are dropped.
func Ordered(interceptors ...dynproxy.Interceptor) []dynproxy.Interceptor {
	sorted := slices.DeleteFunc(slices.Clone(interceptors), func(i dynproxy.Interceptor) bool {
		return i == nil
	})

	slices.SortStableFunc(sorted, func(a, b dynproxy.Interceptor) int {
		return cmp.Compare(OrderOf(a), OrderOf(b))
	})

	return sorted
}
