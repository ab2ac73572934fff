package dynproxy

import (
	"fmt"
	"reflect"
	"sync"
)

// Handler receives every call made through a shape.
// Variadic arguments are passed as one slice. The result holds one value per declared result.
type Handler interface {
	Invoke(method string, args ...any) []any
}

// Proxy is implemented by synthesized proxy instances. GetProxy returns the outward proxy value,
// which is the registered shape when there is one.
type Proxy interface {
	GetProxy() any
}

// Shaped is implemented by shapes to expose the handler behind them.
type Shaped interface {
	ProxyHandler() Handler
}

// ShapeConstructor builds a value implementing an interface by forwarding to a Handler.
type ShapeConstructor func(h Handler) any

var shapes sync.Map // reflect.Type -> ShapeConstructor

// RegisterShape registers the shape constructor for interface I and makes I derivable.
// Generated shape files call it from init.
func RegisterShape[I any](build func(h Handler) I) reflect.Type {
	t := RegisterInterface[I]()
	shapes.Store(t, ShapeConstructor(func(h Handler) any { return build(h) }))

	return t
}

// ShapeFor returns the shape constructor registered for iface.
func ShapeFor(iface reflect.Type) (ShapeConstructor, bool) {
	build, ok := shapes.Load(iface)
	if !ok {
		return nil, false
	}

	return build.(ShapeConstructor), true
}

// HandlerOf returns the handler behind a shape.
func HandlerOf(face any) (Handler, bool) {
	if shaped, ok := face.(Shaped); ok {
		return shaped.ProxyHandler(), true
	}

	return nil, false
}

// As converts a proxy value to I, failing when no registered shape made it implement I.
func As[I any](proxy any) (I, error) {
	if face, ok := proxy.(I); ok {
		return face, nil
	}

	var zero I

	return zero, fmt.Errorf("%w: %T does not implement %s", ErrShapeMissing, proxy, reflect.TypeFor[I]())
}
