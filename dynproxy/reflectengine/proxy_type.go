package reflectengine

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy/reflectengine/internal/emit"
)

// ProxyType is a synthesized proxy type. It is immutable and shared by all instances
// created for the same structural key.
type ProxyType struct {
	typ      *emit.Type
	strategy typeStrategy
	key      TypeKey
	plans    map[string]*methodPlan
	order    []*methodPlan
}

func (t *ProxyType) Name() string { return t.typ.Name }

func (t *ProxyType) Strategy() Strategy { return t.strategy.kind() }

func (t *ProxyType) Key() TypeKey { return t.key }

func (t *ProxyType) BaseType() reflect.Type { return t.typ.Base }

func (t *ProxyType) TargetType() reflect.Type { return t.strategy.targetType() }

func (t *ProxyType) Interfaces() []reflect.Type { return slices.Clone(t.typ.Interfaces) }

// Methods returns the exposed method signatures in emission order.
func (t *ProxyType) Methods() []*dynproxy.Method {
	methods := make([]*dynproxy.Method, len(t.order))
	for i, plan := range t.order {
		methods[i] = plan.exposed
	}

	return methods
}

// Listing returns the op names of a method body.
func (t *ProxyType) Listing(method string) ([]string, bool) {
	plan, ok := t.plans[method]
	if !ok {
		return nil, false
	}

	ops := plan.body.Listing()
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.String()
	}

	return names, true
}

// Disassemble renders a method body for debugging.
func (t *ProxyType) Disassemble(method string) string {
	if plan, ok := t.plans[method]; ok {
		return plan.body.String()
	}

	return ""
}

// Annotations returns the annotations copied onto the type ("") or one of its methods.
func (t *ProxyType) Annotations(member string) []dynproxy.Annotation {
	if member == "" {
		return t.typ.Annotations
	}

	if def, ok := t.typ.Method(member); ok {
		return def.Annotations
	}

	return nil
}

// NewInstance creates a proxy bound to advised. When a registered shape implements every
// interface of the type, the shape becomes the instance's outward proxy.
func (t *ProxyType) NewInstance(advised dynproxy.Advised) (*Instance, error) {
	obj, err := t.typ.New(advised)
	if err != nil {
		return nil, err
	}

	inst := &Instance{object: obj, ptype: t}
	inst.face = inst

	for _, iface := range t.typ.Interfaces {
		build, ok := dynproxy.ShapeFor(iface)
		if !ok {
			continue
		}

		if face := build(inst); implementsAll(face, t.typ.Interfaces) {
			inst.face = face
			break
		}
	}

	return inst, nil
}

func implementsAll(v any, interfaces []reflect.Type) bool {
	vt := reflect.TypeOf(v)
	for _, iface := range interfaces {
		if !vt.Implements(iface) {
			return false
		}
	}

	return true
}

// Instance is one proxy object. It can be called by method name, bound to typed funcs, and
// serves as the Handler behind shapes.
type Instance struct {
	object *emit.Object
	ptype  *ProxyType
	face   any
}

func (p *Instance) dispatch() *AdvisedProxy {
	return p.ptype.strategy.dispatchOf(p.object)
}

// GetProxy returns the outward proxy: the shape when one is attached, else the instance itself.
func (p *Instance) GetProxy() any { return p.face }

func (p *Instance) Type() *ProxyType { return p.ptype }

func (p *Instance) Advised() dynproxy.Advised { return p.dispatch().Advised() }

// Call runs the proxied method. The error reports dispatch failures only,
// the method's own error result is part of the returned values.
func (p *Instance) Call(method string, args ...any) ([]any, error) {
	plan, ok := p.ptype.plans[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", dynproxy.ErrMethodNotFound, method, p.ptype.Name())
	}

	if len(args) != plan.exposed.NumIn() {
		return nil, fmt.Errorf("%w: %s expects %d arguments, got %d",
			dynproxy.ErrIncorrectArgumentCount, plan.exposed, plan.exposed.NumIn(), len(args))
	}

	frame := &emit.Frame{Self: p, Args: slices.Clone(args)}
	plan.body.Run(frame)

	return frame.Results, frame.Err
}

// Invoke implements dynproxy.Handler. A dispatch error is returned in the trailing error result,
// methods without one panic with it.
func (p *Instance) Invoke(method string, args ...any) []any {
	results, err := p.Call(method, args...)
	if err == nil {
		return results
	}

	plan, ok := p.ptype.plans[method]
	if !ok || !plan.exposed.ReturnsError() {
		panic(err)
	}

	return dynproxy.WithCallError(plan.exposed, nil, err)
}

// Func binds a typed function to a proxied method. fnPtr must point to a func variable
// whose type equals the method's signature.
func (p *Instance) Func(method string, fnPtr any) error {
	plan, ok := p.ptype.plans[method]
	if !ok {
		return fmt.Errorf("%w: %s on %s", dynproxy.ErrMethodNotFound, method, p.ptype.Name())
	}

	ptr := reflect.ValueOf(fnPtr)
	if ptr.Kind() != reflect.Pointer || ptr.IsNil() || ptr.Elem().Type() != plan.exposed.Type {
		return fmt.Errorf("%w: want *%s, got %T", dynproxy.ErrInvalidArgumentValue, plan.exposed.Type, fnPtr)
	}

	m := plan.exposed
	fn := reflect.MakeFunc(m.Type, func(in []reflect.Value) []reflect.Value {
		results := p.Invoke(method, dynproxy.Interfaces(in)...)

		out := make([]reflect.Value, m.NumOut())
		for i := range out {
			v, err := dynproxy.ConvertValue(results[i], m.Out(i))
			if err != nil {
				panic(err)
			}
			out[i] = v
		}

		return out
	})

	ptr.Elem().Set(fn)

	return nil
}

// As returns the instance viewed through the shape registered for iface.
func (p *Instance) As(iface reflect.Type) (any, error) {
	if reflect.TypeOf(p.face).Implements(iface) {
		return p.face, nil
	}

	build, ok := dynproxy.ShapeFor(iface)
	if !ok {
		return nil, fmt.Errorf("%w: %s", dynproxy.ErrShapeMissing, iface)
	}

	return build(p), nil
}

// Face returns the instance as I through a registered shape.
func Face[I any](p *Instance) (I, error) {
	face, err := p.As(reflect.TypeFor[I]())
	if err != nil {
		var zero I
		return zero, err
	}

	return dynproxy.As[I](face)
}

var (
	_ dynproxy.Handler = (*Instance)(nil)
	_ dynproxy.Proxy   = (*Instance)(nil)
)
