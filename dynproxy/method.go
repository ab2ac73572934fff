package dynproxy

import (
	"context"
	"reflect"
	"sync"
)

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
)

// Method describes one proxied or target method.
// Descriptors are interned per declaring type, so they can be compared by pointer.
type Method struct {
	Name          string
	DeclaringType reflect.Type
	// Type is the method's func type without the receiver.
	Type  reflect.Type
	Index int
}

var methodTable sync.Map // reflect.Type -> []*Method

// MethodsOf returns the exported method descriptors of an interface or concrete type.
func MethodsOf(t reflect.Type) []*Method {
	if t == nil {
		return nil
	}

	if cached, ok := methodTable.Load(t); ok {
		return cached.([]*Method)
	}

	methods := make([]*Method, 0, t.NumMethod())
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if !m.IsExported() {
			continue
		}

		fnType := m.Type
		if t.Kind() != reflect.Interface {
			fnType = withoutReceiver(m.Type)
		}

		methods = append(methods, &Method{Name: m.Name, DeclaringType: t, Type: fnType, Index: i})
	}

	actual, _ := methodTable.LoadOrStore(t, methods)

	return actual.([]*Method)
}

// FindMethod looks up an exported method descriptor by name.
func FindMethod(t reflect.Type, name string) (*Method, bool) {
	for _, m := range MethodsOf(t) {
		if m.Name == name {
			return m, true
		}
	}

	return nil, false
}

func withoutReceiver(fn reflect.Type) reflect.Type {
	in := make([]reflect.Type, 0, fn.NumIn()-1)
	for i := 1; i < fn.NumIn(); i++ {
		in = append(in, fn.In(i))
	}

	out := make([]reflect.Type, 0, fn.NumOut())
	for i := 0; i < fn.NumOut(); i++ {
		out = append(out, fn.Out(i))
	}

	return reflect.FuncOf(in, out, fn.IsVariadic())
}

func (m *Method) String() string {
	if m == nil {
		return "<nil method>"
	}

	if m.DeclaringType == nil {
		return m.Name
	}

	return m.DeclaringType.String() + "." + m.Name
}

func (m *Method) NumIn() int { return m.Type.NumIn() }

func (m *Method) NumOut() int { return m.Type.NumOut() }

func (m *Method) In(i int) reflect.Type { return m.Type.In(i) }

func (m *Method) Out(i int) reflect.Type { return m.Type.Out(i) }

// IsVariadic reports whether the last parameter is a ... parameter.
func (m *Method) IsVariadic() bool { return m.Type.IsVariadic() }

// ReturnsError reports whether the last result is an error.
func (m *Method) ReturnsError() bool {
	n := m.Type.NumOut()
	return n > 0 && m.Type.Out(n-1) == errorType
}

// AcceptsContext reports whether the first parameter is a context.Context.
func (m *Method) AcceptsContext() bool {
	return m.Type.NumIn() > 0 && m.Type.In(0) == contextType
}

// IsByRef reports whether parameter i is a pointer to a value kind, the Go form of an in/out parameter.
func (m *Method) IsByRef(i int) bool {
	return IsByRefType(m.Type.In(i))
}

// HasByRef reports whether any parameter is passed by reference.
func (m *Method) HasByRef() bool {
	for i := 0; i < m.Type.NumIn(); i++ {
		if m.IsByRef(i) {
			return true
		}
	}

	return false
}

// HasReferenceResult reports whether any result can hold a reference to the target.
func (m *Method) HasReferenceResult() bool {
	for i := 0; i < m.Type.NumOut(); i++ {
		if IsReferenceType(m.Type.Out(i)) {
			return true
		}
	}

	return false
}

// IsByRefType reports whether t is a pointer to bool, a number or a string.
func IsByRefType(t reflect.Type) bool {
	if t.Kind() != reflect.Pointer {
		return false
	}

	switch t.Elem().Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	default:
		return false
	}
}

// IsReferenceType reports whether values of t are compared by identity.
func IsReferenceType(t reflect.Type) bool {
	return t != errorType && (t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface)
}
