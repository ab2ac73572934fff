package emit

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
)

// Field is a per-object storage slot.
type Field struct {
	Name string
	Type reflect.Type
}

// Constructor initializes a freshly allocated object.
type Constructor func(obj *Object, args ...any) error

// MethodDef is one method of a synthesized type.
type MethodDef struct {
	Name        string
	Signature   *dynproxy.Method
	Body        *Body
	Annotations []dynproxy.Annotation
}

// TypeBuilder collects the members of a type until CreateType.
type TypeBuilder struct {
	module      *Module
	name        string
	base        reflect.Type
	interfaces  []reflect.Type
	fields      []Field
	ctor        Constructor
	methods     []*MethodDef
	annotations []dynproxy.Annotation
	created     bool
}

func (tb *TypeBuilder) Name() string { return tb.name }

func (tb *TypeBuilder) AddInterface(iface reflect.Type) {
	if !slices.Contains(tb.interfaces, iface) {
		tb.interfaces = append(tb.interfaces, iface)
	}
}

// DefineField returns the slot index of the new field.
func (tb *TypeBuilder) DefineField(name string, t reflect.Type) int {
	tb.fields = append(tb.fields, Field{Name: name, Type: t})
	return len(tb.fields) - 1
}

func (tb *TypeBuilder) DefineConstructor(ctor Constructor) {
	tb.ctor = ctor
}

func (tb *TypeBuilder) SetAnnotations(annotations []dynproxy.Annotation) {
	tb.annotations = annotations
}

func (tb *TypeBuilder) DefineMethod(def *MethodDef) error {
	for _, existing := range tb.methods {
		if existing.Name == def.Name {
			return fmt.Errorf("%w: %s.%s", ErrDuplicateMethod, tb.name, def.Name)
		}
	}

	tb.methods = append(tb.methods, def)

	return nil
}

// CreateType finalizes the builder and registers the type in its module.
func (tb *TypeBuilder) CreateType() (*Type, error) {
	if tb.created {
		return nil, fmt.Errorf("%w: %s", ErrTypeCreated, tb.name)
	}

	if tb.ctor == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoConstructor, tb.name)
	}

	t := &Type{
		Name:        tb.name,
		Base:        tb.base,
		Interfaces:  slices.Clone(tb.interfaces),
		Fields:      slices.Clone(tb.fields),
		Annotations: tb.annotations,
		ctor:        tb.ctor,
		methods:     make(map[string]*MethodDef, len(tb.methods)),
		order:       make([]*MethodDef, 0, len(tb.methods)),
	}

	for _, m := range tb.methods {
		t.methods[m.Name] = m
		t.order = append(t.order, m)
	}

	if err := tb.module.register(t); err != nil {
		return nil, err
	}

	tb.created = true

	return t, nil
}

// Type is a created, immutable synthesized type.
type Type struct {
	Name        string
	Base        reflect.Type
	Interfaces  []reflect.Type
	Fields      []Field
	Annotations []dynproxy.Annotation

	ctor    Constructor
	methods map[string]*MethodDef
	order   []*MethodDef
}

func (t *Type) Method(name string) (*MethodDef, bool) {
	m, ok := t.methods[name]
	return m, ok
}

// Methods returns the methods in definition order.
func (t *Type) Methods() []*MethodDef {
	return slices.Clone(t.order)
}

// New allocates an object and runs the constructor.
func (t *Type) New(args ...any) (*Object, error) {
	obj := &Object{Type: t, Fields: make([]any, len(t.Fields))}
	if err := t.ctor(obj, args...); err != nil {
		return nil, err
	}

	return obj, nil
}

// Object is an instance of a synthesized type.
type Object struct {
	Type   *Type
	Base   any
	Fields []any
}
