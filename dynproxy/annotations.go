package dynproxy

import (
	"fmt"
	"maps"
	"reflect"
)

// AnnotationKind tags what an Annotation carries.
type AnnotationKind uint8

const (
	// AnnotationValue carries a plain value, copied as is.
	AnnotationValue AnnotationKind = iota + 1
	// AnnotationRecord carries a map[string]string record, copied shallowly.
	AnnotationRecord
	// AnnotationBuilder carries a Build func producing the annotation to attach.
	AnnotationBuilder
)

// Annotation is metadata attached to a type or method.
type Annotation struct {
	Kind   AnnotationKind
	Name   string
	Value  any
	Record map[string]string
	Build  func() Annotation
}

// Annotated is implemented by target types that publish metadata.
// The key "" holds type-level annotations, other keys are method names.
// ProxyAnnotations is called on the zero value of the type, so it must not read receiver state.
type Annotated interface {
	ProxyAnnotations() map[string][]Annotation
}

var annotatedType = reflect.TypeFor[Annotated]()

// AnnotationsOf returns the copied annotations of member ("" for the type itself) on t.
func AnnotationsOf(t reflect.Type, member string) ([]Annotation, error) {
	if t == nil || !t.Implements(annotatedType) {
		return nil, nil
	}

	source, ok := reflect.Zero(t).Interface().(Annotated)
	if !ok {
		return nil, nil
	}

	declared := source.ProxyAnnotations()[member]
	copied := make([]Annotation, 0, len(declared))

	for _, a := range declared {
		c, err := CopyAnnotation(a)
		if err != nil {
			return nil, err
		}

		copied = append(copied, c)
	}

	return copied, nil
}

// CopyAnnotation returns the annotation to attach to a generated member.
func CopyAnnotation(a Annotation) (Annotation, error) {
	switch a.Kind {
	case AnnotationValue:
		return a, nil
	case AnnotationRecord:
		a.Record = maps.Clone(a.Record)
		return a, nil
	case AnnotationBuilder:
		if a.Build == nil {
			return Annotation{}, fmt.Errorf("annotation %q has no builder", a.Name)
		}

		built := a.Build()
		if built.Kind == AnnotationBuilder {
			return Annotation{}, fmt.Errorf("annotation %q builds another builder", a.Name)
		}

		return CopyAnnotation(built)
	default:
		return Annotation{}, fmt.Errorf("annotation %q has unknown kind %d", a.Name, a.Kind)
	}
}
