package dynproxy

import (
	"encoding"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"go/token"
	"reflect"
	"slices"
	"strings"
	"sync"
)

// ProxyIgnorer marks an interface that is never selected for proxying.
// Embed it in infrastructure interfaces that must not be intercepted.
type ProxyIgnorer interface {
	ProxyIgnore()
}

// Sealed marks a concrete type that must not be decorated.
type Sealed interface {
	Sealed()
}

var (
	proxyIgnorerType = reflect.TypeFor[ProxyIgnorer]()
	sealedType       = reflect.TypeFor[Sealed]()

	serializationMarkers = []reflect.Type{
		reflect.TypeFor[json.Marshaler](),
		reflect.TypeFor[json.Unmarshaler](),
		reflect.TypeFor[encoding.BinaryMarshaler](),
		reflect.TypeFor[encoding.BinaryUnmarshaler](),
		reflect.TypeFor[gob.GobEncoder](),
		reflect.TypeFor[gob.GobDecoder](),
	}
)

type interfaceRegistry struct {
	mu      sync.RWMutex
	known   []reflect.Type
	ignored map[reflect.Type]struct{}
}

var registry = &interfaceRegistry{ignored: map[reflect.Type]struct{}{}}

// InterfaceOf returns the reflect.Type of interface I.
func InterfaceOf[I any]() reflect.Type {
	return reflect.TypeFor[I]()
}

// RegisterInterface makes I a candidate when interfaces are derived from a target type.
// Go cannot enumerate the interfaces a type implements, so derivation only considers registered ones.
func RegisterInterface[I any]() reflect.Type {
	t := reflect.TypeFor[I]()
	if err := RegisterInterfaceType(t); err != nil {
		panic(err)
	}

	return t
}

// RegisterInterfaceType is the non-generic form of RegisterInterface.
func RegisterInterfaceType(t reflect.Type) error {
	if t == nil || t.Kind() != reflect.Interface {
		return fmt.Errorf("%w: %v", ErrNotAnInterface, t)
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if !slices.Contains(registry.known, t) {
		registry.known = append(registry.known, t)
	}

	return nil
}

// IgnoreInterface excludes t from proxying without touching its declaration.
func IgnoreInterface(t reflect.Type) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	registry.ignored[t] = struct{}{}
}

// IsIgnored reports whether t carries the ignore marker or was ignored explicitly.
func IsIgnored(t reflect.Type) bool {
	if t.Implements(proxyIgnorerType) {
		return true
	}

	registry.mu.RLock()
	defer registry.mu.RUnlock()

	_, ok := registry.ignored[t]

	return ok
}

// IsVisible reports whether t is a named, exported type.
func IsVisible(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer && t.Name() == "" {
		t = t.Elem()
	}

	name := t.Name()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}

	return name != "" && token.IsExported(name)
}

// IsSealed reports whether t cannot be decorated: it is neither a struct nor a pointer to one,
// or it implements Sealed.
func IsSealed(t reflect.Type) bool {
	if t.Implements(sealedType) {
		return true
	}

	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t.Kind() != reflect.Struct
}

func isSerializationMarker(t reflect.Type) bool {
	return slices.Contains(serializationMarkers, t)
}

// IsProxiable reports whether the interface t may be selected for proxying.
func IsProxiable(t reflect.Type) bool {
	return t.Kind() == reflect.Interface && IsVisible(t) && !IsIgnored(t) && !isSerializationMarker(t)
}

// DeriveInterfaces returns the registered interfaces implemented by targetType, in registration order,
// followed by any registered base interface of those not already included.
func DeriveInterfaces(targetType reflect.Type) []reflect.Type {
	if targetType == nil {
		return nil
	}

	registry.mu.RLock()
	known := slices.Clone(registry.known)
	registry.mu.RUnlock()

	var derived []reflect.Type
	for _, iface := range known {
		if targetType.Implements(iface) && IsProxiable(iface) {
			derived = append(derived, iface)
		}
	}

	for _, iface := range slices.Clone(derived) {
		for _, base := range BaseInterfaces(iface) {
			if !slices.Contains(derived, base) {
				derived = append(derived, base)
			}
		}
	}

	return derived
}

// BaseInterfaces returns the registered interfaces whose method set is a strict subset of iface's.
func BaseInterfaces(iface reflect.Type) []reflect.Type {
	registry.mu.RLock()
	known := slices.Clone(registry.known)
	registry.mu.RUnlock()

	var bases []reflect.Type
	for _, candidate := range known {
		if candidate != iface && candidate.NumMethod() < iface.NumMethod() && iface.Implements(candidate) && IsProxiable(candidate) {
			bases = append(bases, candidate)
		}
	}

	return bases
}
