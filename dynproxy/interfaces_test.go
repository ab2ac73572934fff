package dynproxy_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
)

type Auditable interface {
	Audit() string
}

type internalHook interface {
	Hook()
}

type Infrastructure interface {
	dynproxy.ProxyIgnorer
	Ping() error
}

type Skipped interface {
	Skip()
}

type Box[T any] struct{ Value T }

func (b *Box[T]) Audit() string { return "box" }

type document struct{}

func (document) Name() string                 { return "doc" }
func (document) Title() string                { return "Doc" }
func (document) Audit() string                { return "audited" }
func (document) Hook()                        {}
func (document) ProxyIgnore()                 {}
func (document) Ping() error                  { return nil }
func (document) Skip()                        {}
func (document) MarshalJSON() ([]byte, error) { return []byte(`{}`), nil }

func init() {
	dynproxy.RegisterInterface[Named]()
	dynproxy.RegisterInterface[Titled]()
	dynproxy.RegisterInterface[Auditable]()
	dynproxy.RegisterInterface[internalHook]()
	dynproxy.RegisterInterface[Infrastructure]()
	dynproxy.RegisterInterface[Skipped]()
	dynproxy.RegisterInterface[json.Marshaler]()
	dynproxy.IgnoreInterface(reflect.TypeFor[Skipped]())
}

func Test_DeriveInterfaces(t *testing.T) {
	derived := dynproxy.DeriveInterfaces(reflect.TypeFor[document]())

	assert.Equal(t, []reflect.Type{
		reflect.TypeFor[Named](),
		reflect.TypeFor[Titled](),
		reflect.TypeFor[Auditable](),
	}, derived, "hidden, ignored and serialization interfaces are skipped")

	assert.Nil(t, dynproxy.DeriveInterfaces(nil))
}

func Test_BaseInterfaces(t *testing.T) {
	assert.Equal(t, []reflect.Type{reflect.TypeFor[Named]()}, dynproxy.BaseInterfaces(reflect.TypeFor[Titled]()))
	assert.Empty(t, dynproxy.BaseInterfaces(reflect.TypeFor[Named]()))
}

func Test_RegisterInterface_RejectsConcreteTypes(t *testing.T) {
	assert.Panics(t, func() { dynproxy.RegisterInterface[document]() })
	assert.ErrorIs(t, dynproxy.RegisterInterfaceType(nil), dynproxy.ErrNotAnInterface)
}

func Test_IsVisible(t *testing.T) {
	assert.True(t, dynproxy.IsVisible(reflect.TypeFor[Auditable]()))
	assert.True(t, dynproxy.IsVisible(reflect.TypeFor[*Box[string]]()), "generic instantiations use their base name")
	assert.False(t, dynproxy.IsVisible(reflect.TypeFor[internalHook]()))
	assert.False(t, dynproxy.IsVisible(reflect.TypeFor[*document]()))
	assert.False(t, dynproxy.IsVisible(reflect.TypeFor[struct{}]()))
}

func Test_IsSealed(t *testing.T) {
	assert.False(t, dynproxy.IsSealed(reflect.TypeFor[*Box[int]]()))
	assert.True(t, dynproxy.IsSealed(reflect.TypeFor[Priority]()), "only structs can be decorated")
	assert.True(t, dynproxy.IsSealed(reflect.TypeFor[*sealedBox]()))
}

type sealedBox struct{}

func (*sealedBox) Sealed() {}

func Test_IsIgnored(t *testing.T) {
	assert.True(t, dynproxy.IsIgnored(reflect.TypeFor[Infrastructure]()))
	assert.True(t, dynproxy.IsIgnored(reflect.TypeFor[Skipped]()))
	assert.False(t, dynproxy.IsIgnored(reflect.TypeFor[Auditable]()))
	assert.False(t, dynproxy.IsProxiable(reflect.TypeFor[json.Marshaler]()))
}
