package dynproxy_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
)

type Echo interface {
	Echo(s string) string
}

type echoShape struct{ h dynproxy.Handler }

func (s echoShape) ProxyHandler() dynproxy.Handler { return s.h }

func (s echoShape) Echo(str string) string {
	out := s.h.Invoke("Echo", str)
	r0, _ := out[0].(string)

	return r0
}

type handlerFunc func(method string, args ...any) []any

func (f handlerFunc) Invoke(method string, args ...any) []any { return f(method, args...) }

func Test_RegisterShape(t *testing.T) {
	iface := dynproxy.RegisterShape(func(h dynproxy.Handler) Echo { return echoShape{h} })
	assert.Equal(t, reflect.TypeFor[Echo](), iface)

	build, ok := dynproxy.ShapeFor(iface)
	require.True(t, ok)

	var calls []string
	handler := handlerFunc(func(method string, args ...any) []any {
		calls = append(calls, method)
		return []any{"<" + args[0].(string) + ">"}
	})

	face := build(handler)

	echo, err := dynproxy.As[Echo](face)
	require.NoError(t, err)
	assert.Equal(t, "<hi>", echo.Echo("hi"))
	assert.Equal(t, []string{"Echo"}, calls)

	_, ok = dynproxy.HandlerOf(face)
	assert.True(t, ok)

	_, err = dynproxy.As[Named](face)
	assert.ErrorIs(t, err, dynproxy.ErrShapeMissing)

	_, ok = dynproxy.ShapeFor(reflect.TypeFor[Named]())
	assert.False(t, ok)
}
