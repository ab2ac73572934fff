package dynproxy_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
)

type Store interface {
	Load(ctx context.Context, key string) (string, error)
}

func storeLoad(t *testing.T) *dynproxy.Method {
	t.Helper()

	m, ok := dynproxy.FindMethod(reflect.TypeFor[Store](), "Load")
	require.True(t, ok)

	return m
}

func recordingInterceptor(log *[]string, name string) dynproxy.Interceptor {
	return dynproxy.InterceptorFunc(func(inv dynproxy.Invocation) ([]any, error) {
		*log = append(*log, name)
		return inv.Proceed()
	})
}

func Test_MethodInvocation_Proceed(t *testing.T) {
	m := storeLoad(t)
	var log []string

	invoker := func(_ any, called *dynproxy.Method, args []any) ([]any, error) {
		log = append(log, "target:"+args[1].(string))
		assert.Same(t, m, called)

		return []any{"value", nil}, nil
	}

	twice := dynproxy.InterceptorFunc(func(inv dynproxy.Invocation) ([]any, error) {
		log = append(log, "A")
		if _, err := inv.Proceed(); err != nil {
			return nil, err
		}
		inv.SetArgument(1, "second")

		return inv.Proceed()
	})

	inv := dynproxy.NewMethodInvocation(nil, nil, nil, m, nil,
		[]any{context.Background(), "first"},
		[]dynproxy.Interceptor{twice, recordingInterceptor(&log, "B")},
		invoker,
	)

	results, err := inv.Proceed()
	require.NoError(t, err)

	assert.Equal(t, []any{"value", nil}, results)
	assert.Equal(t, []string{"A", "B", "target:first", "B", "target:second"}, log)
	assert.Equal(t, 0, inv.CurrentInterceptorIndex(), "proceeding never moves the caller's position")
}

func Test_MethodInvocation_Accessors(t *testing.T) {
	m := storeLoad(t)
	concrete := &dynproxy.Method{Name: "Load", DeclaringType: reflect.TypeFor[*memoryStore](), Type: m.Type}
	ctx := context.WithValue(context.Background(), struct{}{}, "marker")

	inv := dynproxy.NewMethodInvocation("proxy", "target", reflect.TypeFor[string](), concrete, m,
		[]any{ctx, "key"}, nil, nil)

	assert.Equal(t, "proxy", inv.Proxy())
	assert.Equal(t, "target", inv.Target())
	assert.Equal(t, reflect.TypeFor[string](), inv.TargetType())
	assert.Same(t, concrete, inv.TargetMethod())
	assert.Same(t, m, inv.ProxyMethod())
	assert.Same(t, m, inv.Method(), "the proxy method wins when both are known")
	assert.Equal(t, ctx, inv.Context())

	withoutContext := dynproxy.NewMethodInvocation(nil, nil, nil, concrete, nil, []any{"key"}, nil, nil)
	assert.Same(t, concrete, withoutContext.Method())
	assert.Equal(t, context.Background(), withoutContext.Context())
}

type memoryStore struct{}

func (*memoryStore) Load(context.Context, string) (string, error) { return "", nil }

func Test_CallError_And_WithCallError(t *testing.T) {
	m := storeLoad(t)
	errBoom := errors.New("boom")

	assert.NoError(t, dynproxy.CallError(m, []any{"v", nil}))
	assert.Equal(t, errBoom, dynproxy.CallError(m, []any{"", errBoom}))
	assert.NoError(t, dynproxy.CallError(m, []any{"short"}))

	assert.Equal(t, []any{"", errBoom}, dynproxy.WithCallError(m, nil, errBoom))
	assert.Equal(t, []any{"kept", errBoom}, dynproxy.WithCallError(m, []any{"kept", nil}, errBoom))

	name, ok := dynproxy.FindMethod(reflect.TypeFor[Named](), "Name")
	require.True(t, ok)
	assert.Equal(t, []any{"x"}, dynproxy.WithCallError(name, []any{"x"}, errBoom))
	assert.Equal(t, []any{""}, dynproxy.ZeroResults(name))
}

func Test_Selective_FiltersByTargetAndMethod(t *testing.T) {
	var log []string
	m := storeLoad(t)
	storeType := reflect.TypeFor[*memoryStore]()

	onlyStores := dynproxy.Selective(recordingInterceptor(&log, "A"), func(targetType reflect.Type, _ *dynproxy.Method) bool {
		return targetType == storeType
	})

	assert.True(t, dynproxy.AppliesTo(onlyStores, storeType, m))
	assert.False(t, dynproxy.AppliesTo(onlyStores, reflect.TypeFor[string](), m))
	assert.True(t, dynproxy.AppliesTo(recordingInterceptor(&log, "B"), nil, m))

	_, err := onlyStores.Invoke(dynproxy.NewMethodInvocation(nil, nil, storeType, m, nil, []any{context.Background(), "k"}, nil,
		func(any, *dynproxy.Method, []any) ([]any, error) { return []any{"", nil}, nil }))
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, log)
}
