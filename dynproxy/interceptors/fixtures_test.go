package interceptors_test

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
)

type Store interface {
	Save(ctx context.Context, key string, value int) (int, error)
	Size() int
}

var errUnavailable = errors.New("store unavailable")

// flakyStore fails the first failures calls of Save with err.
type flakyStore struct {
	failures int32
	err      error
	calls    atomic.Int32
	seenCtx  context.Context
}

func (s *flakyStore) invoke(_ any, m *dynproxy.Method, args []any) ([]any, error) {
	if m.Name == "Size" {
		return []any{int(s.calls.Add(1))}, nil
	}

	s.seenCtx = args[0].(context.Context)
	n := s.calls.Add(1)
	if n <= s.failures {
		return []any{0, s.err}, nil
	}

	return []any{args[2].(int) * 2, nil}, nil
}

func storeMethod(t *testing.T, name string) *dynproxy.Method {
	t.Helper()

	m, ok := dynproxy.FindMethod(reflect.TypeFor[Store](), name)
	require.True(t, ok)

	return m
}

func invoke(t *testing.T, store *flakyStore, method string, args []any, chain ...dynproxy.Interceptor) ([]any, error) {
	t.Helper()

	inv := dynproxy.NewMethodInvocation(
		nil,
		store,
		reflect.TypeFor[*flakyStore](),
		storeMethod(t, method),
		nil,
		args,
		chain,
		store.invoke,
	)

	return inv.Proceed()
}

func saveArgs(ctx context.Context) []any {
	return []any{ctx, "answer", 21}
}

type ctxKey struct{}
