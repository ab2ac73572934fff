package txinterceptor_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy/internal/adapters"
)

type Ledger interface {
	Book(ctx context.Context, amount int) (int, error)
	Total(ctx context.Context) int
	Name() string
}

var errRejected = errors.New("booking rejected")

// fakeDB hands out fakeTx transactions and remembers them.
type fakeDB struct {
	beginErr  error
	commitErr error
	txs       []*fakeTx
	mu        sync.Mutex
}

func (db *fakeDB) Query(context.Context, string) (adapters.DBRows, error) { return nil, nil }

func (db *fakeDB) Exec(context.Context, string) (adapters.DBResult, error) { return nil, nil }

func (db *fakeDB) Begin(context.Context) (adapters.Tx, error) {
	if db.beginErr != nil {
		return nil, db.beginErr
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	tx := &fakeTx{commitErr: db.commitErr}
	db.txs = append(db.txs, tx)

	return tx, nil
}

func (db *fakeDB) began() int {
	db.mu.Lock()
	defer db.mu.Unlock()

	return len(db.txs)
}

type fakeTx struct {
	commitErr  error
	committed  bool
	rolledBack bool
}

func (tx *fakeTx) Query(context.Context, string) (adapters.DBRows, error) { return nil, nil }

func (tx *fakeTx) Exec(context.Context, string) (adapters.DBResult, error) { return nil, nil }

func (tx *fakeTx) Commit(context.Context) error {
	if tx.commitErr != nil {
		return tx.commitErr
	}

	tx.committed = true

	return nil
}

// Rollback after commit fails like the real drivers do.
func (tx *fakeTx) Rollback(context.Context) error {
	if tx.committed {
		return errors.New("tx is closed")
	}

	tx.rolledBack = true

	return nil
}

func (tx *fakeTx) Raw() any { return tx }

// ledgerInvoker is the end of the chain; it lets the test observe the call's context.
type ledgerInvoker struct {
	fail    bool
	panics  bool
	seenCtx context.Context
}

func (l *ledgerInvoker) invoke(_ any, m *dynproxy.Method, args []any) ([]any, error) {
	switch m.Name {
	case "Name":
		return []any{"ledger"}, nil
	case "Total":
		l.seenCtx = args[0].(context.Context)
		return []any{7}, nil
	}

	l.seenCtx = args[0].(context.Context)

	if l.panics {
		panic("ledger corrupted")
	}

	if l.fail {
		return []any{0, errRejected}, nil
	}

	return []any{args[1].(int), nil}, nil
}

func ledgerMethod(t *testing.T, name string) *dynproxy.Method {
	t.Helper()

	m, ok := dynproxy.FindMethod(reflect.TypeFor[Ledger](), name)
	require.True(t, ok)

	return m
}

func call(t *testing.T, ledger *ledgerInvoker, method string, args []any, chain ...dynproxy.Interceptor) ([]any, error) {
	t.Helper()

	inv := dynproxy.NewMethodInvocation(
		nil,
		ledger,
		reflect.TypeFor[*ledgerInvoker](),
		ledgerMethod(t, method),
		nil,
		args,
		chain,
		ledger.invoke,
	)

	return inv.Proceed()
}
