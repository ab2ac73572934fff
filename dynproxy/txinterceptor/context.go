package txinterceptor

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy/internal/adapters"
)

// Tx is the transaction carried by the context of an intercepted call.
type Tx = adapters.Tx

type txKey struct{}

// ContextWithTx returns a child of ctx carrying tx.
func ContextWithTx(ctx context.Context, tx Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns the transaction of the current call.
func TxFromContext(ctx context.Context) (Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(Tx)
	return tx, ok
}

// PGXTx returns the current transaction when it was begun on a pgxpool.Pool.
func PGXTx(ctx context.Context) (pgx.Tx, bool) {
	return rawTx[pgx.Tx](ctx)
}

// SQLTx returns the current transaction when it was begun on a sql.DB.
func SQLTx(ctx context.Context) (*sql.Tx, bool) {
	return rawTx[*sql.Tx](ctx)
}

// SQLXTx returns the current transaction when it was begun on a sqlx.DB.
func SQLXTx(ctx context.Context) (*sqlx.Tx, bool) {
	return rawTx[*sqlx.Tx](ctx)
}

func rawTx[T any](ctx context.Context) (T, bool) {
	var zero T

	tx, ok := TxFromContext(ctx)
	if !ok {
		return zero, false
	}

	raw, ok := tx.Raw().(T)

	return raw, ok
}
