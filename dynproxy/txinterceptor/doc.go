// Package txinterceptor runs proxied methods in a database transaction.
//
// Methods whose first parameter is a context.Context get a transaction begun on a pgxpool.Pool,
// sql.DB or sqlx.DB. The target finds it in its context with TxFromContext, or as the driver's own
// type with PGXTx, SQLTx and SQLXTx. The transaction commits when the method's trailing error result
// is nil and rolls back otherwise, including when the method panics. A call that already runs inside
// a transaction joins it.
package txinterceptor
