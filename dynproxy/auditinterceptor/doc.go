// Package auditinterceptor writes an audit trail of proxied calls into a PostgreSQL table.
//
// Every intercepted call produces one row with the method, its JSON encoded arguments, whether
// it failed, the error text and the duration. A failing audit write is logged and never changes
// the outcome of the call. Recent reads the newest rows back.
//
// The table layout is:
//
//	id uuid PRIMARY KEY, method text, arguments jsonb, failed boolean,
//	error text NULL, duration_ms bigint, created_at timestamptz
//
// CreateTable creates it when it does not exist.
package auditinterceptor
