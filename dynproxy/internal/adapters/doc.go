// Package adapters hides the differences between pgxpool.Pool, sql.DB and sqlx.DB
// behind one DBAdapter, including transactions. The transaction and audit interceptors
// accept any of the three and talk to it through this package.
package adapters
