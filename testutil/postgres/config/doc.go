// Package config provides PostgreSQL connections for the database-backed interceptor tests.
//
// The DSN comes from the DYNPROXY_TEST_DSN environment variable. Tests asking for a connection
// are skipped when it is not set, so the suite runs without a database.
package config
