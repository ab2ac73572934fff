// Package library is a small book catalog served through a dynamic proxy.
//
// The Catalog shape in proxy_shapes_gen.go is produced by proxygen. NewObservedCatalog wraps any
// Catalog with logging, metrics and retries without the catalog knowing about any of them.
package library
