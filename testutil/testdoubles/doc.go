// Package testdoubles provides spies for the dynproxy observability interfaces and for interceptors.
//
// All spies are safe for concurrent use. Spies created with recordCalls=false accept calls
// and record nothing, which keeps benchmarks free of recording overhead.
package testdoubles
