// Package memstore provides a thread-safe, in-memory implementation of the
// store.Store interface. It is the default backend for development, tests and
// any graph that does not need to outlive the process.
package memstore
