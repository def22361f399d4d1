// Package app is the composition root. It turns a config.Config into a
// logger, a store backend, a frozen type registry and an entity session, and
// exposes the operations the CLI runs against them.
package app
