// Package testutil holds helpers shared by package tests: a thread-safe log
// buffer, a debug logger wired to it, and a store wrapper that counts calls
// and injects faults.
package testutil
