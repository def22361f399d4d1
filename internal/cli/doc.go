// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// layers CLI flags over the configuration file and runs the requested
// operation against an app.App.
package cli
