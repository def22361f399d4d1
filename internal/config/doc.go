// Package config defines the application configuration and loads it from an
// HCL file. Missing blocks and attributes take their defaults; command-line
// flags are layered on top by package cli.
package config
