// Package config holds the runtime configuration for harmonize: CLI
// flag values, the YAML config file, environment credentials, and the
// XDG directory layout.
package config
