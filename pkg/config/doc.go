// Package config provides configuration loading, validation, and access for
// Vulcan. Configuration is read from a YAML file, merged with defaults, and
// optionally overridden by VULCAN_* environment variables.
//
// The package exposes a global singleton initialized once at startup via
// Initialize; components receive the relevant sub-configuration by value and
// never reach back into the singleton.
package config
