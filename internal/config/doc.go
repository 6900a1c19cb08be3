// Package config loads, normalizes, and validates the TOML configuration
// shared by every pipeline component.
package config
