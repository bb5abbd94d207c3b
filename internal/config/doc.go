// Package config loads, validates, and normalizes signcast configuration
// from TOML with sensible defaults for daemon operation.
package config
