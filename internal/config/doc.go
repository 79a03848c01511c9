// Package config loads and validates the classpub TOML configuration,
// resolving workspace directories and sync tuning defaults.
package config
