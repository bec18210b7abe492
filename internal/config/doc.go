// Package config loads, normalizes, and validates vitrine configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the environment overrides
// VITRINE_POSTGRES_DSN, VITRINE_NTFY_TOPIC, and VITRINE_API_TOKEN. The Config type centralizes every
// knob the daemon and CLI need so the store backend, lifecycle policies, and
// reconciliation intervals are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical policy names, and clear validation errors.
package config
