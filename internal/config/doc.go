// Package config loads, normalizes, and validates jigport configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// JIGPORT_API_TOKEN. The Config type centralizes every knob the pipeline and
// CLI need, allowing the games staging tree, ledger location, and service
// credentials to be discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
