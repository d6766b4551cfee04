// Package config loads, normalizes, and validates cinema configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// CINEMA_DATA_DIR and CINEMA_API_BIND. Database paths given relative to the
// data directory are resolved here so every caller sees absolute locations.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
