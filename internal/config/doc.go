// Package config loads, normalizes, and validates musicreplacer configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MUSICREPLACER_CONVERTER_ENDPOINT. Derived locations (overrides directory,
// settings database, track list, log directory) default to children of the
// data directory so a single data_dir setting relocates everything.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
