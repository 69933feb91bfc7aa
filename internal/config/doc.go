// Package config loads, normalizes, and validates mcsounds configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MCSOUNDS_MINECRAFT_DIR. The Config type centralizes every knob the CLI and
// the extraction engine need: where the Minecraft installation lives, where
// sounds are written, which formats to produce, and how the codec is invoked.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical format lists, and clear validation errors.
package config
