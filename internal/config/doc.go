// Package config loads, normalizes, and validates captionmux configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CAPTIONMUX_FFMPEG. The Config type centralizes every knob the CLI, the HTTP
// session server, and the engine loader need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a canonical provider order, and clear validation errors.
package config
