// Package config loads, validates, and normalizes videogen configuration.
//
// Configuration lives in a TOML file with one section per subsystem. Load
// resolves the file (explicit path, then ~/.config/videogen/config.toml, then
// ./videogen.toml), decodes it over the defaults, expands ~ in every path
// field, and validates the result. Components receive the typed Config and
// never read the file themselves.
package config
