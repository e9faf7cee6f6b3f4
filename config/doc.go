// Package config loads boomparts settings from TOML. Load applies defaults,
// normalizes paths and enum values, and validates the result before it is
// turned into engine options.
package config
