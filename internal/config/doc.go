// Package config loads, validates, and normalizes reelsmith's TOML
// configuration.
package config
