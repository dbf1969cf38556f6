// Package config loads, normalizes, and validates deltae configuration data.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment fallbacks such as DELTAE_HISTORY_DIR
// and XDG_STATE_HOME. Command-line flags are applied on top of the loaded
// Config by the CLI, so every run sees one sanitized set of settings.
package config
