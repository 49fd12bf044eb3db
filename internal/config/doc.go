// Package config loads, validates, and normalizes clipforge configuration.
//
// Configuration lives in a TOML file (default ~/.config/clipforge/config.toml)
// and can be overridden with CLIPFORGE_* environment variables; a .env file in
// the working directory is honored for development. Load returns a fully
// normalized config: paths expanded, defaults applied, and every threshold
// validated. Components receive the *Config by handle and never read the
// environment themselves.
package config
