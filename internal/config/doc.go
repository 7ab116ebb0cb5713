// Package config loads, normalizes, and validates LedgerFlow configuration.
//
// Configuration lives in a TOML file (default ~/.config/ledgerflow/config.toml)
// and is resolved in three steps: repository defaults, file decode, then
// normalization (path expansion, environment fallbacks for API keys) followed
// by validation. Validation failures are classified as configuration errors
// and surface before any pipeline stage starts.
//
// The embedded sample_config.toml is the canonical documented reference and
// is written out by `ledgerflow config init`.
package config
