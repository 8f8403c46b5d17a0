// Package config loads, normalizes, and validates romajitool configuration.
//
// It supplies repository defaults, expands tilde paths, reads the TOML config
// file, and honours environment fallbacks (OPENAI_API_KEY, ROMAJITOOL_*),
// including a working-directory .env file. Always obtain settings through
// this package so downstream code receives sanitized paths and validated
// thresholds.
package config
