// Package config handles configuration loading for the poller.
//
// Values are resolved in ascending precedence: built-in defaults, the
// YAML file (with ${VAR} environment substitution), environment variable
// overrides, and finally the optional Vault secret overlay.
package config
