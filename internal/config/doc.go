// Package config handles loading and validation of relay configuration.
//
// Configuration is YAML with ${VAR} environment variable expansion.
// Load order: file → env expansion → defaults → validation.
package config
