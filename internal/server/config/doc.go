// Package config provides server configuration for objhost.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: validation (durations, addresses, CIDRs, registry location)
//   - sanitize.go: copies safe to log
//
// Configuration is loaded via internal/infra/confloader from a YAML file
// and OBJHOST_ environment variables.
package config
