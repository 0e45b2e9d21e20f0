// Package confloader loads layered configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Overrides passed with WithOverrides (command-line flags)
//  2. Environment variables (OBJHOST_ prefix)
//  3. The YAML configuration file
//  4. Defaults passed with WithDefaults
//
// Environment variable names map to keys by lowercasing and treating a
// double underscore as the nesting separator, so that single underscores
// survive inside key names:
//
//	OBJHOST_LIFECYCLE__RECLAIM_INTERVAL=10s  ->  lifecycle.reclaim_interval
//
// Watcher reports changes to the configuration file through fsnotify.
package confloader
