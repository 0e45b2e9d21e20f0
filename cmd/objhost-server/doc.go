// Package main provides the entry point for objhost-server.
//
// The server hosts the built-in object classes and coordinates their
// lifetime:
//
//   - Registers classes with the class registry and announces readiness
//   - Serves the HTTP API for objects, health, status and metrics
//   - Serves the local Unix socket for management (no token required)
//   - Stops when the last object handle is released or a stop is forced
//
// Usage:
//
//	objhost-server [flags]
//	objhost-server --config /path/to/config.yaml
package main
